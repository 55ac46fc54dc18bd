package session

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"miqa/internal/fileutil"
	"miqa/internal/logging"
	"miqa/internal/manifest"
	"miqa/internal/services"
)

// Rating values accepted on scan folders.
const (
	RatingQuestionable = "questionable"
	RatingBad          = "bad"
	RatingGood         = "good"
	RatingUsableExtra  = "usableExtra"
)

var decisionCodes = map[string]int{
	"":                 0,
	RatingQuestionable: 0,
	RatingBad:          -1,
	RatingGood:         1,
	RatingUsableExtra:  2,
}

// Decision maps a rating to its integer export code. Unknown ratings map to
// 0 and report false.
func Decision(rating string) (int, bool) {
	code, ok := decisionCodes[rating]
	return code, ok
}

// ValidRating reports whether rating is a known value. The empty rating is
// valid and means unset.
func ValidRating(rating string) bool {
	_, ok := decisionCodes[rating]
	return ok
}

// Export columns appended to the manifest columns.
const (
	ColDecision = "decision"
	ColScanNote = "scan_note"
)

// ExportColumns is the header order of exported rows.
var ExportColumns = append(append([]string{}, manifest.Columns...), ColDecision, ColScanNote)

// ExportRow is a manifest row enriched with the scan's current review state.
type ExportRow struct {
	ExperimentID   string `json:"xnat_experiment_id"`
	ScanID         string `json:"scan_id"`
	ScanType       string `json:"scan_type"`
	SiteID         string `json:"site_id"`
	ScanPath       string `json:"scan_path"`
	ExperimentNote string `json:"experiment_note"`
	Decision       int    `json:"decision"`
	ScanNote       string `json:"scan_note"`
}

// Values returns the row in ExportColumns order.
func (r ExportRow) Values() []string {
	return []string{
		r.ExperimentID, r.ScanID, r.ScanType, r.SiteID, r.ScanPath, r.ExperimentNote,
		strconv.Itoa(r.Decision), r.ScanNote,
	}
}

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" case-insensitively; "" yields def.
func ParseFormat(value string, def Format) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return def, nil
	case string(FormatCSV):
		return FormatCSV, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", services.Wrap(services.ErrValidation, "session", "export",
			fmt.Sprintf("unsupported format %q", value), nil)
	}
}

// FormatForPath picks JSON for .json files and CSV otherwise.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// WriteRows encodes rows to w in format.
func WriteRows(w io.Writer, rows []ExportRow, format Format) error {
	if format == FormatJSON {
		if rows == nil {
			rows = []ExportRow{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportSummary describes a written export.
type ExportSummary struct {
	Path   string
	Format Format
	Rows   int
}

// Export writes the export rows to the configured export path, choosing the
// format from its extension.
func (s *Service) Export(ctx context.Context) (ExportSummary, error) {
	path, err := s.settings.ExportPath(ctx)
	if err != nil {
		return ExportSummary{}, err
	}
	return s.ExportTo(ctx, path, FormatForPath(path))
}

// ExportTo writes the export rows to path in format. The file is replaced
// atomically.
func (s *Service) ExportTo(ctx context.Context, path string, format Format) (ExportSummary, error) {
	ctx = services.WithOperation(ctx, "export")
	logger := logging.WithContext(ctx, s.logger)

	if !fileutil.Writable(path) {
		return ExportSummary{}, services.Wrap(services.ErrNotWritable, "session", "export",
			fmt.Sprintf("export file %s is not writable", path), nil)
	}
	rows, err := s.ExportRows(ctx)
	if err != nil {
		return ExportSummary{}, err
	}
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteRows(w, rows, format)
	}); err != nil {
		return ExportSummary{}, services.Wrap(services.ErrNotWritable, "session", "export", "write export", err)
	}
	logger.Info("export written",
		logging.String("path", path),
		logging.String("format", string(format)),
		logging.Int("rows", len(rows)),
	)
	return ExportSummary{Path: path, Format: format, Rows: len(rows)}, nil
}

// ExportRows rebuilds the export table from the stored manifest. Rows whose
// experiment or scan folder no longer exists are dropped.
func (s *Service) ExportRows(ctx context.Context) ([]ExportRow, error) {
	logger := logging.WithContext(ctx, s.logger)

	root, err := s.findRoot(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, services.Wrap(services.ErrNotFound, "session", "export", "no session tree has been imported", nil)
	}
	items, err := s.store.ChildItems(ctx, root.ID, ManifestItemName)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "session", "export",
			fmt.Sprintf("session tree has no %q item", ManifestItemName), nil)
	}
	m, err := manifest.Parse([]byte(items[0].Description))
	if err != nil {
		return nil, fmt.Errorf("stored manifest: %w", err)
	}

	rows := make([]ExportRow, 0, len(m.Scans))
	dropped := 0
	for _, row := range m.Rows() {
		scanFolder, err := s.findScan(ctx, root, manifest.FolderName(row.ExperimentID), manifest.ScanKey(row.ScanID, row.ScanType))
		if err != nil {
			return nil, err
		}
		if scanFolder == nil {
			dropped++
			continue
		}
		rating := scanFolder.MetaString(MetaRating)
		decision, known := Decision(rating)
		if !known {
			logging.WarnWithContext(logger, "unknown rating exported as 0", "export_unknown_rating",
				logging.String(logging.FieldScanKey, scanFolder.Name),
				logging.String("rating", rating),
			)
		}
		rows = append(rows, ExportRow{
			ExperimentID:   row.ExperimentID,
			ScanID:         row.ScanID,
			ScanType:       row.ScanType,
			SiteID:         row.SiteID,
			ScanPath:       row.ScanPath,
			ExperimentNote: row.ExperimentNote,
			Decision:       decision,
			ScanNote:       scanFolder.MetaString(MetaNote),
		})
	}
	if dropped > 0 {
		logger.Debug("export rows without folders dropped", logging.Int("dropped", dropped))
	}
	return rows, nil
}
