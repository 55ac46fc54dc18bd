package manifest

// Column names of the tabular manifest description.
const (
	ColExperimentID   = "xnat_experiment_id"
	ColScanID         = "scan_id"
	ColScanType       = "scan_type"
	ColSiteID         = "site_id"
	ColScanPath       = "scan_path"
	ColExperimentNote = "experiment_note"
)

// Columns is the header order of Rows.
var Columns = []string{ColExperimentID, ColScanID, ColScanType, ColSiteID, ColScanPath, ColExperimentNote}

// Row is one scan flattened with its experiment note.
type Row struct {
	ExperimentID   string
	ScanID         string
	ScanType       string
	SiteID         string
	ScanPath       string
	ExperimentNote string
}

// Values returns the row in Columns order.
func (r Row) Values() []string {
	return []string{r.ExperimentID, r.ScanID, r.ScanType, r.SiteID, r.ScanPath, r.ExperimentNote}
}

// Rows flattens the manifest into one row per scan, in manifest order.
func (m *Manifest) Rows() []Row {
	rows := make([]Row, 0, len(m.Scans))
	for _, scan := range m.Scans {
		rows = append(rows, Row{
			ExperimentID:   scan.ExperimentID,
			ScanID:         scan.ID,
			ScanType:       scan.Type,
			SiteID:         scan.SiteID,
			ScanPath:       scan.Path,
			ExperimentNote: m.ExperimentNote(scan.ExperimentID),
		})
	}
	return rows
}
