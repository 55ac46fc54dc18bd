// Package manifest parses and validates the JSON manifest that drives an
// import.
//
// A manifest lists experiments, acquisition sites and scans. Each scan names
// its experiment, its image directory relative to data_root, and the image
// file names inside that directory. Manifests are validated against an
// embedded JSON Schema before they are decoded; every violation is reported.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/unicode/norm"

	"miqa/internal/services"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// Manifest is a decoded import manifest. Raw holds the bytes it was parsed
// from so the original document can be stored verbatim.
type Manifest struct {
	DataRoot    string       `json:"data_root"`
	Experiments []Experiment `json:"experiments"`
	Sites       []Site       `json:"sites"`
	Scans       []Scan       `json:"scans"`

	Raw []byte `json:"-"`
}

// Experiment is an imaging study session.
type Experiment struct {
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

// Site is an acquisition site. Manifests may list sites as bare identifiers
// or as objects.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts either "BOS" or {"id": "BOS", "name": "Boston"}.
func (s *Site) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*s = Site{ID: id}
		return nil
	}
	type plain Site
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*s = Site(p)
	return nil
}

// Scan is one acquisition within an experiment.
type Scan struct {
	ID           string   `json:"id"`
	ExperimentID string   `json:"experiment_id"`
	SiteID       string   `json:"site_id"`
	Type         string   `json:"type"`
	Path         string   `json:"path"`
	Images       []string `json:"images"`
}

// Key is the scan's folder name.
func (s Scan) Key() string {
	return ScanKey(s.ID, s.Type)
}

// ScanKey builds the stable scan identity "<scan_id>_<scan_type>".
func ScanKey(scanID, scanType string) string {
	return FolderName(scanID) + "_" + FolderName(scanType)
}

// FolderName is the node name for a manifest identifier: surrounding
// whitespace is dropped and the rest normalized to NFC, so identifiers that
// differ only in padding or Unicode composition map to one folder.
func FolderName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidationError lists every schema violation found in a manifest.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid manifest"
	}
	return "invalid manifest: " + strings.Join(e.Violations, "; ")
}

// Unwrap classifies validation failures as client errors.
func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "load",
				fmt.Sprintf("import file %s does not exist", path), nil)
		}
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "manifest", "load",
			fmt.Sprintf("import path %s is a directory", path), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Violations: []string{err.Error()}}
	}
	m.Raw = append([]byte(nil), data...)
	return &m, nil
}

// Validate checks data against the embedded schema.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return &ValidationError{Violations: []string{"manifest is not valid JSON"}}
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Violations: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return &ValidationError{Violations: violations}
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile manifest schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ExperimentNote returns the note of experiment id, or "".
func (m *Manifest) ExperimentNote(id string) string {
	name := FolderName(id)
	for _, exp := range m.Experiments {
		if FolderName(exp.ID) == name {
			return exp.Note
		}
	}
	return ""
}

// ImageDir resolves the image directory of scan against data_root. The
// result is not home-expanded.
func (m *Manifest) ImageDir(scan Scan) string {
	if filepath.IsAbs(scan.Path) {
		return scan.Path
	}
	return filepath.Join(m.DataRoot, scan.Path)
}

// SiteIDs returns the distinct site identifiers referenced by scans, in
// first-seen order.
func (m *Manifest) SiteIDs() []string {
	seen := make(map[string]struct{}, len(m.Scans))
	var ids []string
	for _, scan := range m.Scans {
		if scan.SiteID == "" {
			continue
		}
		if _, ok := seen[scan.SiteID]; ok {
			continue
		}
		seen[scan.SiteID] = struct{}{}
		ids = append(ids, scan.SiteID)
	}
	return ids
}
