package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"miqa/internal/manifest"
	"miqa/internal/services"
)

const validManifest = `{
  "data_root": "/data",
  "experiments": [{"id": "E1", "note": "motion"}, {"id": "E2"}],
  "sites": ["BOS", {"id": "NYC", "name": "New York"}],
  "scans": [
    {"id": "1", "experiment_id": "E1", "site_id": "BOS", "type": "T1", "path": "E1/1", "images": ["a.nii.gz"]},
    {"id": "2", "experiment_id": "E2", "site_id": "NYC", "type": "T2", "path": "/abs/E2", "images": []},
    {"id": "3", "experiment_id": "E1", "site_id": "BOS", "type": "FLAIR", "path": "E1/3", "images": ["b.nii.gz"]}
  ]
}`

func TestParseValidManifest(t *testing.T) {
	m, err := manifest.Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.DataRoot != "/data" || len(m.Scans) != 3 || len(m.Experiments) != 2 {
		t.Fatalf("unexpected manifest: %#v", m)
	}
	if m.Sites[0] != (manifest.Site{ID: "BOS"}) || m.Sites[1] != (manifest.Site{ID: "NYC", Name: "New York"}) {
		t.Fatalf("unexpected sites: %#v", m.Sites)
	}
	if string(m.Raw) != validManifest {
		t.Fatal("expected raw bytes to be preserved")
	}
	if got := m.ExperimentNote("E1"); got != "motion" {
		t.Fatalf("expected note motion, got %q", got)
	}
	if got := m.ExperimentNote("missing"); got != "" {
		t.Fatalf("expected empty note, got %q", got)
	}
	if got := m.ImageDir(m.Scans[0]); got != filepath.Join("/data", "E1/1") {
		t.Fatalf("unexpected image dir %q", got)
	}
	if got := m.ImageDir(m.Scans[1]); got != "/abs/E2" {
		t.Fatalf("expected absolute path kept, got %q", got)
	}
	ids := m.SiteIDs()
	if len(ids) != 2 || ids[0] != "BOS" || ids[1] != "NYC" {
		t.Fatalf("unexpected site ids: %v", ids)
	}
}

func TestParseReportsEveryViolation(t *testing.T) {
	doc := `{"experiments": [{"note": "x"}], "sites": [], "scans": [{"id": "1"}]}`
	_, err := manifest.Parse([]byte(doc))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *manifest.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Violations) < 3 {
		t.Fatalf("expected several violations, got %v", verr.Violations)
	}
	if !strings.Contains(err.Error(), "data_root") {
		t.Fatalf("expected data_root violation in %q", err.Error())
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := manifest.Parse([]byte(`{"data_root": `))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.HTTPStatus(err) != 400 {
		t.Fatalf("expected 400, got %d", services.HTTPStatus(err))
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := manifest.Load(filepath.Join(dir, "absent.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = manifest.Load(dir)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for directory, got %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.json")
	if err := os.WriteFile(path, []byte(validManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Rows()) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.Rows()))
	}
}

func TestScanKeyIsStable(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if manifest.ScanKey(composed, "T1") != manifest.ScanKey(decomposed, "T1") {
		t.Fatal("expected NFC-equivalent identifiers to share a key")
	}
	if got := manifest.ScanKey("7", "T1"); got != "7_T1" {
		t.Fatalf("unexpected key %q", got)
	}
	scan := manifest.Scan{ID: "7", Type: "T1"}
	if scan.Key() != "7_T1" {
		t.Fatalf("unexpected scan key %q", scan.Key())
	}
}

func TestFolderNameIgnoresPadding(t *testing.T) {
	if got := manifest.FolderName(" E1\t"); got != "E1" {
		t.Fatalf("expected E1, got %q", got)
	}
	if got := manifest.ScanKey(" 1", "T1 "); got != "1_T1" {
		t.Fatalf("expected 1_T1, got %q", got)
	}
	m := &manifest.Manifest{Experiments: []manifest.Experiment{{ID: "E1 ", Note: "motion"}}}
	if got := m.ExperimentNote("E1"); got != "motion" {
		t.Fatalf("expected padded experiment to match, got %q", got)
	}
}

func TestParseRejectsBlankIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		scan string
	}{
		{"scan id", `{"id": "  ", "experiment_id": "E1", "site_id": "BOS", "type": "T1", "path": "p", "images": []}`},
		{"experiment id", `{"id": "1", "experiment_id": " ", "site_id": "BOS", "type": "T1", "path": "p", "images": []}`},
		{"scan type", `{"id": "1", "experiment_id": "E1", "site_id": "BOS", "type": "\t", "path": "p", "images": []}`},
		{"image", `{"id": "1", "experiment_id": "E1", "site_id": "BOS", "type": "T1", "path": "p", "images": [" "]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := `{"data_root": "/data", "experiments": [{"id": "E1"}], "sites": [], "scans": [` + tc.scan + `]}`
			_, err := manifest.Parse([]byte(doc))
			var verr *manifest.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRows(t *testing.T) {
	m, err := manifest.Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rows := m.Rows()
	want := manifest.Row{
		ExperimentID:   "E1",
		ScanID:         "1",
		ScanType:       "T1",
		SiteID:         "BOS",
		ScanPath:       "E1/1",
		ExperimentNote: "motion",
	}
	if rows[0] != want {
		t.Fatalf("unexpected first row: %#v", rows[0])
	}
	if len(rows[0].Values()) != len(manifest.Columns) {
		t.Fatal("values and columns disagree")
	}
	if rows[1].ExperimentNote != "" {
		t.Fatalf("expected empty note, got %q", rows[1].ExperimentNote)
	}
}
