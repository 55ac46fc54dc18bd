package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"miqa/internal/config"
	"miqa/internal/manifest"
)

// ScanFixture describes one scan of a generated manifest.
type ScanFixture struct {
	ExperimentID string
	ScanID       string
	ScanType     string
	SiteID       string
	Images       []string
	// MissingDir leaves the image directory uncreated.
	MissingDir bool
}

// NewManifest builds a manifest whose data root lives in the config's temp
// tree and creates the image files of every scan not marked MissingDir.
func NewManifest(t testing.TB, cfg *config.Config, notes map[string]string, scans ...ScanFixture) *manifest.Manifest {
	t.Helper()

	m := &manifest.Manifest{
		DataRoot:    filepath.Join(BaseDir(cfg), "dataset"),
		Experiments: []manifest.Experiment{},
		Sites:       []manifest.Site{},
		Scans:       []manifest.Scan{},
	}
	seenExp := map[string]bool{}
	seenSite := map[string]bool{}
	for _, fx := range scans {
		if !seenExp[fx.ExperimentID] {
			seenExp[fx.ExperimentID] = true
			m.Experiments = append(m.Experiments, manifest.Experiment{ID: fx.ExperimentID, Note: notes[fx.ExperimentID]})
		}
		if fx.SiteID != "" && !seenSite[fx.SiteID] {
			seenSite[fx.SiteID] = true
			m.Sites = append(m.Sites, manifest.Site{ID: fx.SiteID})
		}
		images := fx.Images
		if images == nil {
			images = []string{}
		}
		rel := filepath.Join(fx.ExperimentID, fx.ScanID+"_"+fx.ScanType)
		m.Scans = append(m.Scans, manifest.Scan{
			ID:           fx.ScanID,
			ExperimentID: fx.ExperimentID,
			SiteID:       fx.SiteID,
			Type:         fx.ScanType,
			Path:         rel,
			Images:       images,
		})
		if fx.MissingDir {
			continue
		}
		dir := filepath.Join(m.DataRoot, rel)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		for _, img := range images {
			WriteFile(t, filepath.Join(dir, img), 128)
		}
	}
	return m
}

// WriteManifest encodes m to the configured import path.
func WriteManifest(t testing.TB, cfg *config.Config, m *manifest.Manifest) {
	t.Helper()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	path := cfg.Session.ImportPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}
