package session_test

import (
	"context"
	"testing"
	"time"

	"miqa/internal/assetstore"
	"miqa/internal/config"
	"miqa/internal/logging"
	"miqa/internal/session"
	"miqa/internal/settings"
	"miqa/internal/store"
	"miqa/internal/testsupport"
)

type fixture struct {
	cfg   *config.Config
	store *store.Store
	svc   *session.Service
}

// importTime is the fixed clock used for archive names.
var importTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	assets, err := assetstore.Open(ctx, st, cfg.Paths.AssetstoreDir, logging.NewNop())
	if err != nil {
		t.Fatalf("assetstore.Open: %v", err)
	}
	set := settings.New(st, cfg)
	if err := set.Seed(ctx); err != nil {
		t.Fatalf("settings.Seed: %v", err)
	}
	svc := session.New(cfg, st, assets, set, logging.NewNop(), session.WithClock(func() time.Time { return importTime }))
	return &fixture{cfg: cfg, store: st, svc: svc}
}

func (f *fixture) mustImport(t *testing.T) session.ImportResult {
	t.Helper()
	result, err := f.svc.Import(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	return result
}

// scanFolder resolves experiment/scanKey in the live tree.
func (f *fixture) scanFolder(t *testing.T, experiment, scanKey string) *store.Folder {
	t.Helper()
	tree, err := f.svc.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	for _, exp := range tree {
		if exp.Folder.Name != experiment {
			continue
		}
		for _, sess := range exp.Sessions {
			if sess.Folder.Name == scanKey {
				return sess.Folder
			}
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

var standardScans = []testsupport.ScanFixture{
	{ExperimentID: "E1", ScanID: "1", ScanType: "T1", SiteID: "BOS", Images: []string{"b.nii.gz", "a.nii.gz", "readme.txt"}},
	{ExperimentID: "E1", ScanID: "2", ScanType: "T2", SiteID: "BOS", Images: []string{"c.nii.gz"}},
	{ExperimentID: "E2", ScanID: "3", ScanType: "FLAIR", SiteID: "NYC", Images: []string{"d.nii.gz"}},
}
