package assetstore_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"miqa/internal/assetstore"
	"miqa/internal/logging"
	"miqa/internal/services"
	"miqa/internal/store"
	"miqa/internal/testsupport"
)

func newItem(t *testing.T, st *store.Store) *store.Item {
	t.Helper()
	ctx := context.Background()
	coll, err := st.EnsureCollection(ctx, "miqa", "admin")
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	folder, err := st.CreateFolder(ctx, store.ParentCollection, coll.ID, "scan", store.FolderOptions{})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	item, err := st.CreateItem(ctx, folder.ID, "t1.nii.gz", store.ItemOptions{})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	return item
}

func TestImportFileRecordsInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	as, err := assetstore.Open(ctx, st, cfg.Paths.AssetstoreDir, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	item := newItem(t, st)
	src := filepath.Join(testsupport.BaseDir(cfg), "images", "t1.nii.gz")
	testsupport.WriteFile(t, src, 64)

	file, err := as.ImportFile(ctx, item, src, "t1.nii.gz")
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if file.Path != src || file.Size != 64 || file.MimeType != "application/gzip" || !file.Imported {
		t.Fatalf("unexpected file record: %#v", file)
	}
	current, err := st.CurrentAssetstore(ctx)
	if err != nil || current == nil {
		t.Fatalf("CurrentAssetstore failed: %v", err)
	}
	if file.AssetstoreID != current.ID {
		t.Fatalf("expected assetstore %d, got %d", current.ID, file.AssetstoreID)
	}

	rc, err := as.Open(file)
	if err != nil {
		t.Fatalf("Open file failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("expected 64 bytes, got %d", len(data))
	}
}

func TestImportFileRejectsMissingAndDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	as, err := assetstore.Open(ctx, st, cfg.Paths.AssetstoreDir, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	item := newItem(t, st)

	_, err = as.ImportFile(ctx, item, filepath.Join(testsupport.BaseDir(cfg), "missing.nii.gz"), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = as.ImportFile(ctx, item, testsupport.BaseDir(cfg), "dir")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOpenRequiresRoot(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := assetstore.Open(context.Background(), st, " ", nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"scan.nii.gz", "application/gzip"},
		{"SCAN.NII.GZ", "application/gzip"},
		{"scan.nii", "application/octet-stream"},
		{"manifest.json", "application/json"},
		{"noext", "application/octet-stream"},
	}
	for _, tc := range tests {
		if got := assetstore.DetectMimeType(tc.name); got != tc.want {
			t.Fatalf("DetectMimeType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
