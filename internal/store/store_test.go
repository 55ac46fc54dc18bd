package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"miqa/internal/store"
	"miqa/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	versions, err := st.AppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	want := []string{"0001_lookup_indexes", "0002_folder_base_parent"}
	if len(versions) != len(want) {
		t.Fatalf("expected %v, got %v", want, versions)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Fatalf("migration %d: expected %q, got %q", i, want[i], versions[i])
		}
	}
	if st.Path() != cfg.DatabasePath() {
		t.Fatalf("expected path %q, got %q", cfg.DatabasePath(), st.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := first.EnsureCollection(ctx, "miqa", "admin"); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	coll, err := second.FindCollection(ctx, "miqa")
	if err != nil {
		t.Fatalf("FindCollection failed: %v", err)
	}
	if coll == nil || coll.Creator != "admin" {
		t.Fatalf("unexpected collection after reopen: %#v", coll)
	}
}

func TestOpenRejectsIncompatibleSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestEnsureCollectionIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, err := st.EnsureCollection(ctx, "miqa", "admin")
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	b, err := st.EnsureCollection(ctx, "miqa", "other")
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected same collection, got %d and %d", a.ID, b.ID)
	}
	if missing, err := st.FindCollection(ctx, "absent"); err != nil || missing != nil {
		t.Fatalf("expected nil for missing collection, got %#v (err=%v)", missing, err)
	}
}

func TestCreateFolderReuseAndSuffix(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	coll := mustCollection(t, st)

	root, err := st.CreateFolder(ctx, store.ParentCollection, coll.ID, "sessions", store.FolderOptions{Creator: "admin"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if root.BaseParentID != coll.ID || root.ParentType != store.ParentCollection {
		t.Fatalf("unexpected root folder: %#v", root)
	}

	exp, err := st.CreateFolder(ctx, store.ParentFolder, root.ID, "E1", store.FolderOptions{ReuseExisting: true})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	again, err := st.CreateFolder(ctx, store.ParentFolder, root.ID, "E1", store.FolderOptions{ReuseExisting: true})
	if err != nil {
		t.Fatalf("CreateFolder reuse failed: %v", err)
	}
	if again.ID != exp.ID {
		t.Fatalf("expected reuse of folder %d, got %d", exp.ID, again.ID)
	}
	if exp.BaseParentID != coll.ID {
		t.Fatalf("expected base parent %d, got %d", coll.ID, exp.BaseParentID)
	}

	dup, err := st.CreateFolder(ctx, store.ParentFolder, root.ID, "E1", store.FolderOptions{})
	if err != nil {
		t.Fatalf("CreateFolder duplicate failed: %v", err)
	}
	if dup.Name != "E1 (1)" {
		t.Fatalf("expected suffixed name, got %q", dup.Name)
	}

	children, err := st.ChildFolders(ctx, store.ParentFolder, root.ID)
	if err != nil {
		t.Fatalf("ChildFolders failed: %v", err)
	}
	if len(children) != 2 || children[0].Name != "E1" || children[1].Name != "E1 (1)" {
		t.Fatalf("unexpected children: %#v", children)
	}
}

func TestCreateFolderRequiresExistingParent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := st.CreateFolder(ctx, store.ParentFolder, 999, "orphan", store.FolderOptions{}); err == nil {
		t.Fatal("expected error for missing parent folder")
	}
	if _, err := st.CreateFolder(ctx, store.ParentCollection, 999, "orphan", store.FolderOptions{}); err == nil {
		t.Fatal("expected error for missing parent collection")
	}
	coll := mustCollection(t, st)
	if _, err := st.CreateFolder(ctx, store.ParentCollection, coll.ID, "  ", store.FolderOptions{}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestSaveFolderRenameConflict(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	coll := mustCollection(t, st)

	a := mustFolder(t, st, store.ParentCollection, coll.ID, "sessions")
	mustFolder(t, st, store.ParentCollection, coll.ID, "sessions_old")

	a.Name = "sessions_old"
	err := st.SaveFolder(ctx, a)
	if !errors.Is(err, store.ErrNameConflict) {
		t.Fatalf("expected ErrNameConflict, got %v", err)
	}

	a.Name = "sessions_2024"
	if err := st.SaveFolder(ctx, a); err != nil {
		t.Fatalf("SaveFolder failed: %v", err)
	}
	found, err := st.FindFolder(ctx, store.ParentCollection, coll.ID, "sessions_2024")
	if err != nil || found == nil || found.ID != a.ID {
		t.Fatalf("expected renamed folder, got %#v (err=%v)", found, err)
	}
	if gone, _ := st.FindFolder(ctx, store.ParentCollection, coll.ID, "sessions"); gone != nil {
		t.Fatalf("expected old name to be free, got %#v", gone)
	}
}

func TestFindFolderInBasePrefersCollectionChildren(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	coll := mustCollection(t, st)

	other := mustFolder(t, st, store.ParentCollection, coll.ID, "archive")
	mustFolder(t, st, store.ParentFolder, other.ID, "sessions")
	top := mustFolder(t, st, store.ParentCollection, coll.ID, "sessions")

	found, err := st.FindFolderInBase(ctx, coll.ID, "sessions")
	if err != nil {
		t.Fatalf("FindFolderInBase failed: %v", err)
	}
	if found == nil || found.ID != top.ID {
		t.Fatalf("expected top-level folder %d, got %#v", top.ID, found)
	}
	if missing, err := st.FindFolderInBase(ctx, coll.ID, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil, got %#v (err=%v)", missing, err)
	}
}

func TestSetFolderMetadataMerges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	coll := mustCollection(t, st)
	folder := mustFolder(t, st, store.ParentCollection, coll.ID, "scan")

	if _, err := st.SetFolderMetadata(ctx, folder, map[string]any{"site": "BOS", "note": "blurry"}); err != nil {
		t.Fatalf("SetFolderMetadata failed: %v", err)
	}
	if _, err := st.SetFolderMetadata(ctx, folder, map[string]any{"rating": "good", "note": nil}); err != nil {
		t.Fatalf("SetFolderMetadata failed: %v", err)
	}

	fetched, err := st.GetFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("GetFolder failed: %v", err)
	}
	if fetched.MetaString("site") != "BOS" || fetched.MetaString("rating") != "good" {
		t.Fatalf("unexpected metadata: %#v", fetched.Meta)
	}
	if _, ok := fetched.Meta["note"]; ok {
		t.Fatalf("expected note to be removed, got %#v", fetched.Meta)
	}
}

func TestItemsAndFiles(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	coll := mustCollection(t, st)
	folder := mustFolder(t, st, store.ParentCollection, coll.ID, "scan")

	for _, name := range []string{"b.nii.gz", "a.nii.gz", "notes.txt", "json"} {
		if _, err := st.CreateItem(ctx, folder.ID, name, store.ItemOptions{ReuseExisting: true}); err != nil {
			t.Fatalf("CreateItem %s failed: %v", name, err)
		}
	}
	reused, err := st.CreateItem(ctx, folder.ID, "a.nii.gz", store.ItemOptions{ReuseExisting: true})
	if err != nil {
		t.Fatalf("CreateItem reuse failed: %v", err)
	}

	datasets, err := st.ItemsWithSuffix(ctx, folder.ID, ".nii.gz")
	if err != nil {
		t.Fatalf("ItemsWithSuffix failed: %v", err)
	}
	if len(datasets) != 2 || datasets[0].Name != "a.nii.gz" || datasets[1].Name != "b.nii.gz" {
		t.Fatalf("unexpected datasets: %#v", datasets)
	}
	if datasets[0].ID != reused.ID {
		t.Fatalf("expected reused item %d, got %d", reused.ID, datasets[0].ID)
	}

	exact, err := st.ChildItems(ctx, folder.ID, "json")
	if err != nil || len(exact) != 1 {
		t.Fatalf("expected one json item, got %#v (err=%v)", exact, err)
	}

	path := filepath.Join(t.TempDir(), "a.nii.gz")
	testsupport.WriteFile(t, path, 16)
	if _, err := st.AddFile(ctx, &store.File{ItemID: reused.ID, Name: "a.nii.gz", Path: path, Size: 16, Imported: true}); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	replaced, err := st.AddFile(ctx, &store.File{ItemID: reused.ID, Name: "a.nii.gz", Path: path, Size: 32, MimeType: "application/gzip", Imported: true})
	if err != nil {
		t.Fatalf("AddFile replace failed: %v", err)
	}
	files, err := st.ItemFiles(ctx, reused.ID)
	if err != nil {
		t.Fatalf("ItemFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].ID != replaced.ID || files[0].Size != 32 || files[0].MimeType != "application/gzip" {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestSitesAndSettings(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	added, err := st.AddSites(ctx, []string{"BOS", "NYC", "", "BOS"}, "admin")
	if err != nil {
		t.Fatalf("AddSites failed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 new sites, got %d", added)
	}
	if added, _ := st.AddSites(ctx, []string{"NYC"}, "admin"); added != 0 {
		t.Fatalf("expected no new sites, got %d", added)
	}
	sites, err := st.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites failed: %v", err)
	}
	if len(sites) != 2 || sites[0].Name != "BOS" || sites[1].Name != "NYC" {
		t.Fatalf("unexpected sites: %#v", sites)
	}

	if _, ok, err := st.GetSetting(ctx, "miqa.import_path"); err != nil || ok {
		t.Fatalf("expected missing setting, ok=%v err=%v", ok, err)
	}
	if err := st.SetSetting(ctx, "miqa.import_path", "/a"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := st.SetSetting(ctx, "miqa.import_path", "/b"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, ok, err := st.GetSetting(ctx, "miqa.import_path")
	if err != nil || !ok || value != "/b" {
		t.Fatalf("expected /b, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestCurrentAssetstoreAndStats(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if current, err := st.CurrentAssetstore(ctx); err != nil || current != nil {
		t.Fatalf("expected no assetstore, got %#v (err=%v)", current, err)
	}
	if _, err := st.EnsureCurrentAssetstore(ctx, "old", "filesystem", "/old"); err != nil {
		t.Fatalf("EnsureCurrentAssetstore failed: %v", err)
	}
	current, err := st.EnsureCurrentAssetstore(ctx, "local", "filesystem", "/data")
	if err != nil {
		t.Fatalf("EnsureCurrentAssetstore failed: %v", err)
	}
	if current.Name != "local" || current.Root != "/data" || !current.Current {
		t.Fatalf("unexpected current assetstore: %#v", current)
	}

	coll := mustCollection(t, st)
	mustFolder(t, st, store.ParentCollection, coll.ID, "sessions")
	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Collections != 1 || stats.Folders != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	ok, err := st.CheckIntegrity(ctx)
	if err != nil || !ok {
		t.Fatalf("expected integrity ok, got %v (err=%v)", ok, err)
	}
}

func mustCollection(t *testing.T, st *store.Store) *store.Collection {
	t.Helper()
	coll, err := st.EnsureCollection(context.Background(), "miqa", "admin")
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	return coll
}

func mustFolder(t *testing.T, st *store.Store, parentType store.ParentType, parentID int64, name string) *store.Folder {
	t.Helper()
	folder, err := st.CreateFolder(context.Background(), parentType, parentID, name, store.FolderOptions{})
	if err != nil {
		t.Fatalf("CreateFolder %s failed: %v", name, err)
	}
	return folder
}
