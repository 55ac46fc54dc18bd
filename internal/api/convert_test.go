package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"miqa/internal/session"
	"miqa/internal/store"
)

func TestFromExperimentsShape(t *testing.T) {
	created := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	tree := []session.Experiment{{
		Folder: &store.Folder{ID: 10, Name: "E1"},
		Sessions: []session.Session{{
			Folder: &store.Folder{ID: 11, Name: "1_T1", Meta: map[string]any{"scanId": "1", "rating": "good"}},
			Datasets: []session.Dataset{{
				Item:  &store.Item{ID: 12, Name: "a.nii.gz", FolderID: 11, CreatedAt: created},
				Files: []*store.File{{ID: 13, ItemID: 12, Name: "a.nii.gz", Size: 64, MimeType: "application/gzip"}},
			}},
		}, {
			Folder: &store.Folder{ID: 14, Name: "2_T2"},
		}},
	}}

	dto := FromExperiments(tree)
	if len(dto) != 1 || dto[0].FolderID != 10 || dto[0].Name != "E1" || len(dto[0].Sessions) != 2 {
		t.Fatalf("unexpected experiments: %#v", dto)
	}
	sess := dto[0].Sessions[0]
	if sess.Meta["rating"] != "good" || len(sess.Datasets) != 1 {
		t.Fatalf("unexpected session: %#v", sess)
	}
	ds := sess.Datasets[0]
	if ds.ID != 12 || ds.FolderID != 11 || ds.CreatedAt != "2024-03-05T14:07:09.000Z" || len(ds.Files) != 1 {
		t.Fatalf("unexpected dataset: %#v", ds)
	}

	empty := dto[0].Sessions[1]
	if empty.Meta == nil || empty.Datasets == nil {
		t.Fatalf("expected empty meta and datasets to encode as {} and [], got %#v", empty)
	}

	encoded, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"folderId":10`, `"_id":12`, `"datasets":[]`, `"meta":{}`} {
		if !strings.Contains(string(encoded), want) {
			t.Fatalf("expected %s in %s", want, encoded)
		}
	}
}

func TestFromExperimentsNeverNil(t *testing.T) {
	encoded, err := json.Marshal(FromExperiments(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != "[]" {
		t.Fatalf("expected [], got %s", encoded)
	}
	if sites := FromSites(nil); sites == nil {
		t.Fatal("expected non-nil sites")
	}
}

func TestFromScanFolderCopiesMeta(t *testing.T) {
	folder := &store.Folder{ID: 1, Name: "1_T1", Meta: map[string]any{"note": "x"}}
	dto := FromScanFolder(folder)
	dto.Meta["note"] = "changed"
	if folder.Meta["note"] != "x" {
		t.Fatal("expected converter not to alias folder metadata")
	}
}

func TestAnnotationRequestDecoding(t *testing.T) {
	var req AnnotationRequest
	if err := json.Unmarshal([]byte(`{"rating": ""}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ann := req.ToAnnotation()
	if ann.Rating == nil || *ann.Rating != "" || ann.Note != nil {
		t.Fatalf("unexpected annotation: %#v", ann)
	}
}
