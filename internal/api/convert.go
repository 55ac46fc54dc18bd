package api

import (
	"maps"
	"time"

	"miqa/internal/session"
	"miqa/internal/store"
)

// FromImportResult converts import counts.
func FromImportResult(r session.ImportResult) ImportResult {
	return ImportResult{Success: r.Success, Failed: r.Failed}
}

// FromExperiments converts the session tree. The result is never nil.
func FromExperiments(tree []session.Experiment) []Experiment {
	out := make([]Experiment, 0, len(tree))
	for _, exp := range tree {
		dto := Experiment{Sessions: make([]Session, 0, len(exp.Sessions))}
		if exp.Folder != nil {
			dto.FolderID = exp.Folder.ID
			dto.Name = exp.Folder.Name
		}
		for _, sess := range exp.Sessions {
			dto.Sessions = append(dto.Sessions, FromSession(sess))
		}
		out = append(out, dto)
	}
	return out
}

// FromSession converts a scan session and its datasets.
func FromSession(sess session.Session) Session {
	dto := FromScanFolder(sess.Folder)
	for _, ds := range sess.Datasets {
		dto.Datasets = append(dto.Datasets, FromDataset(ds))
	}
	return dto
}

// FromScanFolder converts a scan folder without datasets.
func FromScanFolder(folder *store.Folder) Session {
	dto := Session{Meta: map[string]any{}, Datasets: []Dataset{}}
	if folder == nil {
		return dto
	}
	dto.FolderID = folder.ID
	dto.Name = folder.Name
	if len(folder.Meta) > 0 {
		dto.Meta = maps.Clone(folder.Meta)
	}
	return dto
}

// FromDataset converts an image item and its files.
func FromDataset(ds session.Dataset) Dataset {
	dto := Dataset{Files: make([]File, 0, len(ds.Files))}
	if ds.Item != nil {
		dto.ID = ds.Item.ID
		dto.Name = ds.Item.Name
		dto.FolderID = ds.Item.FolderID
		dto.Creator = ds.Item.Creator
		dto.CreatedAt = FormatTime(ds.Item.CreatedAt)
	}
	for _, f := range ds.Files {
		if f == nil {
			continue
		}
		dto.Files = append(dto.Files, File{
			ID:       f.ID,
			ItemID:   f.ItemID,
			Name:     f.Name,
			Size:     f.Size,
			MimeType: f.MimeType,
		})
	}
	return dto
}

// FromSites converts registered sites. The result is never nil.
func FromSites(sites []store.Site) []Site {
	out := make([]Site, 0, len(sites))
	for _, s := range sites {
		out = append(out, Site{Name: s.Name, CreatedAt: FormatTime(s.CreatedAt)})
	}
	return out
}

// FromExportSummary converts a written export.
func FromExportSummary(s session.ExportSummary) ExportResult {
	return ExportResult{Path: s.Path, Format: string(s.Format), Rows: s.Rows}
}

// FromStoreStats converts document store counts.
func FromStoreStats(s store.Stats) StoreStats {
	return StoreStats{
		Collections: s.Collections,
		Folders:     s.Folders,
		Items:       s.Items,
		Files:       s.Files,
		Sites:       s.Sites,
	}
}

// ToAnnotation converts an annotation request.
func (r AnnotationRequest) ToAnnotation() session.Annotation {
	return session.Annotation{Rating: r.Rating, Note: r.Note}
}

// FormatTime renders t the way API payloads do; zero times render as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
