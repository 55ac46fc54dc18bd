package session

import (
	"context"
	"fmt"

	"miqa/internal/logging"
	"miqa/internal/services"
	"miqa/internal/store"
)

// Annotation updates the review state of a scan. Nil fields are left alone;
// an empty string clears the value.
type Annotation struct {
	Rating *string
	Note   *string
}

// Annotate applies a rating and/or note to the scan folder folderID.
func (s *Service) Annotate(ctx context.Context, folderID int64, update Annotation) (*store.Folder, error) {
	ctx = services.WithOperation(ctx, "annotate")
	if update.Rating == nil && update.Note == nil {
		return nil, services.Wrap(services.ErrValidation, "session", "annotate", "rating or note is required", nil)
	}
	if update.Rating != nil && !ValidRating(*update.Rating) {
		return nil, services.Wrap(services.ErrValidation, "session", "annotate",
			fmt.Sprintf("unknown rating %q", *update.Rating), nil)
	}
	folder, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, services.Wrap(services.ErrNotFound, "session", "annotate",
			fmt.Sprintf("folder %d does not exist", folderID), nil)
	}
	if folder.MetaString(MetaScanID) == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "annotate",
			fmt.Sprintf("folder %d is not a scan", folderID), nil)
	}

	meta := map[string]any{}
	if update.Rating != nil {
		meta[MetaRating] = nullable(*update.Rating)
	}
	if update.Note != nil {
		meta[MetaNote] = nullable(*update.Note)
	}
	updated, err := s.store.SetFolderMetadata(ctx, folder, meta)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, s.logger).Info("scan annotated",
		logging.String(logging.FieldScanKey, folder.Name),
		logging.String("rating", updated.MetaString(MetaRating)),
	)
	return updated, nil
}

// Sites lists the acquisition sites registered by imports.
func (s *Service) Sites(ctx context.Context) ([]store.Site, error) {
	return s.store.Sites(ctx)
}
