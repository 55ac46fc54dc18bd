package session

import (
	"context"
	"fmt"
	"io"

	"miqa/internal/services"
	"miqa/internal/store"
)

// OpenFile returns the record and contents of a dataset file. The caller
// closes the reader.
func (s *Service) OpenFile(ctx context.Context, fileID int64) (*store.File, io.ReadCloser, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "session", "open file",
			fmt.Sprintf("file %d does not exist", fileID), nil)
	}
	rc, err := s.assets.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}
