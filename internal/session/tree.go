package session

import (
	"context"

	"miqa/internal/store"
)

// findRoot returns the live root folder, or nil when nothing was imported.
func (s *Service) findRoot(ctx context.Context) (*store.Folder, error) {
	coll, err := s.store.FindCollection(ctx, s.collection)
	if err != nil || coll == nil {
		return nil, err
	}
	return s.store.FindFolderInBase(ctx, coll.ID, s.rootFolder)
}

// findScan resolves experiment and scan folder names under root. Either
// return may be nil when the node does not exist.
func (s *Service) findScan(ctx context.Context, root *store.Folder, experiment, scanKey string) (*store.Folder, error) {
	exp, err := s.store.FindFolder(ctx, store.ParentFolder, root.ID, experiment)
	if err != nil || exp == nil {
		return nil, err
	}
	return s.store.FindFolder(ctx, store.ParentFolder, exp.ID, scanKey)
}
