package session

import (
	"context"

	"miqa/internal/store"
)

// Experiment is an experiment folder with its scan sessions.
type Experiment struct {
	Folder   *store.Folder
	Sessions []Session
}

// Session is a scan folder with its image datasets.
type Session struct {
	Folder   *store.Folder
	Datasets []Dataset
}

// Dataset is an image item and its files.
type Dataset struct {
	Item  *store.Item
	Files []*store.File
}

// Sessions returns the experiment/session/dataset tree of the live root.
// Datasets are items with the configured suffix, ordered by name. With no
// import yet the tree is empty.
func (s *Service) Sessions(ctx context.Context) ([]Experiment, error) {
	experiments := []Experiment{}
	root, err := s.findRoot(ctx)
	if err != nil || root == nil {
		return experiments, err
	}
	expFolders, err := s.store.ChildFolders(ctx, store.ParentFolder, root.ID)
	if err != nil {
		return nil, err
	}
	for _, expFolder := range expFolders {
		scanFolders, err := s.store.ChildFolders(ctx, store.ParentFolder, expFolder.ID)
		if err != nil {
			return nil, err
		}
		exp := Experiment{Folder: expFolder, Sessions: make([]Session, 0, len(scanFolders))}
		for _, scanFolder := range scanFolders {
			items, err := s.store.ItemsWithSuffix(ctx, scanFolder.ID, s.suffix)
			if err != nil {
				return nil, err
			}
			sess := Session{Folder: scanFolder, Datasets: make([]Dataset, 0, len(items))}
			for _, item := range items {
				files, err := s.store.ItemFiles(ctx, item.ID)
				if err != nil {
					return nil, err
				}
				sess.Datasets = append(sess.Datasets, Dataset{Item: item, Files: files})
			}
			exp.Sessions = append(exp.Sessions, sess)
		}
		experiments = append(experiments, exp)
	}
	return experiments, nil
}
