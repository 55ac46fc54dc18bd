package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"strings"
)

const maxNameSuffix = 1000

// FolderOptions controls folder creation.
type FolderOptions struct {
	Creator     string
	Description string
	// ReuseExisting returns an existing sibling of the same name instead of
	// creating a suffixed copy.
	ReuseExisting bool
}

// GetFolder fetches a folder by identifier, or nil.
func (s *Store) GetFolder(ctx context.Context, id int64) (*Folder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// FindFolder returns the child of parent named name, or nil.
func (s *Store) FindFolder(ctx context.Context, parentType ParentType, parentID int64, name string) (*Folder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE parent_type = ? AND parent_id = ? AND name = ?`,
		string(parentType), parentID, name,
	)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find folder: %w", err)
	}
	return folder, nil
}

// FindFolderInBase returns a folder named name anywhere under the collection
// baseParentID, or nil. Folders directly under the collection win over nested
// ones.
func (s *Store) FindFolderInBase(ctx context.Context, baseParentID int64, name string) (*Folder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE base_parent_id = ? AND name = ?
         ORDER BY CASE parent_type WHEN 'collection' THEN 0 ELSE 1 END, id LIMIT 1`,
		baseParentID, name,
	)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find folder in base: %w", err)
	}
	return folder, nil
}

// ChildFolders lists the folders directly under parent ordered by name.
func (s *Store) ChildFolders(ctx context.Context, parentType ParentType, parentID int64) ([]*Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE parent_type = ? AND parent_id = ? ORDER BY name, id`,
		string(parentType), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("child folders: %w", err)
	}
	defer rows.Close()
	return collectFolders(rows)
}

func collectFolders(rows *sql.Rows) ([]*Folder, error) {
	var folders []*Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// CreateFolder creates a folder named name under the given parent.
func (s *Store) CreateFolder(ctx context.Context, parentType ParentType, parentID int64, name string, opts FolderOptions) (*Folder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("folder name is required")
	}
	baseParentID, err := s.baseParentOf(ctx, parentType, parentID)
	if err != nil {
		return nil, err
	}

	if opts.ReuseExisting {
		existing, err := s.FindFolder(ctx, parentType, parentID, name)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	for n := 0; n < maxNameSuffix; n++ {
		candidate := suffixedName(name, n)
		now := timestamp()
		res, err := s.execWithRetry(ctx,
			`INSERT INTO folders (name, parent_type, parent_id, base_parent_id, description, creator, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			candidate, string(parentType), parentID, baseParentID,
			nullableString(opts.Description), nullableString(opts.Creator), now, now,
		)
		if isUniqueViolation(err) {
			if opts.ReuseExisting {
				// Lost a race with a concurrent creator; theirs wins.
				return s.FindFolder(ctx, parentType, parentID, name)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert folder: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetFolder(ctx, id)
	}
	return nil, fmt.Errorf("insert folder %q: %w", name, ErrNameConflict)
}

func (s *Store) baseParentOf(ctx context.Context, parentType ParentType, parentID int64) (int64, error) {
	switch parentType {
	case ParentCollection:
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE id = ?`, parentID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("collection %d does not exist", parentID)
		}
		if err != nil {
			return 0, fmt.Errorf("lookup collection: %w", err)
		}
		return id, nil
	case ParentFolder:
		parent, err := s.GetFolder(ctx, parentID)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			return 0, fmt.Errorf("folder %d does not exist", parentID)
		}
		return parent.BaseParentID, nil
	default:
		return 0, fmt.Errorf("unknown parent type %q", parentType)
	}
}

// SaveFolder persists name and description changes.
func (s *Store) SaveFolder(ctx context.Context, folder *Folder) error {
	if folder == nil {
		return errors.New("folder is nil")
	}
	if strings.TrimSpace(folder.Name) == "" {
		return errors.New("folder name is required")
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE folders SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		folder.Name, nullableString(folder.Description), timestamp(), folder.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("rename folder %d to %q: %w", folder.ID, folder.Name, ErrNameConflict)
	}
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	return nil
}

// SetFolderMetadata merges meta into the folder's metadata. Keys mapped to nil
// are removed. The folder is updated in place and returned.
func (s *Store) SetFolderMetadata(ctx context.Context, folder *Folder, meta map[string]any) (*Folder, error) {
	if folder == nil {
		return nil, errors.New("folder is nil")
	}
	current, err := s.GetFolder(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("folder %d does not exist", folder.ID)
	}
	merged := maps.Clone(current.Meta)
	if merged == nil {
		merged = map[string]any{}
	}
	for key, value := range meta {
		if value == nil {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	encoded, err := encodeMeta(merged)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE folders SET meta_json = ?, updated_at = ? WHERE id = ?`,
		encoded, timestamp(), folder.ID,
	); err != nil {
		return nil, fmt.Errorf("update folder metadata: %w", err)
	}
	folder.Meta = merged
	return folder, nil
}
