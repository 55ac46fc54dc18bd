package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddFile attaches a file to an item. A file of the same name on the item is
// replaced so re-imports stay idempotent.
func (s *Store) AddFile(ctx context.Context, file *File) (*File, error) {
	if file == nil {
		return nil, errors.New("file is nil")
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, errors.New("file name is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO files (item_id, assetstore_id, name, path, size, mime_type, imported, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(item_id, name) DO UPDATE SET
             assetstore_id = excluded.assetstore_id,
             path = excluded.path,
             size = excluded.size,
             mime_type = excluded.mime_type,
             imported = excluded.imported`,
		file.ItemID, nullableID(file.AssetstoreID), file.Name, file.Path, file.Size,
		nullableString(file.MimeType), boolToInt(file.Imported), timestamp(),
	); err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE item_id = ? AND name = ?`, file.ItemID, file.Name)
	stored, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("reload file: %w", err)
	}
	return stored, nil
}

// GetFile fetches a file by identifier, or nil.
func (s *Store) GetFile(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// ItemFiles lists the files attached to an item ordered by name.
func (s *Store) ItemFiles(ctx context.Context, itemID int64) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE item_id = ? ORDER BY name, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
