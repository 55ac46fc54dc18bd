package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ItemOptions controls item creation.
type ItemOptions struct {
	Creator       string
	Description   string
	ReuseExisting bool
}

// GetItem fetches an item by identifier, or nil.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// CreateItem creates an item named name inside folderID.
func (s *Store) CreateItem(ctx context.Context, folderID int64, name string, opts ItemOptions) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("item name is required")
	}
	if opts.ReuseExisting {
		existing, err := s.ChildItems(ctx, folderID, name)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing[0], nil
		}
	}

	for n := 0; n < maxNameSuffix; n++ {
		now := timestamp()
		res, err := s.execWithRetry(ctx,
			`INSERT INTO items (name, folder_id, description, creator, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			suffixedName(name, n), folderID, nullableString(opts.Description), nullableString(opts.Creator), now, now,
		)
		if isUniqueViolation(err) {
			if opts.ReuseExisting {
				items, findErr := s.ChildItems(ctx, folderID, name)
				if findErr != nil || len(items) == 0 {
					return nil, fmt.Errorf("insert item: %w", err)
				}
				return items[0], nil
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetItem(ctx, id)
	}
	return nil, fmt.Errorf("insert item %q: %w", name, ErrNameConflict)
}

// ChildItems lists items in a folder ordered by name. A non-empty name
// restricts the result to that exact name.
func (s *Store) ChildItems(ctx context.Context, folderID int64, name string) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE folder_id = ?`
	args := []any{folderID}
	if name != "" {
		query += ` AND name = ?`
		args = append(args, name)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY name, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("child items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ItemsWithSuffix lists items in a folder whose names end with suffix, ordered
// by name. The comparison is case-sensitive.
func (s *Store) ItemsWithSuffix(ctx context.Context, folderID int64, suffix string) ([]*Item, error) {
	if suffix == "" {
		return s.ChildItems(ctx, folderID, "")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
         WHERE folder_id = ? AND length(name) >= ? AND substr(name, ?) = ?
         ORDER BY name, id`,
		folderID, runeLen(suffix), -runeLen(suffix), suffix,
	)
	if err != nil {
		return nil, fmt.Errorf("items with suffix: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SQLite length/substr count characters, not bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
