package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// FindCollection returns the collection with the given name, or nil.
func (s *Store) FindCollection(ctx context.Context, name string) (*Collection, error) {
	var (
		c          Collection
		creator    sql.NullString
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, creator, created_at FROM collections WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &creator, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	c.Creator = creator.String
	c.CreatedAt, _ = parseTimeString(createdRaw)
	return &c, nil
}

// EnsureCollection returns the named collection, creating it when absent.
func (s *Store) EnsureCollection(ctx context.Context, name, creator string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("collection name is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO collections (name, creator, created_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO NOTHING`,
		name, nullableString(creator), timestamp(),
	); err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return s.FindCollection(ctx, name)
}
