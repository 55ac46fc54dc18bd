package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureCurrentAssetstore registers (or updates) the named assetstore and marks
// it as the only current one.
func (s *Store) EnsureCurrentAssetstore(ctx context.Context, name, kind, root string) (*Assetstore, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE assetstores SET current = 0 WHERE name <> ?`, name); err != nil {
			return fmt.Errorf("clear current assetstore: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assetstores (name, kind, root, current, created_at) VALUES (?, ?, ?, 1, ?)
             ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, root = excluded.root, current = 1`,
			name, kind, root, timestamp(),
		); err != nil {
			return fmt.Errorf("upsert assetstore: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.CurrentAssetstore(ctx)
}

// CurrentAssetstore returns the assetstore flagged as current, or nil.
func (s *Store) CurrentAssetstore(ctx context.Context) (*Assetstore, error) {
	var (
		a          Assetstore
		current    int
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, root, current, created_at FROM assetstores WHERE current = 1 LIMIT 1`,
	).Scan(&a.ID, &a.Name, &a.Kind, &a.Root, &current, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current assetstore: %w", err)
	}
	a.Current = current != 0
	a.CreatedAt, _ = parseTimeString(createdRaw)
	return &a, nil
}
