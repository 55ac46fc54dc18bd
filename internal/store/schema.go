package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped only for incompatible changes to the document
// tables. Additive changes go in migrations/.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by an incompatible
// build of miqa.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ensureSchema creates the document tables on an empty database, verifies
// the recorded version otherwise, then applies pending migrations.
func (s *Store) ensureSchema(ctx context.Context) error {
	version, found, err := s.recordedVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case !found:
		if err := s.createSchema(ctx); err != nil {
			return err
		}
	case version != schemaVersion:
		return fmt.Errorf("%w: %s has version %d, this build expects %d",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
	return s.applyMigrations(ctx)
}

func (s *Store) recordedVersion(ctx context.Context) (int, bool, error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables); err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create document tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}
