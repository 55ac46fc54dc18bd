package store

import (
	"context"
	"fmt"
	"strings"
)

// Stats returns row counts for the main tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	targets := []struct {
		table string
		dest  *int
	}{
		{"collections", &st.Collections},
		{"folders", &st.Folders},
		{"items", &st.Items},
		{"files", &st.Files},
		{"sites", &st.Sites},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+t.table).Scan(t.dest); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", t.table, err)
		}
	}
	return st, nil
}

// CheckIntegrity runs SQLite's quick_check and reports whether it passed.
func (s *Store) CheckIntegrity(ctx context.Context) (bool, error) {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return false, fmt.Errorf("quick_check: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(result), "ok"), nil
}
