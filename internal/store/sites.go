package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// AddSites registers site names, ignoring blanks and names already known. It
// returns how many sites were new.
func (s *Store) AddSites(ctx context.Context, names []string, creator string) (int, error) {
	added := 0
	now := timestamp()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res, err := s.execWithRetry(ctx,
			`INSERT INTO sites (name, creator, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			name, nullableString(creator), now,
		)
		if err != nil {
			return added, fmt.Errorf("insert site %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

// Sites lists registered sites ordered by name.
func (s *Store) Sites(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, creator, created_at FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var sites []Site
	for rows.Next() {
		var (
			site       Site
			creator    sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&site.Name, &creator, &createdRaw); err != nil {
			return nil, err
		}
		site.Creator = creator.String
		site.CreatedAt, _ = parseTimeString(createdRaw)
		sites = append(sites, site)
	}
	return sites, rows.Err()
}
