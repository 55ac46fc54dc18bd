package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	folderColumns = "id, name, parent_type, parent_id, base_parent_id, description, meta_json, creator, created_at, updated_at"
	itemColumns   = "id, name, folder_id, description, creator, created_at, updated_at"
	fileColumns   = "id, item_id, assetstore_id, name, path, size, mime_type, imported, created_at"
)

type rowScanner interface{ Scan(dest ...any) error }

func scanFolder(scanner rowScanner) (*Folder, error) {
	var (
		f           Folder
		parentType  string
		description sql.NullString
		metaJSON    sql.NullString
		creator     sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&f.ID, &f.Name, &parentType, &f.ParentID, &f.BaseParentID,
		&description, &metaJSON, &creator, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	f.ParentType = ParentType(parentType)
	f.Description = description.String
	f.Creator = creator.String
	meta, err := decodeMeta(metaJSON.String)
	if err != nil {
		return nil, fmt.Errorf("folder %d: %w", f.ID, err)
	}
	f.Meta = meta
	f.CreatedAt, _ = parseTimeString(createdRaw)
	f.UpdatedAt, _ = parseTimeString(updatedRaw)
	return &f, nil
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		it          Item
		description sql.NullString
		creator     sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&it.ID, &it.Name, &it.FolderID, &description, &creator, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	it.Description = description.String
	it.Creator = creator.String
	it.CreatedAt, _ = parseTimeString(createdRaw)
	it.UpdatedAt, _ = parseTimeString(updatedRaw)
	return &it, nil
}

func scanFile(scanner rowScanner) (*File, error) {
	var (
		f            File
		assetstoreID sql.NullInt64
		mimeType     sql.NullString
		imported     int
		createdRaw   string
	)
	if err := scanner.Scan(&f.ID, &f.ItemID, &assetstoreID, &f.Name, &f.Path, &f.Size, &mimeType, &imported, &createdRaw); err != nil {
		return nil, err
	}
	f.AssetstoreID = assetstoreID.Int64
	f.MimeType = mimeType.String
	f.Imported = imported != 0
	f.CreatedAt, _ = parseTimeString(createdRaw)
	return &f, nil
}

func decodeMeta(raw string) (map[string]any, error) {
	meta := map[string]any{}
	if raw == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

func encodeMeta(meta map[string]any) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// suffixedName produces the "name (n)" variant used when a sibling name is taken.
func suffixedName(name string, n int) string {
	if n <= 0 {
		return name
	}
	return fmt.Sprintf("%s (%d)", name, n)
}
