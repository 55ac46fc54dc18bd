package store

import (
	"errors"
	"time"
)

// ParentType distinguishes the two kinds of folder parents.
type ParentType string

const (
	ParentCollection ParentType = "collection"
	ParentFolder     ParentType = "folder"
)

// ErrNameConflict is returned when a rename collides with a sibling.
var ErrNameConflict = errors.New("name already used by a sibling")

// Collection is a top-level named grouping.
type Collection struct {
	ID        int64
	Name      string
	Creator   string
	CreatedAt time.Time
}

// Folder is a container nested under a collection or another folder.
type Folder struct {
	ID           int64
	Name         string
	ParentType   ParentType
	ParentID     int64
	BaseParentID int64
	Description  string
	Meta         map[string]any
	Creator      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MetaString returns a metadata value as a string; missing, nil and
// non-string values yield "".
func (f *Folder) MetaString(key string) string {
	if f == nil || f.Meta == nil {
		return ""
	}
	if s, ok := f.Meta[key].(string); ok {
		return s
	}
	return ""
}

// Item is a leaf entry inside a folder.
type Item struct {
	ID          int64
	Name        string
	FolderID    int64
	Description string
	Creator     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// File is a stored binary attached to an item.
type File struct {
	ID           int64
	ItemID       int64
	AssetstoreID int64
	Name         string
	Path         string
	Size         int64
	MimeType     string
	// Imported files reference bytes in place rather than a copy.
	Imported  bool
	CreatedAt time.Time
}

// Assetstore records a binary storage backend.
type Assetstore struct {
	ID        int64
	Name      string
	Kind      string
	Root      string
	Current   bool
	CreatedAt time.Time
}

// Site is an acquisition site referenced by imported scans.
type Site struct {
	Name      string
	Creator   string
	CreatedAt time.Time
}

// Stats summarises row counts across the tree.
type Stats struct {
	Collections int
	Folders     int
	Items       int
	Files       int
	Sites       int
}
