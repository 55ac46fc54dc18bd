package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ImportResult reports how many scans an import handled.
type ImportResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Experiment is an experiment folder with its scan sessions.
type Experiment struct {
	FolderID int64     `json:"folderId"`
	Name     string    `json:"name"`
	Sessions []Session `json:"sessions"`
}

// Session is a scan folder with its metadata and image datasets.
type Session struct {
	FolderID int64          `json:"folderId"`
	Name     string         `json:"name"`
	Meta     map[string]any `json:"meta"`
	Datasets []Dataset      `json:"datasets"`
}

// Dataset is an image item.
type Dataset struct {
	ID        int64  `json:"_id"`
	Name      string `json:"name"`
	FolderID  int64  `json:"folderId"`
	Creator   string `json:"creator,omitempty"`
	CreatedAt string `json:"created,omitempty"`
	Files     []File `json:"files"`
}

// File is a stored binary of a dataset.
type File struct {
	ID       int64  `json:"_id"`
	ItemID   int64  `json:"itemId"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
}

// Site is an acquisition site.
type Site struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created,omitempty"`
}

// SitesResponse wraps the registered sites.
type SitesResponse struct {
	Sites []Site `json:"sites"`
}

// ExportResult describes an export written on the server.
type ExportResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

// SettingsResponse carries setting values keyed by setting name.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}

// AnnotationRequest updates a scan's review state. Omitted fields are left
// unchanged; an empty string clears the value.
type AnnotationRequest struct {
	Rating *string `json:"rating,omitempty"`
	Note   *string `json:"note,omitempty"`
}

// ErrorResponse is the body of an error reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// StoreStats counts rows of the document store.
type StoreStats struct {
	Collections int `json:"collections"`
	Folders     int `json:"folders"`
	Items       int `json:"items"`
	Files       int `json:"files"`
	Sites       int `json:"sites"`
}

// Status aggregates daemon runtime information for API consumers.
type Status struct {
	Running      bool       `json:"running"`
	PID          int        `json:"pid"`
	StartedAt    string     `json:"startedAt,omitempty"`
	DatabasePath string     `json:"databasePath"`
	LockFilePath string     `json:"lockFilePath"`
	Healthy      bool       `json:"healthy"`
	Stats        StoreStats `json:"stats"`
}
