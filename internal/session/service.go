package session

import (
	"log/slog"
	"time"

	"miqa/internal/assetstore"
	"miqa/internal/config"
	"miqa/internal/logging"
	"miqa/internal/settings"
	"miqa/internal/store"
)

// Scan folder metadata keys.
const (
	MetaExperimentID   = "experimentId"
	MetaExperimentNote = "experimentNote"
	MetaSite           = "site"
	MetaScanID         = "scanId"
	MetaScanType       = "scanType"
	MetaNote           = "note"
	MetaRating         = "rating"
)

// ManifestItemName names the item holding the raw manifest on the root.
const ManifestItemName = "json"

// archiveLayout formats the timestamp appended to archived roots.
const archiveLayout = "2006-01-02 03:04:05 PM"

// Service runs session operations against the document store.
type Service struct {
	store      *store.Store
	assets     *assetstore.Assetstore
	settings   *settings.Settings
	logger     *slog.Logger
	collection string
	rootFolder string
	suffix     string
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for archive names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a session service.
func New(cfg *config.Config, st *store.Store, assets *assetstore.Assetstore, set *settings.Settings, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:      st,
		assets:     assets,
		settings:   set,
		logger:     logging.NewComponentLogger(logger, "session"),
		collection: cfg.Session.Collection,
		rootFolder: cfg.Session.RootFolder,
		suffix:     cfg.Session.DatasetSuffix,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Settings exposes the settings the service reads paths from.
func (s *Service) Settings() *settings.Settings {
	return s.settings
}
