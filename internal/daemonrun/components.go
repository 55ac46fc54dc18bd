package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"miqa/internal/assetstore"
	"miqa/internal/config"
	"miqa/internal/session"
	"miqa/internal/settings"
	"miqa/internal/store"
)

// Components holds the wired services shared by the daemon and local CLI
// commands.
type Components struct {
	Store    *store.Store
	Assets   *assetstore.Assetstore
	Settings *settings.Settings
	Session  *session.Service
}

// Open opens the store and builds the session service on top of it. Callers
// own Close.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...session.Option) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	assets, err := assetstore.Open(ctx, st, cfg.Paths.AssetstoreDir, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open assetstore: %w", err)
	}
	set := settings.New(st, cfg)
	if err := set.Seed(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return &Components{
		Store:    st,
		Assets:   assets,
		Settings: set,
		Session:  session.New(cfg, st, assets, set, logger, opts...),
	}, nil
}

// Close releases the store.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
