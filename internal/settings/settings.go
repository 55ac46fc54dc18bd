// Package settings persists the server-side import and export locations.
//
// Values live in the store so they survive restarts and can be changed over
// the API. Config values only seed keys that have never been set. Paths are
// stored as entered and expanded when read.
package settings

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"miqa/internal/config"
	"miqa/internal/fileutil"
	"miqa/internal/services"
	"miqa/internal/store"
)

// Keys of the persisted settings.
const (
	ImportPathKey = "miqa.import_path"
	ExportPathKey = "miqa.export_path"
)

// Keys lists every known setting in display order.
var Keys = []string{ImportPathKey, ExportPathKey}

// Settings reads and writes miqa settings.
type Settings struct {
	store    *store.Store
	defaults map[string]string
}

// New returns settings backed by st with defaults taken from cfg.
func New(st *store.Store, cfg *config.Config) *Settings {
	return &Settings{
		store: st,
		defaults: map[string]string{
			ImportPathKey: cfg.Session.ImportPath,
			ExportPathKey: cfg.Session.ExportPath,
		},
	}
}

// Seed stores the config default of every key that has no value yet.
func (s *Settings) Seed(ctx context.Context) error {
	for _, key := range Keys {
		_, ok, err := s.store.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if ok || s.defaults[key] == "" {
			continue
		}
		if err := s.store.SetSetting(ctx, key, s.defaults[key]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the raw value of key, falling back to the config default.
func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", services.Wrap(services.ErrValidation, "settings", "get", fmt.Sprintf("unknown setting %q", key), nil)
	}
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return s.defaults[key], nil
	}
	return value, nil
}

// All returns the raw value of every known key.
func (s *Settings) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(Keys))
	for _, key := range Keys {
		value, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// Set validates and stores value under key. An export path must be writable.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	if !slices.Contains(Keys, key) {
		return services.Wrap(services.ErrValidation, "settings", "set", fmt.Sprintf("unknown setting %q", key), nil)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return services.Wrap(services.ErrValidation, "settings", "set", key+" must not be empty", nil)
	}
	if key == ExportPathKey {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return services.Wrap(services.ErrValidation, "settings", "set", "expand export path", err)
		}
		if !fileutil.Writable(expanded) {
			return services.Wrap(services.ErrValidation, "settings", "set",
				fmt.Sprintf("export path %s is not writable", expanded), nil)
		}
	}
	return s.store.SetSetting(ctx, key, value)
}

// ImportPath returns the expanded manifest location.
func (s *Settings) ImportPath(ctx context.Context) (string, error) {
	return s.expanded(ctx, ImportPathKey)
}

// ExportPath returns the expanded export destination.
func (s *Settings) ExportPath(ctx context.Context) (string, error) {
	return s.expanded(ctx, ExportPathKey)
}

func (s *Settings) expanded(ctx context.Context, key string) (string, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", services.Wrap(services.ErrConfiguration, "settings", "read", key+" is not set", nil)
	}
	path, err := config.ExpandPath(value)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "settings", "read", "expand "+key, err)
	}
	return path, nil
}
