package testsupport

import (
	"path/filepath"
	"testing"

	"miqa/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Import and export paths point inside the same temp tree.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.AssetstoreDir = filepath.Join(base, "assetstore")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Session.ImportPath = filepath.Join(base, "import.json")
	cfgVal.Session.ExportPath = filepath.Join(base, "export.csv")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithAdminToken sets the token required for admin-only routes.
func WithAdminToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.AdminToken = token
	}
}

// WithExportPath overrides the export destination.
func WithExportPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.ExportPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
