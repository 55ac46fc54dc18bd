package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"miqa/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "miqa")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8080" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Session.Collection != "miqa" || cfg.Session.RootFolder != "sessions" {
		t.Fatalf("unexpected session names: %+v", cfg.Session)
	}
	if cfg.Session.ImportPath != "~/miqa/import.json" {
		t.Fatalf("expected import path kept verbatim, got %q", cfg.Session.ImportPath)
	}
	if cfg.Session.DatasetSuffix != ".nii.gz" {
		t.Fatalf("unexpected dataset suffix: %q", cfg.Session.DatasetSuffix)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "miqa.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.AssetstoreDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "miqa.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
			APIBind string `toml:"api_bind"`
		} `toml:"paths"`
		Session struct {
			ImportPath string `toml:"import_path"`
			RootFolder string `toml:"root_folder"`
		} `toml:"session"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Paths.APIBind = "0.0.0.0:9000"
	custom.Session.ImportPath = "/srv/import.json"
	custom.Session.RootFolder = "review"
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("unexpected api bind %q", cfg.Paths.APIBind)
	}
	if cfg.Session.ImportPath != "/srv/import.json" {
		t.Fatalf("unexpected import path %q", cfg.Session.ImportPath)
	}
	if cfg.Session.RootFolder != "review" {
		t.Fatalf("unexpected root folder %q", cfg.Session.RootFolder)
	}
	if cfg.Session.ExportPath != config.Default().Session.ExportPath {
		t.Fatalf("expected default export path, got %q", cfg.Session.ExportPath)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestEnvVarOverridesTokens(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "miqa.toml")
	content := "[paths]\napi_token = \"from-file\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MIQA_API_TOKEN", " from-env ")
	t.Setenv("MIQA_ADMIN_TOKEN", "admin-env")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "from-env" {
		t.Fatalf("expected env api token, got %q", cfg.Paths.APIToken)
	}
	if cfg.Paths.AdminToken != "admin-env" {
		t.Fatalf("expected env admin token, got %q", cfg.Paths.AdminToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"bind", func(c *config.Config) { c.Paths.APIBind = "nope" }, "paths.api_bind"},
		{"root folder", func(c *config.Config) { c.Session.RootFolder = "a/b" }, "session.root_folder"},
		{"import", func(c *config.Config) { c.Session.ImportPath = "" }, "session.import_path"},
		{"export", func(c *config.Config) { c.Session.ExportPath = "" }, "session.export_path"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Session.Collection != "miqa" {
		t.Fatalf("unexpected collection %q", cfg.Session.Collection)
	}
}
