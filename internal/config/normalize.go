package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetstoreDir) == "" {
		c.Paths.AssetstoreDir = defaultAssetstoreDir
	}
	if c.Paths.AssetstoreDir, err = expandPath(c.Paths.AssetstoreDir); err != nil {
		return fmt.Errorf("paths.assetstore_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("MIQA_API_TOKEN"); ok {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("MIQA_ADMIN_TOKEN"); ok {
		c.Paths.AdminToken = strings.TrimSpace(value)
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Paths.AdminToken = strings.TrimSpace(c.Paths.AdminToken)
	return nil
}

// normalizeSession leaves import/export paths unexpanded: they are persisted
// as settings and expanded at the moment of use.
func (c *Config) normalizeSession() {
	c.Session.Collection = strings.TrimSpace(c.Session.Collection)
	if c.Session.Collection == "" {
		c.Session.Collection = defaultCollection
	}
	c.Session.RootFolder = strings.TrimSpace(c.Session.RootFolder)
	if c.Session.RootFolder == "" {
		c.Session.RootFolder = defaultRootFolder
	}
	c.Session.ImportPath = strings.TrimSpace(c.Session.ImportPath)
	c.Session.ExportPath = strings.TrimSpace(c.Session.ExportPath)
	if strings.TrimSpace(c.Session.DatasetSuffix) == "" {
		c.Session.DatasetSuffix = defaultDatasetSuffix
	}
	c.Session.DefaultUser = strings.TrimSpace(c.Session.DefaultUser)
	if c.Session.DefaultUser == "" {
		c.Session.DefaultUser = defaultUser
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
