package config

const (
	defaultConfigPath    = "~/.config/miqa/config.toml"
	defaultDataDir       = "~/.local/share/miqa"
	defaultLogDir        = "~/.local/share/miqa/logs"
	defaultAssetstoreDir = "~/.local/share/miqa/assetstore"
	defaultAPIBind       = "127.0.0.1:8080"
	defaultCollection    = "miqa"
	defaultRootFolder    = "sessions"
	defaultImportPath    = "~/miqa/import.json"
	defaultExportPath    = "~/miqa/export.csv"
	defaultDatasetSuffix = ".nii.gz"
	defaultUser          = "admin"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 50
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			AssetstoreDir: defaultAssetstoreDir,
			APIBind:       defaultAPIBind,
		},
		Session: Session{
			Collection:    defaultCollection,
			RootFolder:    defaultRootFolder,
			ImportPath:    defaultImportPath,
			ExportPath:    defaultExportPath,
			DatasetSuffix: defaultDatasetSuffix,
			DefaultUser:   defaultUser,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
