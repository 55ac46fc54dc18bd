package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"miqa/internal/config"
	"miqa/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "Point session.import_path at your manifest (config dir: %s).\n", filepath.Dir(target))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration and the paths it points at",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderChecks(configChecks(cfg, path, exists), shouldColorize(out)))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// configChecks reports on the locations and credentials a config sets up.
// Import and export paths can still be changed later through settings, so
// problems with them are warnings.
func configChecks(cfg *config.Config, path string, exists bool) []check {
	file := check{name: "Config file", state: stateOK, detail: path}
	if !exists {
		file.state = stateWarn
		file.detail = path + " not found, defaults used"
	}

	manifest := check{name: "Import manifest", state: stateOK, detail: cfg.Session.ImportPath}
	if info, err := os.Stat(cfg.Session.ImportPath); err != nil || !info.Mode().IsRegular() {
		manifest.state = stateWarn
		manifest.detail = cfg.Session.ImportPath + " not found"
	}

	export := check{name: "Export path", state: stateOK, detail: cfg.Session.ExportPath}
	if !fileutil.Writable(cfg.Session.ExportPath) {
		export.state = stateWarn
		export.detail = cfg.Session.ExportPath + " not writable"
	}

	token := check{name: "API token", state: stateOK, detail: "set"}
	if cfg.Paths.APIToken == "" {
		token.state = stateWarn
		token.detail = "unset, API accepts unauthenticated requests"
	}
	admin := check{name: "Admin token", state: stateOK, detail: "set"}
	if cfg.Paths.AdminToken == "" {
		admin.detail = "unset, downloads use the API token"
	}

	return []check{
		file,
		{name: "API bind", state: stateOK, detail: cfg.Paths.APIBind},
		manifest,
		export,
		token,
		admin,
	}
}
