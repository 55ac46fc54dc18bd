package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"miqa/internal/daemonrun"
	"miqa/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the persisted import/export paths",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				values, err := c.Settings.All(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, values)
				}
				out := cmd.OutOrStdout()
				tbl := tableSpec{headers: []string{"Key", "Value"}, colorize: shouldColorize(out)}
				for _, key := range settings.Keys {
					tbl.rows = append(tbl.rows, []string{key, values[key]})
				}
				fmt.Fprint(out, tbl.render())
				return nil
			})
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "Output settings as JSON")

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting (miqa.import_path or miqa.export_path)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				if err := c.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
				return nil
			})
		},
	}

	settingsCmd.AddCommand(showCmd, setCmd)
	return settingsCmd
}
