package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"miqa/internal/api"
	"miqa/internal/config"
	"miqa/internal/daemonrun"
	"miqa/internal/session"
)

func newSessionCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newImportCommand(ctx),
		newExportCommand(ctx),
		newSessionsCommand(ctx),
		newSitesCommand(ctx),
		newAnnotateCommand(ctx),
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the configured manifest into a fresh session tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				if strings.TrimSpace(user) == "" {
					cfg, _ := ctx.ensureConfig()
					user = cfg.Session.DefaultUser
				}
				result, err := c.Session.Import(cmd.Context(), user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d scan(s), %d failed\n", result.Success, result.Failed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User recorded as creator (defaults to session.default_user)")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write decisions and notes for the current session tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				target := strings.TrimSpace(output)
				if target == "-" {
					format, err := session.ParseFormat(formatFlag, session.FormatCSV)
					if err != nil {
						return err
					}
					rows, err := c.Session.ExportRows(cmd.Context())
					if err != nil {
						return err
					}
					return session.WriteRows(cmd.OutOrStdout(), rows, format)
				}

				if target == "" {
					path, err := c.Settings.ExportPath(cmd.Context())
					if err != nil {
						return err
					}
					target = path
				} else {
					expanded, err := config.ExpandPath(target)
					if err != nil {
						return err
					}
					target = expanded
				}
				format, err := session.ParseFormat(formatFlag, session.FormatForPath(target))
				if err != nil {
					return err
				}
				summary, err := c.Session.ExportTo(cmd.Context(), target, format)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) as %s to %s\n", summary.Rows, summary.Format, summary.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file, or - for stdout (defaults to the export path setting)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: csv or json (defaults by file extension)")
	return cmd
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List experiments, scan sessions and their datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				tree, err := c.Session.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromExperiments(tree))
				}
				out := cmd.OutOrStdout()
				if len(tree) == 0 {
					fmt.Fprintln(out, "No sessions imported")
					return nil
				}
				fmt.Fprint(out, sessionsTable(tree, shouldColorize(out)).render())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the session tree as JSON")
	return cmd
}

func sessionsTable(tree []session.Experiment, colorize bool) tableSpec {
	tbl := tableSpec{
		headers:  []string{"Folder", "Experiment", "Session", "Site", "Rating", "Note", "Datasets"},
		aligns:   []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		colorize: colorize,
	}
	for _, exp := range tree {
		for _, sess := range exp.Sessions {
			folder := sess.Folder
			tbl.rows = append(tbl.rows, []string{
				strconv.FormatInt(folder.ID, 10),
				exp.Folder.Name,
				folder.Name,
				folder.MetaString(session.MetaSite),
				folder.MetaString(session.MetaRating),
				folder.MetaString(session.MetaNote),
				strconv.Itoa(len(sess.Datasets)),
			})
		}
	}
	return tbl
}

func newSitesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List registered acquisition sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				sites, err := c.Session.Sites(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.SitesResponse{Sites: api.FromSites(sites)})
				}
				out := cmd.OutOrStdout()
				if len(sites) == 0 {
					fmt.Fprintln(out, "No sites registered")
					return nil
				}
				tbl := tableSpec{headers: []string{"Site", "Registered"}, colorize: shouldColorize(out)}
				for _, site := range sites {
					tbl.rows = append(tbl.rows, []string{site.Name, api.FormatTime(site.CreatedAt)})
				}
				fmt.Fprint(out, tbl.render())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output sites as JSON")
	return cmd
}

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	var rating string
	var note string
	cmd := &cobra.Command{
		Use:   "annotate <folder-id>",
		Short: "Set the rating and/or note of a scan session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid folder id %q", args[0])
			}
			var update session.Annotation
			if cmd.Flags().Changed("rating") {
				update.Rating = &rating
			}
			if cmd.Flags().Changed("note") {
				update.Note = &note
			}
			return ctx.withComponents(cmd.Context(), func(c *daemonrun.Components) error {
				folder, err := c.Session.Annotate(cmd.Context(), id, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: rating=%q note=%q\n",
					folder.Name, folder.MetaString(session.MetaRating), folder.MetaString(session.MetaNote))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rating, "rating", "", "Rating: good, bad, questionable, usableExtra (empty clears)")
	cmd.Flags().StringVar(&note, "note", "", "Free-text note (empty clears)")
	return cmd
}
