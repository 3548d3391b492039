package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/election-results/db/migrate"
	"github.com/joseph-ayodele/election-results/internal/export"
	"github.com/joseph-ayodele/election-results/internal/report"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write elections, results and corrupted races to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			counts, err := export.NewService(db.Repos(), a.detector, a.logger).WriteFile(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d elections, %d results, %d corrupted races\n",
				args[0], counts.Elections, counts.Results, counts.Corrupted)
			return err
		},
	}
}

func newOCRCmd(a *app) *cobra.Command {
	var (
		force bool
		dump  bool
	)
	cmd := &cobra.Command{
		Use:   "ocr <file>",
		Short: "OCR a scanned PDF and cache the transcript next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			x := a.extractor()
			start := time.Now()
			pages, err := x.OCR(ctx, args[0], force)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if dump {
				_, err = fmt.Fprintln(w, strings.Join(pages, "\f"))
				return err
			}
			chars := 0
			for _, p := range pages {
				chars += len(p)
			}
			_, err = fmt.Fprintf(w, "%d pages, %d characters in %s\ncache: %s\n",
				len(pages), chars, time.Since(start).Round(time.Millisecond), x.CachePath(args[0]))
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore a cached transcript")
	cmd.Flags().BoolVar(&dump, "print", false, "write the page text to stdout, pages separated by form feeds")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or extend the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// open migrates.
			if _, err := a.open(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.cfg.Database.Driver)
			return err
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Ping the database and print table row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := db.HealthCheck(ctx, timeout); err != nil {
				fmt.Fprintln(w, color.RedString("DB health: FAIL"))
				return err
			}
			fmt.Fprintln(w, color.GreenString("DB health: OK"))

			repos := db.Repos()
			counts, err := repos.Stats.TableCounts(ctx)
			if err != nil {
				return err
			}
			t := report.NewTable("TABLE", "ROWS")
			for _, name := range migrate.TableNames() {
				t.Add(nil, name, i64(counts[name]))
			}
			if err := t.Render(w); err != nil {
				return err
			}
			if err := repos.Stats.CheckIntegrity(ctx); err != nil {
				fmt.Fprintln(w, color.RedString("integrity: %v", err))
				return err
			}
			fmt.Fprintln(w, color.GreenString("integrity: OK"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "ping timeout")
	return cmd
}
