package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repair"
	"github.com/joseph-ayodele/election-results/internal/report"
)

func newReimportCmd(a *app) *cobra.Command {
	var (
		backup    bool
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "reimport <election-date> <file>",
		Short: "Delete one election and load it again from its source document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, path := args[0], args[1]
			if err := common.NewValidator().Field("election-date", date, common.ISODate).Err(); err != nil {
				return err
			}
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			if threshold <= 0 {
				threshold = a.cfg.Repair.RegressionThreshold
			}
			r := repair.NewRepairer(db, a.pages, parser.NewParser(a.logger), a.loader(db), a.locks, repair.Config{
				RegressionThreshold: threshold,
				BackupDir:           a.cfg.Repair.BackupDir,
				Classifier:          a.strict(),
			}, a.logger)

			rep, err := r.Reimport(ctx, date, path, repair.Options{Backup: backup})
			if err != nil {
				return err
			}
			if err := printReimport(cmd, rep); err != nil {
				return err
			}
			if rep.Status == constants.RepairFail {
				return fmt.Errorf("reimport of %s lost more than %.0f%% of results; data left in place", date, threshold*100)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the SQLite database before deleting anything")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "allowed drop in result count, as a fraction (default REPAIR_REGRESSION_THRESHOLD)")
	return cmd
}

func printReimport(cmd *cobra.Command, rep repair.Report) error {
	w := cmd.OutOrStdout()
	if rep.BackupPath != "" {
		fmt.Fprintf(w, "backup: %s\n", rep.BackupPath)
	}
	t := report.NewTable("", "RACES", "RESULTS", "TURNOUT", "TOTAL VOTES", "PRECINCTS")
	for _, row := range []struct {
		label string
		s     entity.ElectionStats
	}{{"before", rep.Before}, {"after", rep.After}} {
		t.Add(nil, row.label, i64(row.s.Races), i64(row.s.Results), i64(row.s.Turnout), i64(row.s.TotalVotes), i64(row.s.Precincts))
	}
	if err := t.Render(w); err != nil {
		return err
	}
	d := rep.Deleted
	fmt.Fprintf(w, "\ndeleted: results=%d races=%d turnout=%d data_quality=%d elections=%d import_log=%d\n",
		d.Results, d.Races, d.Turnout, d.Quality, d.Elections, d.ImportLogs)
	style := color.New(color.FgGreen, color.Bold)
	if rep.Status == constants.RepairFail {
		style = color.New(color.FgRed, color.Bold)
	}
	_, err := fmt.Fprintf(w, "parsed %d results; %s\n", rep.Parsed, style.Sprint(rep.Status))
	return err
}

func newReclassifyCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run the strict race-level classifier over races at level other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			rep, err := repair.Reclassify(ctx, db, a.strict(), a.detector, dryRun)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			t := report.NewTable("DATE", "RACE", "OLD", "NEW")
			for _, c := range rep.Changes {
				t.Add(nil, c.ElectionDate, c.RaceName, string(c.Old), string(c.New))
			}
			if err := t.Render(w); err != nil {
				return err
			}
			verb := "updated"
			if rep.DryRun {
				verb = "would update"
			}
			fmt.Fprintf(w, "\nexamined %d races; %s %d\n", rep.Examined, verb, len(rep.Changes))
			for _, l := range rep.Levels() {
				fmt.Fprintf(w, "  %-15s %d\n", l, rep.ByLevel[l])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}

func i64(n int64) string { return strconv.FormatInt(n, 10) }
