package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/analytics"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/quality"
	"github.com/joseph-ayodele/election-results/internal/report"
	"github.com/joseph-ayodele/election-results/internal/validate"
)

func newAssessCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "assess [election-date]",
		Short: "Score data quality for one election or, with --all, every election",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return common.ValidationError("give an election date or --all", common.ErrInvalidInput)
			}
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			overrides, err := quality.LoadOverrides(a.cfg.Quality.OverridesFile)
			if err != nil {
				return err
			}
			as := quality.NewAssessor(db.Repos(), a.detector, overrides, a.cfg.Quality.CrossValidatedSince, a.logger)

			var results []quality.Assessment
			if all {
				results, err = as.AssessAll(ctx)
			} else {
				var one quality.Assessment
				one, err = as.AssessDate(ctx, args[0])
				results = append(results, one)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t := report.NewTable("DATE", "ELECTION", "SCORE", "LEVEL", "SOURCE", "FLAGS")
			levels := make(map[constants.ConfidenceLevel]int)
			for _, r := range results {
				t.Add(report.LevelStyle(r.Level), r.ElectionDate, r.ElectionName,
					strconv.FormatFloat(r.Score, 'f', 3, 64), string(r.Level), string(r.SourceType),
					strings.Join(r.Flags(), " "))
				levels[r.Level]++
			}
			if err := t.Render(w); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "\n%d elections: %d high, %d medium, %d low\n", len(results),
				levels[constants.ConfidenceHigh], levels[constants.ConfidenceMedium], levels[constants.ConfidenceLow])
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "assess every stored election")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <election-date> <file>",
		Short: "Compare a stored election with the figures printed in its source document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			pages, err := a.pages(ctx, args[1])
			if err != nil {
				return err
			}
			rep, err := validate.NewCrossValidator(db.Repos(), a.detector, a.logger).Validate(ctx, args[0], pages, args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t := report.NewTable("FIGURE", "DATABASE", "DOCUMENT")
			t.Add(nil, "registered voters", i64(rep.DB.Registered), optInt(rep.Doc.Registered))
			t.Add(nil, "ballots cast", i64(rep.DB.Ballots), optInt(rep.Doc.Ballots))
			t.Add(nil, "precincts", i64(rep.DB.Precincts), optInt(rep.Doc.Precincts))
			t.Add(nil, "races", i64(rep.DB.Races), strconv.Itoa(len(rep.Doc.RaceNames)))
			t.Add(nil, "results", i64(rep.DB.Results), "")
			t.Add(nil, "total votes", i64(rep.DB.TotalVotes), "")
			t.Add(nil, "corrupted races", strconv.Itoa(rep.DB.CorruptedRaces), "")
			if err := t.Render(w); err != nil {
				return err
			}
			fmt.Fprintln(w)
			if rep.OK() {
				fmt.Fprintln(w, color.GreenString("no issues"))
				return nil
			}
			for _, issue := range rep.Issues {
				fmt.Fprintln(w, color.YellowString("- %s", issue))
			}
			return nil
		},
	}
}

func newCorruptedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "corrupted",
		Short: "List races whose names hold a vote row instead of an office",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			found, err := a.detector.Find(ctx, db.Repos().Races)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			t := report.NewTable("DATE", "RACE ID", "CANDIDATE", "PARTY", "TOTAL", "PCT", "NAME")
			for _, f := range found {
				if !f.Decodable {
					t.Add(nil, f.ElectionDate, i64(f.ID), "", "", "", "", f.Name)
					continue
				}
				d := f.Decoded
				t.Add(nil, f.ElectionDate, i64(f.ID), d.Candidate, d.Party,
					strconv.Itoa(d.Total), strconv.FormatFloat(d.Percent, 'f', 2, 64), f.Name)
			}
			if err := t.Render(w); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "\n%d corrupted races\n", len(found))
			return err
		},
	}
}

func newRaceNamesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "race-names",
		Short: "Report race names stored under more than one spelling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			groups, err := validate.AuditRaceNames(ctx, db.Repos().Races, a.detector)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			for _, g := range groups {
				bold.Fprintln(w, g.Key)
				for _, v := range g.Variants {
					fmt.Fprintf(w, "  %-60s %d elections\n", v.Name, v.Elections)
				}
			}
			_, err = fmt.Fprintf(w, "\n%d names with variants\n", len(groups))
			return err
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored elections with their confidence level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			repos := db.Repos()
			elections, err := repos.Elections.List(ctx)
			if err != nil {
				return err
			}
			dqs, err := repos.DataQuality.List(ctx)
			if err != nil {
				return err
			}
			byElection := make(map[int64]constants.ConfidenceLevel, len(dqs))
			for _, dq := range dqs {
				byElection[dq.ElectionID] = dq.Level
			}
			t := report.NewTable("DATE", "TYPE", "ELECTION", "REGISTERED", "BALLOTS", "CONFIDENCE", "SOURCE FILE")
			for _, e := range elections {
				level, ok := byElection[e.ID]
				style := report.LevelStyle(level)
				if !ok {
					style = nil
				}
				t.Add(style, e.Date, string(e.Type), e.Name, optInt(e.TotalRegisteredVoters),
					optInt(e.TotalBallotsCast), string(level), e.SourceFile)
			}
			return t.Render(cmd.OutOrStdout())
		},
	}
}

func newImportsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "Show the most recent import_log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			logs, err := db.Repos().ImportLog.List(ctx, limit)
			if err != nil {
				return err
			}
			t := report.NewTable("IMPORTED AT", "FILE", "TYPE", "RECORDS", "STATUS", "NOTES")
			for _, l := range logs {
				t.Add(report.StatusStyle(l.Status), l.ImportedAt.Local().Format("2006-01-02 15:04:05"),
					l.Filename, l.FileType, strconv.Itoa(l.RecordsImported), string(l.Status), l.Notes)
			}
			return t.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

func newPrecinctShiftCmd(a *app) *cobra.Command {
	var party string
	cmd := &cobra.Command{
		Use:   "precinct-shift <race> <date-a> <date-b>",
		Short: "Compare a party's precinct vote share in one race across two elections",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			totals, err := analytics.NewStore(db.Repos().Results, a.logger).PrecinctTotals(ctx, args[0])
			if err != nil {
				return err
			}
			p, _ := constants.CanonicalParty(party)
			shifts := analytics.Shifts(totals, args[1], args[2], p)
			t := report.NewTable("PRECINCT", args[1], args[2], "CHANGE", "VOTES A", "VOTES B")
			for _, s := range shifts {
				style := color.New(color.FgGreen)
				if s.Change < 0 {
					style = color.New(color.FgRed)
				}
				t.Add(style, s.Precinct, pct(s.ShareA), pct(s.ShareB),
					strconv.FormatFloat(s.Change, 'f', 1, 64), strconv.Itoa(s.VotesA), strconv.Itoa(s.VotesB))
			}
			return t.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&party, "party", constants.PartyRepublican, "party code (R, D, L, ...)")
	return cmd
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func pct(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) + "%" }
