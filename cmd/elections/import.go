package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/async"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/ingest"
	"github.com/joseph-ayodele/election-results/internal/pipeline"
	"github.com/joseph-ayodele/election-results/internal/report"
	"github.com/joseph-ayodele/election-results/internal/repository"
	"github.com/joseph-ayodele/election-results/internal/spreadsheet"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import one results document (pdf or xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			ctx = common.WithBatchID(ctx, ingest.NewBatchID())
			if hash, _, err := ingest.HashFile(args[0]); err == nil {
				ctx = common.WithContentHash(ctx, hash)
			}
			out, err := a.processor(db).ProcessFile(ctx, args[0])
			return printSingle(cmd, out, err)
		},
	}
}

// printSingle renders one outcome and the loader summary line.
func printSingle(cmd *cobra.Command, out pipeline.Outcome, err error) error {
	w := cmd.OutOrStdout()
	if rerr := report.Outcomes(w, []pipeline.Outcome{out}); rerr != nil {
		return rerr
	}
	if err != nil {
		return err
	}
	s := out.Summary
	_, err = fmt.Fprintf(w, "status=%s records=%d races=%d candidates=%d precincts=%d\n",
		report.StatusStyle(s.Status).Sprint(s.Status), s.Records, s.Races, s.Candidates, s.Precincts)
	return err
}

func newImportDirCmd(a *app) *cobra.Command {
	var (
		workers int
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "import-dir <dir>",
		Short: "Import every pdf and xlsx under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			uc := a.usecase(db, workers, force)
			outcomes, stats, err := uc.ImportDirectory(ctx, args[0])
			if err != nil && len(outcomes) == 0 {
				return err
			}
			a.logger.Info("directory scanned",
				"root", args[0], "scanned", stats.Scanned, "matched", stats.Matched, "duplicates", stats.Deduplicated)
			if rerr := report.Outcomes(cmd.OutOrStdout(), outcomes); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				if o.Status == constants.ImportStatusFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent imports (default INGEST_WORKERS)")
	cmd.Flags().BoolVar(&force, "force", false, "re-import files whose content was already imported")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Import documents as they are written into directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			if debounce <= 0 {
				debounce = a.cfg.Ingest.WatchDebounce
			}
			w := cmd.OutOrStdout()
			onResult := func(job async.Job, out pipeline.Outcome, err error) {
				line := fmt.Sprintf("%s  %s  %s  loaded=%d", out.File, out.Date, out.Status, out.Loaded())
				if err != nil {
					line += "  " + err.Error()
				}
				fmt.Fprintln(w, report.StatusStyle(out.Status).Sprint(line))
			}
			uc := a.usecase(db, 0, force)
			return ignoreCanceled(uc.Watch(ctx, args, debounce, onResult))
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a changed file is imported (default WATCH_DEBOUNCE)")
	cmd.Flags().BoolVar(&force, "force", false, "re-import files whose content was already imported")
	return cmd
}

func newImportXLSXCmd(a *app) *cobra.Command {
	var (
		date  string
		typ   string
		sheet string
	)
	cmd := &cobra.Command{
		Use:   "import-xlsx <file>",
		Short: "Import results from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if constants.MapExtToFileType(filepath.Ext(args[0])) != constants.FileTypeXLSX {
				return common.ValidationError(args[0]+" is not an .xlsx file", common.ErrInvalidInput)
			}
			if date != "" {
				if err := common.NewValidator().Field("--date", date, common.ISODate).Err(); err != nil {
					return err
				}
			}
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			proc := a.processor(db)
			proc.SheetOpts = spreadsheet.Options{Sheet: sheet, Date: date}
			if typ != "" {
				t, ok := constants.ParseElectionType(typ)
				if !ok {
					return common.ValidationError("unknown election type "+typ, common.ErrInvalidInput)
				}
				proc.SheetOpts.Type = t
			}
			ctx = common.WithBatchID(ctx, ingest.NewBatchID())
			out, err := proc.ProcessFile(ctx, args[0])
			return printSingle(cmd, out, err)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "election date YYYY-MM-DD (default: the sheet's date column)")
	cmd.Flags().StringVar(&typ, "type", "", "election type (general, primary, special, municipal, other)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	return cmd
}

func (a *app) usecase(db *repository.DB, workers int, force bool) *ingest.Usecase {
	if workers <= 0 {
		workers = a.cfg.Ingest.Workers
	}
	uc := ingest.NewUsecase(ingest.NewFSIngestor(db.Repos().ImportLog, a.logger), a.processor(db), a.logger)
	uc.Workers = workers
	uc.QueueSize = a.cfg.Ingest.QueueSize
	uc.Timeout = a.cfg.Ingest.ProcessTimeout
	uc.Force = force
	return uc
}
