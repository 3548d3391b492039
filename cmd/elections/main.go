package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/ocr"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/pipeline"
	"github.com/joseph-ayodele/election-results/internal/repository"
	"github.com/joseph-ayodele/election-results/internal/spreadsheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		printError(err)
		a.close()
		stop()
		os.Exit(common.ExitCode(err))
	}
	a.close()
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
}

// app carries what every subcommand shares. The database is opened lazily so
// commands such as ocr run without one.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	db       *repository.DB
	detector *corrupt.Detector
	locks    *pipeline.ElectionLocks

	dbURL     string
	dbDriver  string
	logFormat string
	verbose   bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "elections",
		Short:         "Ingest county election-results documents into a relational store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.dbURL, "db", "", "database DSN or SQLite path (overrides DB_URL)")
	root.PersistentFlags().StringVar(&a.dbDriver, "driver", "", "database driver: sqlite or postgres (overrides DB_DRIVER)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: json or text (overrides LOG_FORMAT)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newImportCmd(a),
		newImportDirCmd(a),
		newWatchCmd(a),
		newImportXLSXCmd(a),
		newReimportCmd(a),
		newReclassifyCmd(a),
		newAssessCmd(a),
		newValidateCmd(a),
		newCorruptedCmd(a),
		newRaceNamesCmd(a),
		newListCmd(a),
		newImportsCmd(a),
		newPrecinctShiftCmd(a),
		newExportCmd(a),
		newOCRCmd(a),
		newMigrateCmd(a),
		newHealthCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if a.dbURL != "" {
		cfg.Database.DSN = a.dbURL
	}
	if a.dbDriver != "" {
		cfg.Database.Driver = a.dbDriver
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log)
	slog.SetDefault(a.logger)

	a.detector, err = corrupt.NewDetector(cfg.Corruption.Signature)
	if err != nil {
		return common.ValidationError("invalid CORRUPTION_SIGNATURE", err)
	}
	a.locks = pipeline.NewElectionLocks()
	return nil
}

func newLogger(c common.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	// Tables go to stdout, so logs stay on stderr.
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// open connects and brings the schema up to date.
func (a *app) open(ctx context.Context) (*repository.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := repository.Open(ctx, repository.ConfigFrom(a.cfg.Database), a.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func (a *app) extractor() *ocr.Extractor {
	c := a.cfg.OCR
	return ocr.NewExtractor(ocr.Config{
		Pdftotext:       c.Pdftotext,
		Pdftoppm:        c.Pdftoppm,
		Tesseract:       c.Tesseract,
		Lang:            c.Lang,
		DPI:             c.DPI,
		PSM:             c.PSM,
		Parallelism:     c.Parallelism,
		Enabled:         c.Enabled,
		CacheDir:        c.CacheDir,
		MinCharsPerPage: c.MinCharsPerPage,
	}, a.logger)
}

// pages is the text source shared by reimport and validate.
func (a *app) pages(ctx context.Context, path string) ([]string, error) {
	res, err := a.extractor().Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Pages, nil
}

func (a *app) strict() classify.Classifier {
	towns := a.cfg.County.Towns
	if len(towns) == 0 {
		towns = classify.DefaultTowns
	}
	return classify.NewStrict(towns)
}

func (a *app) loader(db *repository.DB) *loader.Loader {
	return loader.NewLoader(db, a.cfg.County, a.logger)
}

// processor wires text extraction, parsing and loading for one database.
func (a *app) processor(db *repository.DB) *pipeline.Processor {
	l := a.loader(db)
	return pipeline.NewProcessor(a.logger,
		pipeline.NewOCRStage(a.extractor(), l, a.logger),
		pipeline.NewParseStage(parser.NewParser(a.logger), l, a.locks, a.logger),
		spreadsheet.NewReader(a.logger),
	)
}

// ignoreCanceled treats an interrupt as a clean stop for long-running commands.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
