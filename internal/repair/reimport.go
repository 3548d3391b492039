// Package repair deletes an election and reloads it from its source document,
// and re-runs race-level classification over stored races.
package repair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// Store is the database surface a repair needs.
type Store interface {
	WithTx(ctx context.Context, fn func(*repository.Repositories) error) error
	Repos() *repository.Repositories
	Backup(ctx context.Context, dir, label string) (string, error)
}

// TextSource returns the page texts of a source document.
type TextSource func(ctx context.Context, path string) ([]string, error)

// Locker serializes work on one election.
type Locker interface {
	Lock(key string) (unlock func())
}

// Config holds the tunables of a repair.
type Config struct {
	RegressionThreshold float64
	BackupDir           string
	Classifier          classify.Classifier
}

// Options select per-run behavior.
type Options struct {
	Backup bool
}

// DeleteCounts are the rows removed for one election.
type DeleteCounts struct {
	Results    int64
	Races      int64
	Turnout    int64
	Quality    int64
	Elections  int64
	ImportLogs int64
}

// Report describes one delete-and-reimport run.
type Report struct {
	ElectionDate string
	SourceFile   string
	BackupPath   string
	Parsed       int // result tuples in the reparsed document
	Before       entity.ElectionStats
	After        entity.ElectionStats
	Deleted      DeleteCounts
	Load         loader.Summary
	Status       constants.RepairStatus
}

type Repairer struct {
	store  Store
	text   TextSource
	parser *parser.Parser
	loader *loader.Loader
	locks  Locker
	cfg    Config
	logger *slog.Logger
}

func NewRepairer(store Store, text TextSource, p *parser.Parser, l *loader.Loader, locks Locker, cfg Config, logger *slog.Logger) *Repairer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RegressionThreshold <= 0 {
		cfg.RegressionThreshold = 0.10
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.NewStrict(classify.DefaultTowns)
	}
	return &Repairer{store: store, text: text, parser: p, loader: l, locks: locks, cfg: cfg, logger: logger}
}

// Reimport replaces the election held on date with a fresh load of path.
// The document is parsed before anything is deleted. Deletes and the reload
// share one transaction; a regression in result count is reported as FAIL
// but is not rolled back.
func (r *Repairer) Reimport(ctx context.Context, date, path string, opts Options) (Report, error) {
	rep := Report{ElectionDate: date, SourceFile: path}
	log := r.logger.With("election_date", date, "source_file", path)

	if r.locks != nil {
		unlock := r.locks.Lock(date)
		defer unlock()
	}

	if opts.Backup {
		backup, err := r.store.Backup(ctx, r.cfg.BackupDir, date)
		if err != nil {
			return rep, fmt.Errorf("backup: %w", err)
		}
		rep.BackupPath = backup
	}

	pages, err := r.text(ctx, path)
	if err != nil {
		return rep, fmt.Errorf("read %s: %w", path, err)
	}
	doc := r.parser.Parse(pages, path)
	rep.Parsed = len(doc.Results)
	if len(doc.Results) == 0 {
		return rep, common.ValidationError("reparse produced no results; database left unchanged", common.ErrInvalidInput)
	}
	if doc.ElectionDate != date {
		return rep, common.ValidationError(
			fmt.Sprintf("document is for %s, not %s; database left unchanged", doc.ElectionDate, date), common.ErrInvalidInput)
	}

	repos := r.store.Repos()
	existing, err := repos.Elections.GetByDate(ctx, date)
	switch {
	case err == nil:
		if rep.Before, err = repos.Stats.Snapshot(ctx, existing.ID); err != nil {
			return rep, err
		}
		log.Info("existing election", "races", rep.Before.Races, "results", rep.Before.Results, "precincts", rep.Before.Precincts)
	case errors.Is(err, common.ErrElectionNotFound):
		existing = nil
		log.Info("no existing data for election")
	default:
		return rep, err
	}

	err = r.store.WithTx(ctx, func(tx *repository.Repositories) error {
		if existing != nil {
			deleted, err := deleteElection(ctx, tx, existing)
			if err != nil {
				return err
			}
			rep.Deleted = deleted
		}
		sum, err := r.loader.LoadWith(ctx, tx, doc, loader.Options{
			FileType:   constants.FileTypePDFReimport,
			Classifier: r.cfg.Classifier,
		})
		rep.Load = sum
		return err
	})
	if err != nil {
		return rep, fmt.Errorf("reimport %s: %w", date, err)
	}

	if rep.Load.ElectionID != 0 {
		if rep.After, err = repos.Stats.Snapshot(ctx, rep.Load.ElectionID); err != nil {
			return rep, err
		}
	}
	rep.Status = Verdict(rep.Before.Results, rep.After.Results, r.cfg.RegressionThreshold)
	if rep.Status == constants.RepairFail {
		log.Warn("fewer results than before", "old", rep.Before.Results, "new", rep.After.Results)
	} else {
		log.Info("reimport complete", "old", rep.Before.Results, "new", rep.After.Results)
	}
	return rep, nil
}

// Verdict is FAIL when the new result count fell below (1-threshold) of the old.
func Verdict(oldResults, newResults int64, threshold float64) constants.RepairStatus {
	if float64(newResults) < (1-threshold)*float64(oldResults) {
		return constants.RepairFail
	}
	return constants.RepairPass
}

// deleteElection removes an election children first, checking referential
// integrity after every step.
func deleteElection(ctx context.Context, tx *repository.Repositories, e *entity.Election) (DeleteCounts, error) {
	var c DeleteCounts
	steps := []struct {
		name string
		run  func() (int64, error)
		into *int64
	}{
		{"results", func() (int64, error) { return tx.Results.DeleteByElection(ctx, e.ID) }, &c.Results},
		{"races", func() (int64, error) { return tx.Races.DeleteByElection(ctx, e.ID) }, &c.Races},
		{"turnout", func() (int64, error) { return tx.Turnout.DeleteByElection(ctx, e.ID) }, &c.Turnout},
		{"data_quality", func() (int64, error) { return tx.DataQuality.DeleteByElection(ctx, e.ID) }, &c.Quality},
		{"elections", func() (int64, error) { return tx.Elections.Delete(ctx, e.ID) }, &c.Elections},
		{"import_log", func() (int64, error) { return tx.ImportLog.DeleteMatching(ctx, e.Date[:4]) }, &c.ImportLogs},
	}
	for _, s := range steps {
		n, err := s.run()
		if err != nil {
			return c, fmt.Errorf("delete %s: %w", s.name, err)
		}
		*s.into = n
		if err := tx.Stats.CheckIntegrity(ctx); err != nil {
			return c, fmt.Errorf("after deleting %s: %w", s.name, err)
		}
	}
	return c, nil
}
