// Package loader writes a parsed document into the relational store, one
// transaction per document.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(*repository.Repositories) error) error
}

// Summary is the outcome of one document load.
type Summary struct {
	Status     constants.ImportStatus
	ElectionID int64
	Records    int
	Races      int
	Candidates int
	Precincts  int
}

// Options tune a single load.
type Options struct {
	FileType   string              // import_log file_type, default "pdf"
	Classifier classify.Classifier // default classify.Basic
}

type Loader struct {
	db     Transactor
	county entity.County
	logger *slog.Logger
}

func NewLoader(db Transactor, county common.CountyConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	c := entity.County{
		Name:     county.Name,
		State:    county.State,
		FIPSCode: county.FIPS,
		Website:  county.Website,
	}
	return &Loader{db: db, county: c, logger: logger}
}

// Load stores doc. An election that already exists for the county, date and
// type is left untouched and reported as skipped. Any error rolls the whole
// document back.
func (l *Loader) Load(ctx context.Context, doc *entity.ParsedDocument, opts Options) (Summary, error) {
	if err := checkDocument(doc); err != nil {
		return Summary{Status: constants.ImportStatusFailed}, err
	}
	start := time.Now()
	var sum Summary
	err := l.db.WithTx(ctx, func(repos *repository.Repositories) error {
		s, err := l.load(ctx, repos, doc, opts.withDefaults())
		sum = s
		return err
	})
	if err != nil {
		l.logger.Error("load failed", "source_file", doc.SourceFile, "election_date", doc.ElectionDate, "error", err)
		return Summary{Status: constants.ImportStatusFailed}, err
	}
	l.logLoaded(doc, sum, start)
	return sum, nil
}

// LoadWith stores doc through repositories bound to a transaction the caller
// owns, so a load can share one transaction with other writes.
func (l *Loader) LoadWith(ctx context.Context, repos *repository.Repositories, doc *entity.ParsedDocument, opts Options) (Summary, error) {
	if err := checkDocument(doc); err != nil {
		return Summary{Status: constants.ImportStatusFailed}, err
	}
	start := time.Now()
	sum, err := l.load(ctx, repos, doc, opts.withDefaults())
	if err != nil {
		return Summary{Status: constants.ImportStatusFailed}, err
	}
	l.logLoaded(doc, sum, start)
	return sum, nil
}

func checkDocument(doc *entity.ParsedDocument) error {
	if doc == nil {
		return common.NewAppError(common.CodeValidation, "nil document", common.ErrInvalidInput)
	}
	if doc.ElectionDate == "" || doc.ElectionDate == parser.UnknownDate {
		return common.NewAppError(common.CodeValidation,
			fmt.Sprintf("%s: no election date found", filepath.Base(doc.SourceFile)), common.ErrInvalidInput)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.FileType == "" {
		o.FileType = constants.FileTypePDF
	}
	if o.Classifier == nil {
		o.Classifier = classify.Basic
	}
	return o
}

func (l *Loader) logLoaded(doc *entity.ParsedDocument, sum Summary, start time.Time) {
	l.logger.Info("document loaded",
		"source_file", filepath.Base(doc.SourceFile),
		"election_date", doc.ElectionDate,
		"status", sum.Status,
		"records", sum.Records,
		"races", sum.Races,
		"precincts", sum.Precincts,
		"duration", time.Since(start),
	)
}

func (l *Loader) load(ctx context.Context, repos *repository.Repositories, doc *entity.ParsedDocument, opts Options) (Summary, error) {
	filename := filepath.Base(doc.SourceFile)
	countyID, err := repos.Counties.Ensure(ctx, l.county)
	if err != nil {
		return Summary{}, err
	}

	electionType := doc.ElectionType
	if electionType == "" {
		electionType = constants.ElectionOther
	}
	if existing, err := repos.Elections.Find(ctx, countyID, doc.ElectionDate, electionType); err == nil {
		l.logger.Info("election already loaded", "election_date", doc.ElectionDate, "election_id", existing.ID)
		return l.skipped(ctx, repos, existing.ID, filename, opts.FileType)
	} else if !errors.Is(err, common.ErrNotFound) {
		return Summary{}, err
	}

	name := doc.ElectionName
	if name == "" {
		name = fmt.Sprintf("%s %s", doc.ElectionDate, electionType)
	}
	electionID, err := repos.Elections.Create(ctx, entity.Election{
		CountyID:              countyID,
		Date:                  doc.ElectionDate,
		Type:                  electionType,
		Name:                  name,
		TotalRegisteredVoters: doc.TotalRegistered,
		TotalBallotsCast:      doc.TotalBallots,
		SourceFile:            filename,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// another worker won the insert
		var id int64
		if existing, ferr := repos.Elections.Find(ctx, countyID, doc.ElectionDate, electionType); ferr == nil {
			id = existing.ID
		}
		l.logger.Info("election loaded concurrently", "election_date", doc.ElectionDate, "election_id", id)
		return l.skipped(ctx, repos, id, filename, opts.FileType)
	}
	if err != nil {
		return Summary{}, err
	}

	st := &loadState{
		repos:      repos,
		countyID:   countyID,
		electionID: electionID,
		classifier: opts.Classifier,
		precincts:  make(map[string]int64),
		races:      make(map[string]int64),
		candidates: make(map[[2]string]int64),
		raceVotes:  make(map[string]map[string]int),
		turnout:    make(map[int64]bool),
	}

	for _, p := range doc.Precincts {
		id, err := st.precinct(ctx, p.Code, p.Name)
		if err != nil {
			return Summary{}, err
		}
		// a precinct repeated across sections keeps its first turnout row
		if p.RegisteredVoters == nil || st.turnout[id] {
			continue
		}
		st.turnout[id] = true
		if err := repos.Turnout.Insert(ctx, entity.Turnout{
			ElectionID:       electionID,
			PrecinctID:       &id,
			RegisteredVoters: p.RegisteredVoters,
			BallotsCast:      p.BallotsCast,
			TurnoutPct:       p.TurnoutPct,
		}); err != nil {
			return Summary{}, err
		}
	}

	records := 0
	for _, row := range doc.Results {
		if err := st.result(ctx, row); err != nil {
			return Summary{}, fmt.Errorf("%s / %s: %w", row.RaceName, row.CandidateName, err)
		}
		records++
	}
	if err := st.storeRaceTotals(ctx); err != nil {
		return Summary{}, err
	}

	status := constants.ImportStatusSuccess
	if records == 0 {
		status = constants.ImportStatusEmpty
		l.logger.Warn("document produced no results", "source_file", filename, "format", doc.Format)
	}
	notes := fmt.Sprintf("format=%s strategy=%s", doc.Format, doc.Strategy)
	if err := appendLog(ctx, repos, filename, opts.FileType, records, status, notes); err != nil {
		return Summary{}, err
	}

	return Summary{
		Status:     status,
		ElectionID: electionID,
		Records:    records,
		Races:      len(st.races),
		Candidates: len(st.candidates),
		Precincts:  len(st.precincts),
	}, nil
}

func (l *Loader) skipped(ctx context.Context, repos *repository.Repositories, electionID int64, filename, fileType string) (Summary, error) {
	if err := appendLog(ctx, repos, filename, fileType, 0, constants.ImportStatusSkipped, "election already loaded"); err != nil {
		return Summary{}, err
	}
	return Summary{Status: constants.ImportStatusSkipped, ElectionID: electionID}, nil
}

// RecordFailure appends a failed import_log row outside any load
// transaction, e.g. for documents without extractable text.
func (l *Loader) RecordFailure(ctx context.Context, sourceFile, fileType, notes string) error {
	if fileType == "" {
		fileType = constants.FileTypePDF
	}
	return l.db.WithTx(ctx, func(repos *repository.Repositories) error {
		return appendLog(ctx, repos, filepath.Base(sourceFile), fileType, 0, constants.ImportStatusFailed, notes)
	})
}

func appendLog(ctx context.Context, repos *repository.Repositories, filename, fileType string, records int, status constants.ImportStatus, notes string) error {
	hash, _ := common.ContentHashFromContext(ctx)
	_, err := repos.ImportLog.Append(ctx, entity.ImportLog{
		Filename:        filename,
		FileType:        fileType,
		RecordsImported: records,
		Status:          status,
		Notes:           notes,
		BatchID:         common.BatchIDFromContext(ctx),
		ContentHash:     hash,
	})
	return err
}
