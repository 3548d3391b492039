// Package validate compares stored elections with their source documents and
// audits race-name spellings. Nothing here writes to the database.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// countTolerance is the largest registered/ballot difference not reported.
const countTolerance = 10

// DBStats are the stored figures of one election.
type DBStats struct {
	Races          int64
	Results        int64
	TotalVotes     int64
	Precincts      int64 // distinct precincts with turnout rows
	Registered     int64
	Ballots        int64
	CorruptedRaces int
}

// DocStats are the figures read from the source document.
type DocStats struct {
	Registered *int
	Ballots    *int
	Precincts  *int
	RaceNames  []string
}

// Report is the outcome of one cross-validation.
type Report struct {
	ElectionDate string
	SourceFile   string
	DB           DBStats
	Doc          DocStats
	Issues       []string
}

// OK reports whether no issue was found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

type CrossValidator struct {
	repos    *repository.Repositories
	detector *corrupt.Detector
	logger   *slog.Logger
}

func NewCrossValidator(repos *repository.Repositories, detector *corrupt.Detector, logger *slog.Logger) *CrossValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = corrupt.MustDetector("")
	}
	return &CrossValidator{repos: repos, detector: detector, logger: logger}
}

// Validate compares the election held on date with the document pages.
func (v *CrossValidator) Validate(ctx context.Context, date string, pages []string, sourceFile string) (Report, error) {
	rep := Report{ElectionDate: date, SourceFile: sourceFile}

	e, err := v.repos.Elections.GetByDate(ctx, date)
	if err != nil {
		return rep, err
	}
	snap, err := v.repos.Stats.Snapshot(ctx, e.ID)
	if err != nil {
		return rep, err
	}
	turnout, err := v.repos.Turnout.Totals(ctx, e.ID)
	if err != nil {
		return rep, err
	}
	races, err := v.repos.Races.ListByElection(ctx, e.ID)
	if err != nil {
		return rep, err
	}
	corrupted := 0
	for _, r := range races {
		if v.detector.IsCorrupted(r.Name, r.Level) {
			corrupted++
		}
	}
	rep.DB = DBStats{
		Races:          snap.Races,
		Results:        snap.Results,
		TotalVotes:     snap.TotalVotes,
		Precincts:      turnout.Precincts,
		Registered:     turnout.Registered,
		Ballots:        turnout.Ballots,
		CorruptedRaces: corrupted,
	}

	if len(pages) > 0 {
		totals := parser.FirstPageTotals(pages[0])
		rep.Doc.Registered = totals.RegisteredVoters
		rep.Doc.Ballots = totals.BallotsCast
		rep.Doc.Precincts = totals.Precincts
	}
	rep.Doc.RaceNames = parser.RaceNames(strings.Join(pages, "\n"))

	rep.Issues = compare(rep.DB, rep.Doc)
	v.logger.Info("cross-validated election",
		"election_date", date,
		"source_file", sourceFile,
		"issues", len(rep.Issues),
	)
	return rep, nil
}

func compare(db DBStats, doc DocStats) []string {
	var issues []string
	if doc.Registered != nil && db.Registered != 0 && absDiff(int64(*doc.Registered), db.Registered) > countTolerance {
		issues = append(issues, fmt.Sprintf("Registered voters mismatch: PDF=%d, DB=%d", *doc.Registered, db.Registered))
	}
	if doc.Ballots != nil && db.Ballots != 0 && absDiff(int64(*doc.Ballots), db.Ballots) > countTolerance {
		issues = append(issues, fmt.Sprintf("Ballots cast mismatch: PDF=%d, DB=%d", *doc.Ballots, db.Ballots))
	}
	if doc.Precincts != nil && int64(*doc.Precincts) != db.Precincts {
		issues = append(issues, fmt.Sprintf("Precinct count mismatch: PDF=%d, DB=%d", *doc.Precincts, db.Precincts))
	}
	if db.CorruptedRaces > 0 {
		issues = append(issues, fmt.Sprintf("%d races have vote data in race_name (parsing failure)", db.CorruptedRaces))
	}
	return issues
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
