package quality

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

const (
	minPrecincts           = 15
	minAggregateResults    = 100
	turnoutToleranceFactor = 0.10
)

// Assessment is one stored data_quality row plus the details behind it.
type Assessment struct {
	entity.DataQuality
	ElectionName      string
	CorruptedRaces    int
	PrecinctsWithData int64
	TurnoutDetail     string
}

// Flags lists the failing signals, for reports of non-high elections.
func (a Assessment) Flags() []string {
	var flags []string
	if !a.RaceNamesClean {
		flags = append(flags, fmt.Sprintf("corrupted_races=%d", a.CorruptedRaces))
	}
	if !a.TurnoutConsistent {
		flags = append(flags, "turnout_mismatch")
	}
	if !a.CrossValidated {
		flags = append(flags, "not_cross_validated")
	}
	if !a.PrecinctCountMatch {
		flags = append(flags, fmt.Sprintf("precincts=%d", a.PrecinctsWithData))
	}
	return flags
}

// Assessor computes and stores assessments.
type Assessor struct {
	repos               *repository.Repositories
	detector            *corrupt.Detector
	overrides           Overrides
	crossValidatedSince int
	logger              *slog.Logger
}

func NewAssessor(repos *repository.Repositories, detector *corrupt.Detector, overrides Overrides, crossValidatedSince int, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = corrupt.MustDetector("")
	}
	if overrides == nil {
		overrides = Overrides{}
	}
	if crossValidatedSince == 0 {
		crossValidatedSince = 2016
	}
	return &Assessor{
		repos:               repos,
		detector:            detector,
		overrides:           overrides,
		crossValidatedSince: crossValidatedSince,
		logger:              logger,
	}
}

// AssessDate assesses the election held on date.
func (a *Assessor) AssessDate(ctx context.Context, date string) (Assessment, error) {
	e, err := a.repos.Elections.GetByDate(ctx, date)
	if err != nil {
		return Assessment{}, err
	}
	return a.assess(ctx, e)
}

// Assess assesses one election by id.
func (a *Assessor) Assess(ctx context.Context, electionID int64) (Assessment, error) {
	e, err := a.repos.Elections.Get(ctx, electionID)
	if err != nil {
		return Assessment{}, err
	}
	return a.assess(ctx, e)
}

// AssessAll assesses every election, oldest first.
func (a *Assessor) AssessAll(ctx context.Context) ([]Assessment, error) {
	elections, err := a.repos.Elections.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Assessment, 0, len(elections))
	for i := range elections {
		as, err := a.assess(ctx, &elections[i])
		if err != nil {
			return out, fmt.Errorf("assess %s: %w", elections[i].Date, err)
		}
		out = append(out, as)
	}
	return out, nil
}

func (a *Assessor) assess(ctx context.Context, e *entity.Election) (Assessment, error) {
	override, hasOverride := a.overrides[e.Date]

	fileType := ""
	if e.SourceFile != "" {
		ft, err := a.repos.ImportLog.LatestFileType(ctx, e.SourceFile)
		if err != nil {
			return Assessment{}, err
		}
		fileType = ft
	}
	source := DetectSource(override.SourceType, fileType, e.SourceFile)

	corrupted, err := a.corruptedRaces(ctx, e.ID)
	if err != nil {
		return Assessment{}, err
	}
	turnout, err := a.repos.Turnout.Totals(ctx, e.ID)
	if err != nil {
		return Assessment{}, err
	}
	counts, err := a.repos.Stats.ResultCounts(ctx, e.ID)
	if err != nil {
		return Assessment{}, err
	}

	turnoutOK, turnoutDetail := TurnoutConsistent(turnout.Ballots, headerBallots(e))
	precinctCount := max(turnout.Precincts, counts.Precincts)
	crossValidated := e.Year() >= a.crossValidatedSince && source == constants.SourceDigitalPDF
	if hasOverride && override.CrossValidated != nil {
		crossValidated = *override.CrossValidated
	}

	sig := Signals{
		SourceType:         source,
		RaceNamesClean:     corrupted == 0,
		TurnoutConsistent:  turnoutOK,
		PrecinctCountMatch: PrecinctCountPlausible(precinctCount, counts.Results),
		CrossValidated:     crossValidated,
	}
	score, level := Score(sig)

	var notes []string
	if hasOverride && override.Notes != "" {
		notes = append(notes, override.Notes)
	}
	if corrupted > 0 {
		notes = append(notes, fmt.Sprintf("%d corrupted race names detected.", corrupted))
	}
	notes = append(notes, fmt.Sprintf("Precincts with data: %d.", precinctCount), turnoutDetail+".")

	as := Assessment{
		DataQuality: entity.DataQuality{
			ElectionID:         e.ID,
			ElectionDate:       e.Date,
			Level:              level,
			Score:              score,
			SourceType:         source,
			RaceNamesClean:     sig.RaceNamesClean,
			TurnoutConsistent:  sig.TurnoutConsistent,
			PrecinctCountMatch: sig.PrecinctCountMatch,
			CrossValidated:     sig.CrossValidated,
			PDFParsedOK:        source != constants.SourceScannedPDF && corrupted == 0,
			Notes:              strings.Join(notes, " "),
		},
		ElectionName:      e.Name,
		CorruptedRaces:    corrupted,
		PrecinctsWithData: precinctCount,
		TurnoutDetail:     turnoutDetail,
	}
	if err := a.repos.DataQuality.Upsert(ctx, as.DataQuality); err != nil {
		return as, err
	}
	a.logger.Info("election assessed",
		"election_date", e.Date,
		"score", score,
		"level", level,
		"source_type", source,
	)
	return as, nil
}

func (a *Assessor) corruptedRaces(ctx context.Context, electionID int64) (int, error) {
	races, err := a.repos.Races.ListByElection(ctx, electionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range races {
		if a.detector.IsCorrupted(r.Name, r.Level) {
			n++
		}
	}
	return n, nil
}

func headerBallots(e *entity.Election) int64 {
	if e.TotalBallotsCast == nil {
		return 0
	}
	return int64(*e.TotalBallotsCast)
}

// DetectSource picks the source type: override, then the latest import_log
// file type, then the file extension, then manual entry.
func DetectSource(override constants.SourceType, importFileType, sourceFile string) constants.SourceType {
	if override != "" {
		return override
	}
	switch importFileType {
	case constants.FileTypePDFReimport, constants.FileTypePDF:
		return constants.SourceDigitalPDF
	case constants.FileTypeXLSX:
		return constants.SourceExcel
	}
	switch constants.MapExtToFileType(filepath.Ext(sourceFile)) {
	case constants.FileTypePDF:
		return constants.SourceDigitalPDF
	case constants.FileTypeXLSX:
		return constants.SourceExcel
	}
	return constants.SourceManualEntry
}

// TurnoutConsistent compares summed precinct ballots with the header total.
func TurnoutConsistent(precinctBallots, headerBallots int64) (bool, string) {
	switch {
	case precinctBallots == 0 && headerBallots == 0:
		return false, "No turnout data available"
	case precinctBallots > 0 && headerBallots > 0:
		ratio := float64(precinctBallots) / float64(headerBallots)
		if ratio >= 1-turnoutToleranceFactor && ratio <= 1+turnoutToleranceFactor {
			return true, fmt.Sprintf("Turnout %d vs header %d (ratio %.2f)", precinctBallots, headerBallots, ratio)
		}
		return false, fmt.Sprintf("Mismatch: turnout %d vs header %d (ratio %.2f)", precinctBallots, headerBallots, ratio)
	case precinctBallots > 0:
		return true, fmt.Sprintf("Turnout data present (%d ballots), no header total", precinctBallots)
	default:
		return false, fmt.Sprintf("No precinct turnout data; header says %d", headerBallots)
	}
}

// PrecinctCountPlausible accepts a full precinct breakdown or a single
// county-wide aggregate that carries many results.
func PrecinctCountPlausible(precincts, results int64) bool {
	return precincts >= minPrecincts || (precincts >= 1 && results >= minAggregateResults)
}
