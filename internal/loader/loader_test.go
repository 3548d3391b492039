package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDB(t *testing.T) *repository.DB {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{Driver: common.DriverSQLite, DSN: ":memory:"}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func parseFixture(t *testing.T, name string) *entity.ParsedDocument {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return parser.NewParser(quietLogger()).Parse([]string{string(b)}, "/data/2024-General.pdf")
}

var testCounty = common.CountyConfig{Name: "Boone", State: "IN", FIPS: "18011"}

func TestLoad_FormatA(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := common.WithBatchID(context.Background(), "batch-1")
	ctx = common.WithContentHash(ctx, "feed")

	sum, err := l.Load(ctx, parseFixture(t, "format_a.txt"), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Summary{Status: constants.ImportStatusSuccess, ElectionID: sum.ElectionID, Records: 4, Races: 2, Candidates: 4, Precincts: 2}
	if sum != want {
		t.Errorf("Load() = %+v, want %+v", sum, want)
	}

	repos := db.Repos()
	races, err := repos.Races.ListByElection(ctx, sum.ElectionID)
	if err != nil {
		t.Fatal(err)
	}
	levels := map[string]constants.RaceLevel{}
	for _, r := range races {
		levels[r.Name] = r.Level
		if r.Name == "United States Senator" && (r.TotalVotes == nil || *r.TotalVotes != 600) {
			t.Errorf("senator total_votes = %v, want 600", r.TotalVotes)
		}
	}
	if levels["United States Senator"] != constants.LevelFederal {
		t.Errorf("senator level = %q", levels["United States Senator"])
	}
	if levels[constants.StraightPartyRace] != constants.LevelBallotMeasure {
		t.Errorf("straight party level = %q", levels[constants.StraightPartyRace])
	}

	totals, err := repos.Turnout.Totals(ctx, sum.ElectionID)
	if err != nil {
		t.Fatal(err)
	}
	if totals != (repository.TurnoutTotals{Registered: 1900, Ballots: 1140, Precincts: 2}) {
		t.Errorf("turnout totals = %+v", totals)
	}

	logs, err := repos.ImportLog.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("import_log rows = %d", len(logs))
	}
	got := logs[0]
	if got.Filename != "2024-General.pdf" || got.FileType != constants.FileTypePDF || got.RecordsImported != 4 ||
		got.BatchID != "batch-1" || got.ContentHash != "feed" {
		t.Errorf("import_log = %+v", got)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := context.Background()
	doc := parseFixture(t, "format_a.txt")

	first, err := l.Load(ctx, doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	before, err := db.Repos().Stats.Snapshot(ctx, first.ElectionID)
	if err != nil {
		t.Fatal(err)
	}

	second, err := l.Load(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.Status != constants.ImportStatusSkipped || second.Records != 0 {
		t.Errorf("second Load() = %+v, want skipped with 0 records", second)
	}
	after, _ := db.Repos().Stats.Snapshot(ctx, first.ElectionID)
	if before != after {
		t.Errorf("snapshot changed: %+v -> %+v", before, after)
	}
	counts, _ := db.Repos().Stats.TableCounts(ctx)
	if counts["elections"] != 1 || counts["candidates"] != 4 || counts["precincts"] != 2 {
		t.Errorf("table counts = %v", counts)
	}
}

func TestLoad_RepeatedPrecinctTurnout(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := context.Background()
	ip := func(v int) *int { return &v }

	doc := &entity.ParsedDocument{
		SourceFile:   "2022-General.pdf",
		Format:       constants.FormatA,
		ElectionDate: "2022-11-08",
		ElectionType: constants.ElectionGeneral,
		HasPrecincts: true,
		Precincts: []entity.PrecinctInfo{
			{Code: "01", Name: "Center 1", RegisteredVoters: ip(1000), BallotsCast: ip(600)},
			{Code: "02", Name: "Center 2", RegisteredVoters: ip(900), BallotsCast: ip(540)},
			{Code: "01", Name: "Center 1", RegisteredVoters: ip(1000), BallotsCast: ip(600)},
		},
		Results: []entity.ResultRow{
			{PrecinctCode: "01", PrecinctName: "Center 1", RaceName: "Sheriff", VoteFor: 1, CandidateName: "A", Votes: 300},
			{PrecinctCode: "02", PrecinctName: "Center 2", RaceName: "Sheriff", VoteFor: 1, CandidateName: "A", Votes: 250},
		},
	}
	sum, err := l.Load(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sum.Precincts != 2 {
		t.Errorf("precincts = %d, want 2", sum.Precincts)
	}
	counts, _ := db.Repos().Stats.TableCounts(ctx)
	if counts["turnout"] != 2 {
		t.Errorf("turnout rows = %d, want 2", counts["turnout"])
	}
	totals, err := db.Repos().Turnout.Totals(ctx, sum.ElectionID)
	if err != nil {
		t.Fatal(err)
	}
	if totals != (repository.TurnoutTotals{Registered: 1900, Ballots: 1140, Precincts: 2}) {
		t.Errorf("turnout totals = %+v", totals)
	}

	// the schema refuses a second row for the same election and precinct
	election, err := db.Repos().Elections.Get(ctx, sum.ElectionID)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := db.Repos().Precincts.Ensure(ctx, entity.Precinct{CountyID: election.CountyID, Name: "Center 1", Code: "01"})
	if err != nil {
		t.Fatal(err)
	}
	dup := entity.Turnout{ElectionID: sum.ElectionID, PrecinctID: &pid, RegisteredVoters: ip(1)}
	if err := db.Repos().Turnout.Insert(ctx, dup); err == nil {
		t.Error("duplicate turnout row accepted")
	}
}

// staleElections misses on the first Find, as a worker does when another one
// commits the same election between its lookup and its insert.
type staleElections struct {
	repository.ElectionRepository
	missed bool
}

func (s *staleElections) Find(ctx context.Context, countyID int64, date string, typ constants.ElectionType) (*entity.Election, error) {
	if !s.missed {
		s.missed = true
		return nil, common.NotFoundErrorf("election %s", date)
	}
	return s.ElectionRepository.Find(ctx, countyID, date, typ)
}

func TestLoad_LostInsertRaceIsSkipped(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := context.Background()
	doc := parseFixture(t, "format_a.txt")

	first, err := l.Load(ctx, doc, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var sum Summary
	err = db.WithTx(ctx, func(repos *repository.Repositories) error {
		repos.Elections = &staleElections{ElectionRepository: repos.Elections}
		var lerr error
		sum, lerr = l.LoadWith(ctx, repos, doc, Options{})
		return lerr
	})
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}
	if sum.Status != constants.ImportStatusSkipped || sum.ElectionID != first.ElectionID {
		t.Errorf("LoadWith() = %+v, want skipped election %d", sum, first.ElectionID)
	}
	logs, _ := db.Repos().ImportLog.List(ctx, 5)
	if len(logs) != 2 || logs[0].Status != constants.ImportStatusSkipped {
		t.Errorf("import_log = %+v", logs)
	}
}

func TestLoad_CountyWideAndEmpty(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := context.Background()
	votes := 900

	doc := &entity.ParsedDocument{
		SourceFile:   "2017-Municipal.pdf",
		Format:       constants.FormatD,
		ElectionDate: "2017-05-02",
		ElectionType: constants.ElectionMunicipal,
		Results: []entity.ResultRow{
			{RaceName: "Mayor of Lebanon", VoteFor: 1, RaceVotes: &votes, CandidateName: "A", Votes: 500},
			{RaceName: "Mayor of Lebanon", VoteFor: 1, RaceVotes: &votes, CandidateName: "B", Votes: 400},
		},
	}
	sum, err := l.Load(ctx, doc, Options{Classifier: classify.NewStrict(classify.DefaultTowns), FileType: constants.FileTypePDFReimport})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Precincts != 0 || sum.Records != 2 {
		t.Errorf("summary = %+v", sum)
	}
	races, _ := db.Repos().Races.ListByElection(ctx, sum.ElectionID)
	if len(races) != 1 || races[0].Level != constants.LevelLocal || races[0].TotalVotes == nil || *races[0].TotalVotes != 900 {
		t.Errorf("races = %+v", races)
	}
	results, _ := db.Repos().Results.List(ctx, "mayor")
	for _, r := range results {
		if r.PrecinctName != "" {
			t.Errorf("county-wide row has precinct %q", r.PrecinctName)
		}
	}
	if ft, _ := db.Repos().ImportLog.LatestFileType(ctx, "2017-Municipal.pdf"); ft != constants.FileTypePDFReimport {
		t.Errorf("file type = %q", ft)
	}

	empty := &entity.ParsedDocument{SourceFile: "blank.pdf", ElectionDate: "2018-05-08", ElectionType: constants.ElectionPrimary}
	sum, err = l.Load(ctx, empty, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Status != constants.ImportStatusEmpty {
		t.Errorf("status = %q, want empty", sum.Status)
	}
}

func TestLoad_Errors(t *testing.T) {
	db := openDB(t)
	l := NewLoader(db, testCounty, quietLogger())
	ctx := context.Background()

	for _, date := range []string{"", parser.UnknownDate} {
		sum, err := l.Load(ctx, &entity.ParsedDocument{SourceFile: "x.pdf", ElectionDate: date}, Options{})
		if common.ExitCode(err) != 2 {
			t.Errorf("date %q: error = %v", date, err)
		}
		if sum.Status != constants.ImportStatusFailed {
			t.Errorf("date %q: status = %q, want failed", date, sum.Status)
		}
	}
	if sum, _ := l.Load(ctx, nil, Options{}); sum.Status != constants.ImportStatusFailed {
		t.Errorf("nil document: status = %q, want failed", sum.Status)
	}

	// a negative count violates the results check and rolls everything back
	bad := &entity.ParsedDocument{
		SourceFile:   "bad.pdf",
		ElectionDate: "2019-11-05",
		ElectionType: constants.ElectionMunicipal,
		Results:      []entity.ResultRow{{RaceName: "Town Council", CandidateName: "X", Votes: -1}},
	}
	sum, err := l.Load(ctx, bad, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if sum.Status != constants.ImportStatusFailed {
		t.Errorf("status = %q", sum.Status)
	}
	counts, _ := db.Repos().Stats.TableCounts(ctx)
	for table, n := range counts {
		if n != 0 {
			t.Errorf("%s has %d rows after rollback", table, n)
		}
	}

	if err := l.RecordFailure(ctx, "/in/scan.pdf", "", common.ErrNoText.Error()); err != nil {
		t.Fatal(err)
	}
	logs, _ := db.Repos().ImportLog.List(ctx, 5)
	if len(logs) != 1 || logs[0].Status != constants.ImportStatusFailed || logs[0].Filename != "scan.pdf" {
		t.Errorf("failure log = %+v", logs)
	}
}
