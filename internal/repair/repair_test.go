package repair

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

const corruptedName = "244 32 0 276 68.15% DAN COATS (R)"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixture(t *testing.T, name string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return []string{string(b)}
}

type env struct {
	db     *repository.DB
	loader *loader.Loader
	parser *parser.Parser
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: common.DriverSQLite, DSN: ":memory:"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return env{
		db:     db,
		loader: loader.NewLoader(db, common.CountyConfig{Name: "Boone", State: "IN"}, quietLogger()),
		parser: parser.NewParser(quietLogger()),
	}
}

// seedCorrupted loads the 2012 fixture and adds a corrupted race holding
// extra results, the way a failed parse leaves an election behind.
func (e env) seedCorrupted(t *testing.T, extra int) int64 {
	t.Helper()
	ctx := context.Background()
	doc := e.parser.Parse(fixture(t, "format_c2.txt"), "2012-General.pdf")
	sum, err := e.loader.Load(ctx, doc, loader.Options{})
	if err != nil {
		t.Fatal(err)
	}
	repos := e.db.Repos()
	raceID, err := repos.Races.Ensure(ctx, entity.Race{ElectionID: sum.ElectionID, Name: corruptedName, Level: constants.LevelOther})
	if err != nil {
		t.Fatal(err)
	}
	candID, err := repos.Candidates.Ensure(ctx, "GHOST", "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < extra; i++ {
		if _, err := repos.Results.Insert(ctx, entity.Result{RaceID: raceID, CandidateID: candID, Votes: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := repos.DataQuality.Upsert(ctx, entity.DataQuality{ElectionID: sum.ElectionID, Level: constants.ConfidenceLow, Score: 0.3, SourceType: constants.SourceDigitalPDF}); err != nil {
		t.Fatal(err)
	}
	return sum.ElectionID
}

func staticText(pages []string) TextSource {
	return func(context.Context, string) ([]string, error) { return pages, nil }
}

type countingLocker struct{ locked []string }

func (c *countingLocker) Lock(key string) func() {
	c.locked = append(c.locked, key)
	return func() {}
}

func TestReimport_Pass(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	oldID := e.seedCorrupted(t, 0)
	locks := &countingLocker{}

	r := NewRepairer(e.db, staticText(fixture(t, "format_c2.txt")), e.parser, e.loader, locks,
		Config{BackupDir: t.TempDir()}, quietLogger())
	rep, err := r.Reimport(ctx, "2012-11-06", "/data/2012-General.pdf", Options{Backup: true})
	if err != nil {
		t.Fatalf("Reimport() error = %v", err)
	}
	if rep.Status != constants.RepairPass {
		t.Errorf("status = %s", rep.Status)
	}
	if rep.BackupPath == "" {
		t.Error("no backup written")
	}
	if rep.Before.Results != 6 || rep.After.Results != 6 || rep.Parsed != 6 {
		t.Errorf("before %+v after %+v parsed %d", rep.Before, rep.After, rep.Parsed)
	}
	want := DeleteCounts{Results: 6, Races: 3, Turnout: 2, Quality: 1, Elections: 1, ImportLogs: 1}
	if rep.Deleted != want {
		t.Errorf("deleted = %+v, want %+v", rep.Deleted, want)
	}
	if rep.Load.ElectionID == oldID || rep.Load.Status != constants.ImportStatusSuccess {
		t.Errorf("load = %+v", rep.Load)
	}
	if len(locks.locked) != 1 || locks.locked[0] != "2012-11-06" {
		t.Errorf("locks = %v", locks.locked)
	}

	repos := e.db.Repos()
	if err := repos.Stats.CheckIntegrity(ctx); err != nil {
		t.Error(err)
	}
	races, _ := repos.Races.ListByElection(ctx, rep.Load.ElectionID)
	for _, race := range races {
		if race.Name == corruptedName {
			t.Error("corrupted race survived")
		}
	}
	if ft, _ := repos.ImportLog.LatestFileType(ctx, "2012-General.pdf"); ft != constants.FileTypePDFReimport {
		t.Errorf("file type = %q", ft)
	}
	// candidates are shared and stay
	counts, _ := repos.Stats.TableCounts(ctx)
	if counts["candidates"] != 5 {
		t.Errorf("candidates = %d, want 5", counts["candidates"])
	}
}

func TestReimport_Regression(t *testing.T) {
	e := newEnv(t)
	e.seedCorrupted(t, 10)
	r := NewRepairer(e.db, staticText(fixture(t, "format_c2.txt")), e.parser, e.loader, nil, Config{}, quietLogger())
	rep, err := r.Reimport(context.Background(), "2012-11-06", "2012-General.pdf", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != constants.RepairFail || rep.Before.Results != 16 || rep.After.Results != 6 {
		t.Errorf("report = %+v", rep)
	}
}

func TestReimport_AbortsBeforeDeleting(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		err   error
	}{
		{"nothing parseable", []string{"scanned page"}, nil},
		{"wrong election", fixture(t, "format_a.txt"), nil},
		{"unreadable", nil, errors.New("pdftotext failed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			id := e.seedCorrupted(t, 1)
			before, _ := e.db.Repos().Stats.Snapshot(ctx, id)

			text := staticText(tt.pages)
			if tt.err != nil {
				text = func(context.Context, string) ([]string, error) { return nil, tt.err }
			}
			r := NewRepairer(e.db, text, e.parser, e.loader, nil, Config{}, quietLogger())
			if _, err := r.Reimport(ctx, "2012-11-06", "x.pdf", Options{}); err == nil {
				t.Fatal("expected error")
			}
			after, _ := e.db.Repos().Stats.Snapshot(ctx, id)
			if before != after {
				t.Errorf("database changed: %+v -> %+v", before, after)
			}
		})
	}
}

func TestReimport_NoExistingElection(t *testing.T) {
	e := newEnv(t)
	r := NewRepairer(e.db, staticText(fixture(t, "format_c2.txt")), e.parser, e.loader, nil, Config{}, quietLogger())
	rep, err := r.Reimport(context.Background(), "2012-11-06", "2012-General.pdf", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != constants.RepairPass || rep.Deleted != (DeleteCounts{}) || rep.After.Results != 6 {
		t.Errorf("report = %+v", rep)
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		old, new  int64
		threshold float64
		want      constants.RepairStatus
	}{
		{100, 90, 0.10, constants.RepairPass},
		{100, 89, 0.10, constants.RepairFail},
		{100, 150, 0.10, constants.RepairPass},
		{0, 0, 0.10, constants.RepairPass},
		{7, 6, 0.10, constants.RepairFail},
		{7, 6, 0.15, constants.RepairPass},
	}
	for _, tt := range tests {
		if got := Verdict(tt.old, tt.new, tt.threshold); got != tt.want {
			t.Errorf("Verdict(%d, %d, %.2f) = %s, want %s", tt.old, tt.new, tt.threshold, got, tt.want)
		}
	}
}

func TestReclassify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedCorrupted(t, 0)
	repos := e.db.Repos()
	for _, name := range []string{"Mayor of Zionsville", "(R) Precinct Committeeman", "Library Board"} {
		if _, err := repos.Races.Ensure(ctx, entity.Race{ElectionID: id, Name: name, Level: constants.LevelOther}); err != nil {
			t.Fatal(err)
		}
	}

	dry, err := Reclassify(ctx, e.db, classify.NewStrict(classify.DefaultTowns), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if dry.Examined != 3 || len(dry.Changes) != 2 {
		t.Errorf("dry run = %+v", dry)
	}
	if dry.ByLevel[constants.LevelLocal] != 1 || dry.ByLevel[constants.LevelParty] != 1 {
		t.Errorf("by level = %v", dry.ByLevel)
	}
	others, _ := repos.Races.ListByLevel(ctx, constants.LevelOther)
	if len(others) != 4 {
		t.Errorf("dry run wrote changes: %d races still other", len(others))
	}

	rep, err := Reclassify(ctx, e.db, nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Changes) != 2 {
		t.Errorf("changes = %+v", rep.Changes)
	}
	others, _ = repos.Races.ListByLevel(ctx, constants.LevelOther)
	if len(others) != 2 {
		t.Errorf("%d races still other, want corrupted + Library Board", len(others))
	}
	if got := rep.Levels(); len(got) != 2 || got[0] != constants.LevelLocal {
		t.Errorf("Levels() = %v", got)
	}
}
