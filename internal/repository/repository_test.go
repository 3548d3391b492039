package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"entgo.io/ent/dialect"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{Driver: common.DriverSQLite, DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

// seedElection inserts one election with one race, candidate, precinct,
// result and turnout row and returns the election id.
func seedElection(t *testing.T, repos *Repositories, date string) int64 {
	t.Helper()
	ctx := context.Background()
	countyID, err := repos.Counties.Ensure(ctx, entity.County{Name: "Boone", State: "IN"})
	if err != nil {
		t.Fatal(err)
	}
	eid, err := repos.Elections.Create(ctx, entity.Election{
		CountyID: countyID, Date: date, Type: constants.ElectionGeneral, Name: "General", SourceFile: date + ".pdf",
	})
	if err != nil {
		t.Fatal(err)
	}
	pid, err := repos.Precincts.Ensure(ctx, entity.Precinct{CountyID: countyID, Name: "Center 01", Code: "01"})
	if err != nil {
		t.Fatal(err)
	}
	rid, err := repos.Races.Ensure(ctx, entity.Race{ElectionID: eid, Name: "Governor", Level: constants.LevelState})
	if err != nil {
		t.Fatal(err)
	}
	cid, err := repos.Candidates.Ensure(ctx, "JANE DOE", "D")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Results.Insert(ctx, entity.Result{RaceID: rid, CandidateID: cid, PrecinctID: &pid, Votes: 120}); err != nil {
		t.Fatal(err)
	}
	reg, bal := 1000, 600
	if err := repos.Turnout.Insert(ctx, entity.Turnout{ElectionID: eid, PrecinctID: &pid, RegisteredVoters: &reg, BallotsCast: &bal}); err != nil {
		t.Fatal(err)
	}
	return eid
}

func TestEnsure_Idempotent(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()

	c1, err := repos.Counties.Ensure(ctx, entity.County{Name: "Boone", State: "IN", FIPSCode: "18011"})
	if err != nil {
		t.Fatal(err)
	}
	c2, err := repos.Counties.Ensure(ctx, entity.County{Name: "Boone", State: "IN"})
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Errorf("county ids differ: %d vs %d", c1, c2)
	}

	tests := []struct {
		name  string
		party string
	}{
		{"JANE DOE", "D"},
		{"JANE DOE", ""},
		{"Yes", ""},
	}
	ids := map[int64]bool{}
	for _, tt := range tests {
		first, err := repos.Candidates.Ensure(ctx, tt.name, tt.party)
		if err != nil {
			t.Fatal(err)
		}
		again, err := repos.Candidates.Ensure(ctx, tt.name, tt.party)
		if err != nil {
			t.Fatal(err)
		}
		if first != again {
			t.Errorf("candidate %s/%s: %d vs %d", tt.name, tt.party, first, again)
		}
		ids[first] = true
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 distinct candidates, got %d", len(ids))
	}

	p1, _ := repos.Precincts.Ensure(ctx, entity.Precinct{CountyID: c1, Name: "Center 01", Code: "01"})
	p2, _ := repos.Precincts.Ensure(ctx, entity.Precinct{CountyID: c1, Name: "Center 01", Code: "99"})
	if p1 == 0 || p1 != p2 {
		t.Errorf("precinct ids = %d, %d", p1, p2)
	}
}

func TestElections_DuplicateAndLookup(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()
	eid := seedElection(t, repos, "2016-11-08")

	county, err := repos.Counties.Get(ctx, "Boone", "IN")
	if err != nil {
		t.Fatal(err)
	}
	_, err = repos.Elections.Create(ctx, entity.Election{CountyID: county.ID, Date: "2016-11-08", Type: constants.ElectionGeneral, Name: "again"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate insert error = %v, want ErrDuplicate", err)
	}
	if common.ExitCode(err) == 4 {
		t.Errorf("duplicate insert reported as a database error: %v", err)
	}

	got, err := repos.Elections.Find(ctx, county.ID, "2016-11-08", constants.ElectionGeneral)
	if err != nil || got.ID != eid {
		t.Fatalf("Find() = %+v, %v", got, err)
	}
	if got.Year() != 2016 || got.SourceFile != "2016-11-08.pdf" {
		t.Errorf("election = %+v", got)
	}
	if _, err := repos.Elections.Find(ctx, county.ID, "2016-11-08", constants.ElectionPrimary); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Find(primary) error = %v, want ErrNotFound", err)
	}
	if _, err := repos.Elections.GetByDate(ctx, "1999-01-01"); !errors.Is(err, common.ErrElectionNotFound) {
		t.Errorf("GetByDate() error = %v, want ErrElectionNotFound", err)
	}
}

func TestElections_DuplicateKeepsTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedElection(t, db.Repos(), "2020-11-03")
	county, err := db.Repos().Counties.Get(ctx, "Boone", "IN")
	if err != nil {
		t.Fatal(err)
	}

	err = db.WithTx(ctx, func(r *Repositories) error {
		_, err := r.Elections.Create(ctx, entity.Election{CountyID: county.ID, Date: "2020-11-03", Type: constants.ElectionGeneral, Name: "again"})
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("Create() error = %v, want ErrDuplicate", err)
		}
		// the transaction must still accept writes after the collision
		_, err = r.ImportLog.Append(ctx, entity.ImportLog{
			Filename: "2020-General.pdf", FileType: constants.FileTypePDF, Status: constants.ImportStatusSkipped,
		})
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	logs, err := db.Repos().ImportLog.List(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != constants.ImportStatusSkipped {
		t.Errorf("import_log = %+v", logs)
	}
	counts, _ := db.Repos().Stats.TableCounts(ctx)
	if counts["elections"] != 1 {
		t.Errorf("elections = %d, want 1", counts["elections"])
	}
}

func TestWithTx_RollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := db.WithTx(ctx, func(r *Repositories) error {
		seedElection(t, r, "2018-11-06")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v", err)
	}
	counts, err := db.Repos().Stats.TableCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for table, n := range counts {
		if n != 0 {
			t.Errorf("%s has %d rows after rollback", table, n)
		}
	}
}

func TestSnapshotAndDeleteOrder(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()
	eid := seedElection(t, repos, "2012-11-06")

	snap, err := repos.Stats.Snapshot(ctx, eid)
	if err != nil {
		t.Fatal(err)
	}
	want := entity.ElectionStats{Races: 1, Results: 1, Turnout: 1, TotalVotes: 120, Precincts: 1}
	if snap != want {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}

	// parents cannot go before their children
	if _, err := repos.Races.DeleteByElection(ctx, eid); err == nil {
		t.Fatal("deleting races before results succeeded")
	}

	steps := []func() (int64, error){
		func() (int64, error) { return repos.Results.DeleteByElection(ctx, eid) },
		func() (int64, error) { return repos.Races.DeleteByElection(ctx, eid) },
		func() (int64, error) { return repos.Turnout.DeleteByElection(ctx, eid) },
		func() (int64, error) { return repos.DataQuality.DeleteByElection(ctx, eid) },
		func() (int64, error) { return repos.Elections.Delete(ctx, eid) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if err := repos.Stats.CheckIntegrity(ctx); err != nil {
			t.Fatalf("integrity after step %d: %v", i, err)
		}
	}
	if _, err := repos.Elections.Get(ctx, eid); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("election still present: %v", err)
	}
}

func TestDataQuality_Upsert(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()
	eid := seedElection(t, repos, "2020-11-03")

	for _, score := range []float64{0.4, 0.95} {
		err := repos.DataQuality.Upsert(ctx, entity.DataQuality{
			ElectionID: eid, Level: constants.ConfidenceHigh, Score: score,
			SourceType: constants.SourceDigitalPDF, RaceNamesClean: true, Notes: "ok",
		})
		if err != nil {
			t.Fatalf("Upsert(%v) error = %v", score, err)
		}
	}
	list, err := repos.DataQuality.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("rows = %d, want 1", len(list))
	}
	if list[0].Score != 0.95 || list[0].ElectionDate != "2020-11-03" || !list[0].RaceNamesClean {
		t.Errorf("stored = %+v", list[0])
	}
}

func TestImportLog(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []entity.ImportLog{
		{Filename: "2012-General.pdf", FileType: constants.FileTypePDF, Status: constants.ImportStatusSuccess, ContentHash: "abc", ImportedAt: base},
		{Filename: "2012-General.pdf", FileType: constants.FileTypePDFReimport, Status: constants.ImportStatusSuccess, ImportedAt: base.Add(time.Hour)},
		{Filename: "2014-General.pdf", FileType: constants.FileTypePDF, Status: constants.ImportStatusFailed, ImportedAt: base},
	}
	for _, e := range entries {
		if _, err := repos.ImportLog.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	ft, err := repos.ImportLog.LatestFileType(ctx, "2012-General.pdf")
	if err != nil || ft != constants.FileTypePDFReimport {
		t.Errorf("LatestFileType() = %q, %v", ft, err)
	}
	if ft, _ := repos.ImportLog.LatestFileType(ctx, "nope.pdf"); ft != "" {
		t.Errorf("LatestFileType(missing) = %q", ft)
	}
	if hit, err := repos.ImportLog.FindByHash(ctx, "abc"); err != nil || hit.Filename != "2012-General.pdf" {
		t.Errorf("FindByHash() = %+v, %v", hit, err)
	}
	n, err := repos.ImportLog.DeleteMatching(ctx, "2012")
	if err != nil || n != 2 {
		t.Errorf("DeleteMatching() = %d, %v", n, err)
	}
	rest, _ := repos.ImportLog.List(ctx, 10)
	if len(rest) != 1 || rest[0].Status != constants.ImportStatusFailed {
		t.Errorf("remaining = %+v", rest)
	}
}

func TestResultsList(t *testing.T) {
	db := openTestDB(t)
	repos := db.Repos()
	ctx := context.Background()
	seedElection(t, repos, "2016-11-08")

	all, err := repos.Results.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].PrecinctName != "Center 01" || all[0].Party != "D" {
		t.Errorf("List() = %+v", all)
	}
	if got, _ := repos.Results.List(ctx, "GOVERN"); len(got) != 1 {
		t.Errorf("case-insensitive filter returned %d rows", len(got))
	}
	if got, _ := repos.Results.List(ctx, "sheriff"); len(got) != 0 {
		t.Errorf("filter returned %d rows", len(got))
	}
}

func TestBackup(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	path, err := db.Backup(context.Background(), dir, "2012-11-06")
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if path == "" {
		t.Error("empty backup path")
	}
	pg := &DB{Dialect: dialect.Postgres, logger: slog.Default()}
	if _, err := pg.Backup(context.Background(), dir, "x"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("postgres backup error = %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := base{dialect: dialect.Postgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	lite := base{dialect: dialect.SQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
