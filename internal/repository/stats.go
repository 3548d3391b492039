package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/election-results/db/migrate"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// ErrOrphans is returned by the integrity check when child rows reference
// missing parents.
var ErrOrphans = fmt.Errorf("referential integrity violated: %w", common.ErrValidation)

// ResultCounts are the result-level quality signals of one election.
type ResultCounts struct {
	Results   int64 // all result rows
	Precincts int64 // distinct non-null precincts with results
}

type StatsRepository interface {
	// Snapshot counts the rows belonging to one election.
	Snapshot(ctx context.Context, electionID int64) (entity.ElectionStats, error)
	ResultCounts(ctx context.Context, electionID int64) (ResultCounts, error)
	// Orphans counts child rows whose parent row is gone, keyed by a check name.
	Orphans(ctx context.Context) (map[string]int64, error)
	// CheckIntegrity returns ErrOrphans describing any orphaned rows.
	CheckIntegrity(ctx context.Context) error
	TableCounts(ctx context.Context) (map[string]int64, error)
}

type statsRepository struct{ base }

func (r *statsRepository) Snapshot(ctx context.Context, electionID int64) (entity.ElectionStats, error) {
	var s entity.ElectionStats
	row := r.q.QueryRowContext(ctx, r.rebind(
		`SELECT
		   (SELECT COUNT(*) FROM races WHERE election_id = ?),
		   (SELECT COUNT(*) FROM results res JOIN races ra ON ra.id = res.race_id WHERE ra.election_id = ?),
		   (SELECT COUNT(*) FROM turnout WHERE election_id = ?),
		   (SELECT COALESCE(SUM(res.votes), 0) FROM results res JOIN races ra ON ra.id = res.race_id WHERE ra.election_id = ?),
		   (SELECT COUNT(DISTINCT res.precinct_id) FROM results res JOIN races ra ON ra.id = res.race_id WHERE ra.election_id = ?)`),
		electionID, electionID, electionID, electionID, electionID)
	if err := row.Scan(&s.Races, &s.Results, &s.Turnout, &s.TotalVotes, &s.Precincts); err != nil {
		return s, common.DatabaseError("election snapshot", err)
	}
	return s, nil
}

func (r *statsRepository) ResultCounts(ctx context.Context, electionID int64) (ResultCounts, error) {
	var c ResultCounts
	row := r.q.QueryRowContext(ctx, r.rebind(
		`SELECT COUNT(*), COUNT(DISTINCT res.precinct_id)
		   FROM results res JOIN races ra ON ra.id = res.race_id
		  WHERE ra.election_id = ?`), electionID)
	if err := row.Scan(&c.Results, &c.Precincts); err != nil {
		return c, common.DatabaseError("result counts", err)
	}
	return c, nil
}

var orphanChecks = []struct {
	name  string
	query string
}{
	{"results_without_race", `SELECT COUNT(*) FROM results res LEFT JOIN races ra ON ra.id = res.race_id WHERE ra.id IS NULL`},
	{"results_without_candidate", `SELECT COUNT(*) FROM results res LEFT JOIN candidates c ON c.id = res.candidate_id WHERE c.id IS NULL`},
	{"races_without_election", `SELECT COUNT(*) FROM races ra LEFT JOIN elections e ON e.id = ra.election_id WHERE e.id IS NULL`},
	{"turnout_without_election", `SELECT COUNT(*) FROM turnout t LEFT JOIN elections e ON e.id = t.election_id WHERE e.id IS NULL`},
	{"data_quality_without_election", `SELECT COUNT(*) FROM data_quality dq LEFT JOIN elections e ON e.id = dq.election_id WHERE e.id IS NULL`},
}

func (r *statsRepository) Orphans(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(orphanChecks))
	for _, c := range orphanChecks {
		n, err := r.rawInt(ctx, c.query)
		if err != nil {
			return nil, common.DatabaseError("integrity check "+c.name, err)
		}
		out[c.name] = n
	}
	return out, nil
}

func (r *statsRepository) CheckIntegrity(ctx context.Context) error {
	counts, err := r.Orphans(ctx)
	if err != nil {
		return err
	}
	var bad []string
	for _, c := range orphanChecks {
		if n := counts[c.name]; n > 0 {
			bad = append(bad, fmt.Sprintf("%s=%d", c.name, n))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrOrphans, strings.Join(bad, ", "))
	}
	return nil
}

func (r *statsRepository) TableCounts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(migrate.Tables))
	for _, name := range migrate.TableNames() {
		n, err := r.rawInt(ctx, "SELECT COUNT(*) FROM "+name)
		if err != nil {
			return nil, common.DatabaseError("count "+name, err)
		}
		out[name] = n
	}
	return out, nil
}
