package repository

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// ResultView is a denormalized result row used by exports and analytics.
type ResultView struct {
	ElectionDate string
	RaceName     string
	RaceLevel    string
	PrecinctName string // empty for county-wide aggregates
	Candidate    string
	Party        string
	Votes        int
	VotePct      *float64
}

type ResultRepository interface {
	Insert(ctx context.Context, res entity.Result) (int64, error)
	DeleteByElection(ctx context.Context, electionID int64) (int64, error)
	// List returns every result, optionally restricted to race names that
	// contain raceSubstr (case-insensitive).
	List(ctx context.Context, raceSubstr string) ([]ResultView, error)
}

type resultRepository struct{ base }

func (r *resultRepository) Insert(ctx context.Context, res entity.Result) (int64, error) {
	ins := r.sb().Insert("results").
		Columns("race_id", "candidate_id", "precinct_id", "votes", "vote_percentage",
			"channel1_votes", "channel2_votes", "channel3_votes").
		Values(res.RaceID, res.CandidateID, derefOrNil(res.PrecinctID), res.Votes, derefOrNil(res.VotePct),
			derefOrNil(res.Channel1), derefOrNil(res.Channel2), derefOrNil(res.Channel3))
	id, err := r.insertID(ctx, ins)
	if err != nil {
		return 0, common.DatabaseError("insert result", err)
	}
	return id, nil
}

func (r *resultRepository) DeleteByElection(ctx context.Context, electionID int64) (int64, error) {
	races := r.sb().Select("id").From(r.sb().Table("races")).Where(entsql.EQ("election_id", electionID))
	n, err := r.exec(ctx, r.sb().Delete("results").Where(entsql.In("race_id", races)))
	if err != nil {
		return 0, common.DatabaseError("delete results", err)
	}
	return n, nil
}

func (r *resultRepository) List(ctx context.Context, raceSubstr string) ([]ResultView, error) {
	query := `SELECT e.election_date, ra.race_name, ra.race_level, COALESCE(p.precinct_name, ''),
	                 c.name, COALESCE(c.party, ''), res.votes, res.vote_percentage
	            FROM results res
	            JOIN races ra ON ra.id = res.race_id
	            JOIN elections e ON e.id = ra.election_id
	            JOIN candidates c ON c.id = res.candidate_id
	            LEFT JOIN precincts p ON p.id = res.precinct_id`
	var args []any
	if raceSubstr != "" {
		query += ` WHERE LOWER(ra.race_name) LIKE ?`
		args = append(args, "%"+lowerASCII(raceSubstr)+"%")
	}
	query += ` ORDER BY e.election_date, ra.id, res.id`

	rows, err := r.rawQuery(ctx, query, args...)
	if err != nil {
		return nil, common.DatabaseError("list results", err)
	}
	defer rows.Close()
	var out []ResultView
	for rows.Next() {
		var (
			v   ResultView
			pct sql.NullFloat64
		)
		if err := rows.Scan(&v.ElectionDate, &v.RaceName, &v.RaceLevel, &v.PrecinctName,
			&v.Candidate, &v.Party, &v.Votes, &pct); err != nil {
			return nil, common.DatabaseError("scan result", err)
		}
		v.VotePct = floatPtr(pct)
		out = append(out, v)
	}
	return out, rows.Err()
}

// lowerASCII matches SQLite's LOWER, which only folds ASCII.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
