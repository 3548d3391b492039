package repository

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// TurnoutTotals are the precinct-level turnout sums of one election.
type TurnoutTotals struct {
	Registered int64
	Ballots    int64
	Precincts  int64
}

type TurnoutRepository interface {
	Insert(ctx context.Context, t entity.Turnout) error
	DeleteByElection(ctx context.Context, electionID int64) (int64, error)
	Totals(ctx context.Context, electionID int64) (TurnoutTotals, error)
}

type turnoutRepository struct{ base }

func (r *turnoutRepository) Insert(ctx context.Context, t entity.Turnout) error {
	ins := r.sb().Insert("turnout").
		Columns("election_id", "precinct_id", "registered_voters", "ballots_cast", "turnout_percentage").
		Values(t.ElectionID, derefOrNil(t.PrecinctID), derefOrNil(t.RegisteredVoters), derefOrNil(t.BallotsCast), derefOrNil(t.TurnoutPct))
	if _, err := r.exec(ctx, ins); err != nil {
		return common.DatabaseError("insert turnout", err)
	}
	return nil
}

func (r *turnoutRepository) DeleteByElection(ctx context.Context, electionID int64) (int64, error) {
	n, err := r.exec(ctx, r.sb().Delete("turnout").Where(entsql.EQ("election_id", electionID)))
	if err != nil {
		return 0, common.DatabaseError("delete turnout", err)
	}
	return n, nil
}

func (r *turnoutRepository) Totals(ctx context.Context, electionID int64) (TurnoutTotals, error) {
	var t TurnoutTotals
	row := r.q.QueryRowContext(ctx, r.rebind(
		`SELECT COALESCE(SUM(registered_voters), 0), COALESCE(SUM(ballots_cast), 0), COUNT(DISTINCT precinct_id)
		   FROM turnout WHERE election_id = ? AND precinct_id IS NOT NULL`), electionID)
	if err := row.Scan(&t.Registered, &t.Ballots, &t.Precincts); err != nil {
		return t, common.DatabaseError("turnout totals", err)
	}
	return t, nil
}
