package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/internal/common"
)

type CandidateRepository interface {
	// Ensure returns the id of the (name, party) candidate, inserting it when
	// missing. An empty party means none.
	Ensure(ctx context.Context, name, party string) (int64, error)
}

type candidateRepository struct{ base }

func (r *candidateRepository) Ensure(ctx context.Context, name, party string) (int64, error) {
	ins := r.sb().Insert("candidates").
		Columns("name", "party", "party_key", "incumbent").
		Values(name, nullString(party), party, false).
		OnConflict(entsql.ConflictColumns("name", "party_key"), entsql.DoNothing())
	if _, err := r.exec(ctx, ins); err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("insert candidate %q", name), err)
	}
	sel := r.sb().Select("id").From(r.sb().Table("candidates")).
		Where(entsql.And(entsql.EQ("name", name), entsql.EQ("party_key", party)))
	id, err := r.scanID(ctx, sel)
	if err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("select candidate %q", name), err)
	}
	return id, nil
}
