package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type PrecinctRepository interface {
	// Ensure inserts the precinct when missing and returns its id. The first
	// code seen for a name is kept.
	Ensure(ctx context.Context, p entity.Precinct) (int64, error)
	Count(ctx context.Context, countyID int64) (int64, error)
}

type precinctRepository struct{ base }

func (r *precinctRepository) Ensure(ctx context.Context, p entity.Precinct) (int64, error) {
	ins := r.sb().Insert("precincts").
		Columns("county_id", "precinct_name", "precinct_code", "township").
		Values(p.CountyID, p.Name, nullString(p.Code), nullString(p.Township)).
		OnConflict(entsql.ConflictColumns("county_id", "precinct_name"), entsql.DoNothing())
	if _, err := r.exec(ctx, ins); err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("insert precinct %q", p.Name), err)
	}
	sel := r.sb().Select("id").From(r.sb().Table("precincts")).
		Where(entsql.And(entsql.EQ("county_id", p.CountyID), entsql.EQ("precinct_name", p.Name)))
	id, err := r.scanID(ctx, sel)
	if err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("select precinct %q", p.Name), err)
	}
	return id, nil
}

func (r *precinctRepository) Count(ctx context.Context, countyID int64) (int64, error) {
	return r.rawInt(ctx, "SELECT COUNT(*) FROM precincts WHERE county_id = ?", countyID)
}
