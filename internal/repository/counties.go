package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type CountyRepository interface {
	// Ensure inserts the county when missing and returns its id.
	Ensure(ctx context.Context, c entity.County) (int64, error)
	Get(ctx context.Context, name, state string) (*entity.County, error)
}

type countyRepository struct{ base }

func (r *countyRepository) Ensure(ctx context.Context, c entity.County) (int64, error) {
	ins := r.sb().Insert("counties").
		Columns("name", "state", "fips_code", "clerk_website").
		Values(c.Name, c.State, nullString(c.FIPSCode), nullString(c.Website)).
		OnConflict(entsql.ConflictColumns("name", "state"), entsql.DoNothing())
	if _, err := r.exec(ctx, ins); err != nil {
		r.logger.Error("failed to insert county", "name", c.Name, "state", c.State, "error", err)
		return 0, common.DatabaseError("insert county", err)
	}
	got, err := r.Get(ctx, c.Name, c.State)
	if err != nil {
		return 0, err
	}
	return got.ID, nil
}

func (r *countyRepository) Get(ctx context.Context, name, state string) (*entity.County, error) {
	sel := r.sb().Select("id", "name", "state", "fips_code", "clerk_website").
		From(r.sb().Table("counties")).
		Where(entsql.And(entsql.EQ("name", name), entsql.EQ("state", state)))
	query, args := sel.Query()
	var (
		c          entity.County
		fips, site sql.NullString
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.State, &fips, &site)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("county %s, %s", name, state)
	}
	if err != nil {
		return nil, common.DatabaseError(fmt.Sprintf("get county %s", name), err)
	}
	c.FIPSCode = fips.String
	c.Website = site.String
	return &c, nil
}
