package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type ElectionRepository interface {
	// Find looks up an election by its natural key. Missing maps to common.ErrNotFound.
	Find(ctx context.Context, countyID int64, date string, typ constants.ElectionType) (*entity.Election, error)
	// GetByDate returns the first election held on date.
	GetByDate(ctx context.Context, date string) (*entity.Election, error)
	Get(ctx context.Context, id int64) (*entity.Election, error)
	List(ctx context.Context) ([]entity.Election, error)
	// Create inserts an election. A natural-key collision returns ErrDuplicate.
	Create(ctx context.Context, e entity.Election) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type electionRepository struct{ base }

var electionColumns = []string{
	"id", "county_id", "election_date", "election_type", "election_name",
	"total_registered_voters", "total_ballots_cast", "source_file",
}

func (r *electionRepository) selectElections() *entsql.Selector {
	return r.sb().Select(electionColumns...).From(r.sb().Table("elections"))
}

func (r *electionRepository) Find(ctx context.Context, countyID int64, date string, typ constants.ElectionType) (*entity.Election, error) {
	sel := r.selectElections().Where(entsql.And(
		entsql.EQ("county_id", countyID),
		entsql.EQ("election_date", date),
		entsql.EQ("election_type", string(typ)),
	))
	return r.one(ctx, sel, fmt.Sprintf("%s %s", date, typ))
}

func (r *electionRepository) GetByDate(ctx context.Context, date string) (*entity.Election, error) {
	sel := r.selectElections().Where(entsql.EQ("election_date", date)).OrderBy("id").Limit(1)
	e, err := r.one(ctx, sel, date)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", date, common.ErrElectionNotFound)
	}
	return e, err
}

func (r *electionRepository) Get(ctx context.Context, id int64) (*entity.Election, error) {
	return r.one(ctx, r.selectElections().Where(entsql.EQ("id", id)), fmt.Sprintf("id %d", id))
}

func (r *electionRepository) one(ctx context.Context, sel *entsql.Selector, label string) (*entity.Election, error) {
	query, args := sel.Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.DatabaseError("query election", err)
	}
	defer rows.Close()
	list, err := scanElections(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.NotFoundErrorf("election %s", label)
	}
	return &list[0], nil
}

func (r *electionRepository) List(ctx context.Context) ([]entity.Election, error) {
	query, args := r.selectElections().OrderBy("election_date", "id").Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list elections", "error", err)
		return nil, common.DatabaseError("list elections", err)
	}
	defer rows.Close()
	return scanElections(rows)
}

func scanElections(rows *sql.Rows) ([]entity.Election, error) {
	var out []entity.Election
	for rows.Next() {
		var (
			e               entity.Election
			typ             string
			registered, bal sql.NullInt64
			source          sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CountyID, &e.Date, &typ, &e.Name, &registered, &bal, &source); err != nil {
			return nil, common.DatabaseError("scan election", err)
		}
		e.Type, _ = constants.ParseElectionType(typ)
		e.TotalRegisteredVoters = intPtr(registered)
		e.TotalBallotsCast = intPtr(bal)
		e.SourceFile = source.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create skips the insert on a natural-key collision rather than raising a
// unique violation, which would abort a PostgreSQL transaction.
func (r *electionRepository) Create(ctx context.Context, e entity.Election) (int64, error) {
	ins := r.sb().Insert("elections").
		Columns("county_id", "election_date", "election_type", "election_name",
			"total_registered_voters", "total_ballots_cast", "source_file").
		Values(e.CountyID, e.Date, string(e.Type), e.Name,
			derefOrNil(e.TotalRegisteredVoters), derefOrNil(e.TotalBallotsCast), nullString(e.SourceFile)).
		OnConflict(entsql.ConflictColumns("county_id", "election_date", "election_type"), entsql.DoNothing()).
		Returning("id")
	query, args := ins.Query()
	var id int64
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("election %s %s: %w", e.Date, e.Type, ErrDuplicate)
	}
	if err != nil {
		r.logger.Error("failed to insert election", "election_date", e.Date, "error", err)
		return 0, common.DatabaseError("insert election", mapErr(err))
	}
	return id, nil
}

func (r *electionRepository) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := r.exec(ctx, r.sb().Delete("elections").Where(entsql.EQ("id", id)))
	if err != nil {
		return 0, common.DatabaseError("delete election", err)
	}
	return n, nil
}
