package repository

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type RaceRepository interface {
	// Ensure returns the id of the named race in an election, inserting it
	// with the given level and vote-for when missing.
	Ensure(ctx context.Context, race entity.Race) (int64, error)
	SetTotalVotes(ctx context.Context, id int64, total int) error
	UpdateLevel(ctx context.Context, id int64, level constants.RaceLevel) error
	ListByElection(ctx context.Context, electionID int64) ([]entity.Race, error)
	// ListByLevel returns races of one level across all elections, oldest first.
	ListByLevel(ctx context.Context, level constants.RaceLevel) ([]entity.ElectionRace, error)
	// DistinctNames returns every race name with the number of elections using it.
	DistinctNames(ctx context.Context) (map[string]int, error)
	DeleteByElection(ctx context.Context, electionID int64) (int64, error)
}

type raceRepository struct{ base }

func (r *raceRepository) Ensure(ctx context.Context, race entity.Race) (int64, error) {
	voteFor := race.VoteFor
	if voteFor <= 0 {
		voteFor = 1
	}
	ins := r.sb().Insert("races").
		Columns("election_id", "race_name", "race_level", "vote_for").
		Values(race.ElectionID, race.Name, string(race.Level), voteFor).
		OnConflict(entsql.ConflictColumns("election_id", "race_name"), entsql.DoNothing())
	if _, err := r.exec(ctx, ins); err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("insert race %q", race.Name), err)
	}
	sel := r.sb().Select("id").From(r.sb().Table("races")).
		Where(entsql.And(entsql.EQ("election_id", race.ElectionID), entsql.EQ("race_name", race.Name)))
	id, err := r.scanID(ctx, sel)
	if err != nil {
		return 0, common.DatabaseError(fmt.Sprintf("select race %q", race.Name), err)
	}
	return id, nil
}

func (r *raceRepository) SetTotalVotes(ctx context.Context, id int64, total int) error {
	if _, err := r.exec(ctx, r.sb().Update("races").Set("total_votes", total).Where(entsql.EQ("id", id))); err != nil {
		return common.DatabaseError("set race total", err)
	}
	return nil
}

func (r *raceRepository) UpdateLevel(ctx context.Context, id int64, level constants.RaceLevel) error {
	if _, err := r.exec(ctx, r.sb().Update("races").Set("race_level", string(level)).Where(entsql.EQ("id", id))); err != nil {
		return common.DatabaseError("update race level", err)
	}
	return nil
}

func (r *raceRepository) ListByElection(ctx context.Context, electionID int64) ([]entity.Race, error) {
	rows, err := r.rawQuery(ctx,
		`SELECT id, election_id, race_name, race_level, vote_for, total_votes
		   FROM races WHERE election_id = ? ORDER BY id`, electionID)
	if err != nil {
		return nil, common.DatabaseError("list races", err)
	}
	defer rows.Close()
	var out []entity.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, race)
	}
	return out, rows.Err()
}

func (r *raceRepository) ListByLevel(ctx context.Context, level constants.RaceLevel) ([]entity.ElectionRace, error) {
	rows, err := r.rawQuery(ctx,
		`SELECT r.id, r.election_id, r.race_name, r.race_level, r.vote_for, r.total_votes, e.election_date
		   FROM races r JOIN elections e ON e.id = r.election_id
		  WHERE r.race_level = ?
		  ORDER BY e.election_date, r.id`, string(level))
	if err != nil {
		return nil, common.DatabaseError("list races by level", err)
	}
	defer rows.Close()
	var out []entity.ElectionRace
	for rows.Next() {
		var (
			er    entity.ElectionRace
			lvl   string
			total sql.NullInt64
		)
		if err := rows.Scan(&er.ID, &er.ElectionID, &er.Name, &lvl, &er.VoteFor, &total, &er.ElectionDate); err != nil {
			return nil, common.DatabaseError("scan race", err)
		}
		er.Level = constants.RaceLevel(lvl)
		er.TotalVotes = intPtr(total)
		out = append(out, er)
	}
	return out, rows.Err()
}

func scanRace(rows *sql.Rows) (entity.Race, error) {
	var (
		race  entity.Race
		lvl   string
		total sql.NullInt64
	)
	if err := rows.Scan(&race.ID, &race.ElectionID, &race.Name, &lvl, &race.VoteFor, &total); err != nil {
		return race, common.DatabaseError("scan race", err)
	}
	race.Level = constants.RaceLevel(lvl)
	race.TotalVotes = intPtr(total)
	return race, nil
}

func (r *raceRepository) DistinctNames(ctx context.Context) (map[string]int, error) {
	rows, err := r.rawQuery(ctx, `SELECT race_name, COUNT(DISTINCT election_id) FROM races GROUP BY race_name`)
	if err != nil {
		return nil, common.DatabaseError("distinct race names", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, common.DatabaseError("scan race name", err)
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (r *raceRepository) DeleteByElection(ctx context.Context, electionID int64) (int64, error) {
	n, err := r.exec(ctx, r.sb().Delete("races").Where(entsql.EQ("election_id", electionID)))
	if err != nil {
		return 0, common.DatabaseError("delete races", err)
	}
	return n, nil
}
