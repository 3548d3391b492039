package repository

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type DataQualityRepository interface {
	// Upsert stores the assessment, replacing any previous one for the election.
	Upsert(ctx context.Context, dq entity.DataQuality) error
	DeleteByElection(ctx context.Context, electionID int64) (int64, error)
	// List returns the stored assessments ordered by election date.
	List(ctx context.Context) ([]entity.DataQuality, error)
}

type dataQualityRepository struct{ base }

func (r *dataQualityRepository) Upsert(ctx context.Context, dq entity.DataQuality) error {
	at := dq.AssessedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	ins := r.sb().Insert("data_quality").
		Columns("election_id", "confidence_level", "confidence_score", "source_type",
			"race_names_clean", "turnout_consistent", "precinct_count_match",
			"cross_validated", "pdf_parsed_ok", "notes", "assessed_at").
		Values(dq.ElectionID, string(dq.Level), dq.Score, string(dq.SourceType),
			dq.RaceNamesClean, dq.TurnoutConsistent, dq.PrecinctCountMatch,
			dq.CrossValidated, dq.PDFParsedOK, nullString(dq.Notes), at).
		OnConflict(entsql.ConflictColumns("election_id"), entsql.ResolveWithNewValues())
	if _, err := r.exec(ctx, ins); err != nil {
		r.logger.Error("failed to store data quality", "election_id", dq.ElectionID, "error", err)
		return common.DatabaseError("upsert data quality", err)
	}
	return nil
}

func (r *dataQualityRepository) DeleteByElection(ctx context.Context, electionID int64) (int64, error) {
	n, err := r.exec(ctx, r.sb().Delete("data_quality").Where(entsql.EQ("election_id", electionID)))
	if err != nil {
		return 0, common.DatabaseError("delete data quality", err)
	}
	return n, nil
}

func (r *dataQualityRepository) List(ctx context.Context) ([]entity.DataQuality, error) {
	rows, err := r.rawQuery(ctx,
		`SELECT dq.election_id, e.election_date, dq.confidence_level, dq.confidence_score, dq.source_type,
		        dq.race_names_clean, dq.turnout_consistent, dq.precinct_count_match,
		        dq.cross_validated, dq.pdf_parsed_ok, dq.notes, dq.assessed_at
		   FROM data_quality dq JOIN elections e ON e.id = dq.election_id
		  ORDER BY e.election_date, e.id`)
	if err != nil {
		return nil, common.DatabaseError("list data quality", err)
	}
	defer rows.Close()
	var out []entity.DataQuality
	for rows.Next() {
		var (
			dq         entity.DataQuality
			level, src string
			notes      sql.NullString
		)
		if err := rows.Scan(&dq.ElectionID, &dq.ElectionDate, &level, &dq.Score, &src,
			&dq.RaceNamesClean, &dq.TurnoutConsistent, &dq.PrecinctCountMatch,
			&dq.CrossValidated, &dq.PDFParsedOK, &notes, &dq.AssessedAt); err != nil {
			return nil, common.DatabaseError("scan data quality", err)
		}
		dq.Level = constants.ConfidenceLevel(level)
		dq.SourceType = constants.SourceType(src)
		dq.Notes = notes.String
		out = append(out, dq)
	}
	return out, rows.Err()
}
