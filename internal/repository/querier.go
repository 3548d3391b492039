package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories groups every repository bound to one querier, so a loader can
// run all of them inside the same transaction.
type Repositories struct {
	Counties    CountyRepository
	Elections   ElectionRepository
	Precincts   PrecinctRepository
	Races       RaceRepository
	Candidates  CandidateRepository
	Results     ResultRepository
	Turnout     TurnoutRepository
	ImportLog   ImportLogRepository
	DataQuality DataQualityRepository
	Stats       StatsRepository
}

func NewRepositories(q Querier, d string, logger *slog.Logger) *Repositories {
	if logger == nil {
		logger = slog.Default()
	}
	b := base{q: q, dialect: d, logger: logger}
	return &Repositories{
		Counties:    &countyRepository{b},
		Elections:   &electionRepository{b},
		Precincts:   &precinctRepository{b},
		Races:       &raceRepository{b},
		Candidates:  &candidateRepository{b},
		Results:     &resultRepository{b},
		Turnout:     &turnoutRepository{b},
		ImportLog:   &importLogRepository{b},
		DataQuality: &dataQualityRepository{b},
		Stats:       &statsRepository{b},
	}
}

type base struct {
	q       Querier
	dialect string
	logger  *slog.Logger
}

func (b base) sb() *entsql.DialectBuilder {
	return entsql.Dialect(b.dialect)
}

// insertID runs an insert and returns the generated id.
func (b base) insertID(ctx context.Context, ib *entsql.InsertBuilder) (int64, error) {
	if b.dialect == dialect.Postgres {
		query, args := ib.Returning("id").Query()
		var id int64
		if err := b.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, mapErr(err)
		}
		return id, nil
	}
	query, args := ib.Query()
	res, err := b.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// exec runs a built statement and returns the affected row count.
func (b base) exec(ctx context.Context, qb entsql.Querier) (int64, error) {
	query, args := qb.Query()
	res, err := b.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// scanID runs a single-column id lookup. Missing rows map to sql.ErrNoRows.
func (b base) scanID(ctx context.Context, sel *entsql.Selector) (int64, error) {
	query, args := sel.Query()
	var id int64
	if err := b.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// rawInt runs a hand-written aggregate written with '?' placeholders.
func (b base) rawInt(ctx context.Context, query string, args ...any) (int64, error) {
	var n sql.NullInt64
	if err := b.q.QueryRowContext(ctx, b.rebind(query), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

func (b base) rawQuery(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.q.QueryContext(ctx, b.rebind(query), args...)
}

// rebind rewrites '?' placeholders to '$n' for PostgreSQL.
func (b base) rebind(query string) string {
	if b.dialect != dialect.Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// mapErr turns driver unique violations into ErrDuplicate.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Join(ErrDuplicate, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// derefOrNil passes a nil pointer as SQL NULL.
func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
