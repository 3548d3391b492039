package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/election-results/db/migrate"
	"github.com/joseph-ayodele/election-results/internal/common"
)

type Config struct {
	Driver           string // common.DriverSQLite | common.DriverPostgres
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	BusyTimeout      time.Duration
}

// ConfigFrom copies the database group of the application config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		Driver:           c.Driver,
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
		BusyTimeout:      c.BusyTimeout,
	}
}

// DB bundles the database handle, the ent driver used for migrations and the
// dialect the query builders target.
type DB struct {
	SQL     *sql.DB
	Driver  *entsql.Driver
	Dialect string
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// Open connects to SQLite (embedded) or PostgreSQL and wraps the handle for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", common.DriverSQLite:
		return openSQLite(cfg, logger)
	case common.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	dsn, err := sqliteDSN(cfg.DSN, cfg.BusyTimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("opening sqlite database", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	// single writer; an in-memory database also lives on exactly one connection
	db.SetMaxOpenConns(1)
	return &DB{
		SQL:     db,
		Driver:  entsql.OpenDB(dialect.SQLite, db),
		Dialect: dialect.SQLite,
		logger:  logger,
	}, nil
}

// sqliteDSN turns a path (or ":memory:") into a modernc DSN with foreign keys
// and a busy timeout. The parent directory of a file path is created.
func sqliteDSN(path string, busy time.Duration) (string, error) {
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := fmt.Sprintf("_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", busy.Milliseconds())
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + pragmas, nil
	}
	if path == "" || path == ":memory:" {
		return "file::memory:?" + pragmas, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return "file:" + path + "?" + pragmas, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", common.DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "election-results"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{
		SQL:     db,
		Driver:  entsql.OpenDB(dialect.Postgres, db),
		Dialect: dialect.Postgres,
		pool:    pool,
		logger:  logger,
	}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.Driver.Close(); err != nil {
		db.logger.Error("failed to close database", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	db.logger.Debug("pinging database")
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.SQL.PingContext(ctx); err != nil {
		return common.DatabaseError("ping failed", err)
	}
	db.logger.Debug("database ping successful")
	return nil
}

// Migrate creates or extends the schema.
func (db *DB) Migrate(ctx context.Context) error {
	return migrate.Create(ctx, db.Driver, db.logger)
}

// Repos returns repositories that run outside any transaction.
func (db *DB) Repos() *Repositories {
	return NewRepositories(db.SQL, db.Dialect, db.logger)
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*Repositories) error) (err error) {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.DatabaseError("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()
	if err = fn(NewRepositories(tx, db.Dialect, db.logger)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return common.DatabaseError("commit transaction", err)
	}
	return nil
}

// Backup writes a consistent copy of a SQLite database into dir and returns
// its path. PostgreSQL backups are an operator task and are refused.
func (db *DB) Backup(ctx context.Context, dir, label string) (string, error) {
	if db.Dialect != dialect.SQLite {
		return "", common.NewAppError(common.CodeValidation, "backup is only supported for sqlite; use pg_dump", common.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	name := fmt.Sprintf("elections_%s_%s.db", label, time.Now().UTC().Format("20060102T150405Z"))
	target := filepath.Join(dir, name)
	if _, err := db.SQL.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return "", common.DatabaseError("backup", err)
	}
	db.logger.Info("database backed up", "path", target)
	return target, nil
}
