package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
)

// Create brings the database schema up to date. It is additive: missing
// tables, columns and indexes are created; nothing is dropped.
func Create(ctx context.Context, drv dialect.Driver, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := schema.NewMigrate(drv,
		schema.WithForeignKeys(true),
		schema.WithDropColumn(false),
		schema.WithDropIndex(false),
	)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	logger.Info("applying schema", "dialect", drv.Dialect(), "tables", len(Tables))
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// TableNames lists the schema tables in creation order.
func TableNames() []string {
	names := make([]string, len(Tables))
	for i, t := range Tables {
		names[i] = t.Name
	}
	return names
}
