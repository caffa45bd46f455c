package data

import (
	"context"
	"database/sql"

	"github.com/dealerops/agenda-api/internal/migrate"
)

// RunMigrations applies the agenda schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}

// MigrationStatus reports which embedded migrations have been applied.
func MigrationStatus(ctx context.Context, db *sql.DB) ([]migrate.Migration, error) {
	return migrate.Status(ctx, db)
}
