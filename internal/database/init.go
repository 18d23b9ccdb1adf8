package database

import (
	"context"
	"fmt"

	"github.com/yourusername/rebound-edge/internal/config"
)

// Initialize creates a database connection pool and verifies the schema is present
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// A missing schema_migrations table means initial setup; an empty one
	// means migrations were never run against this database.
	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err == nil && migrationCount == 0 {
		db.Close()
		return nil, fmt.Errorf("database %s has an empty schema_migrations table", cfg.Database.Name)
	}

	return db, nil
}
