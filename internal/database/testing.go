package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/rebound-edge/internal/config"
)

// SetupTestDB creates a test database connection and verifies it.
// Skips the calling test unless REBOUND_EDGE_TEST_CONFIG points at a config file.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	configPath := os.Getenv("REBOUND_EDGE_TEST_CONFIG")
	if configPath == "" {
		t.Skip("integration test - set REBOUND_EDGE_TEST_CONFIG to run")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
