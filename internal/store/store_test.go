// Store tests run against a real PostgreSQL configured through the same
// environment variables as the server. They skip when it is unreachable.
package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"landingkit/internal/config"
	"landingkit/internal/database"
)

// testDB connects with the server's configuration and migrates the schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	db, err := database.Connect(context.Background(), cfg.DSN(), database.Pool{MaxOpen: 4})
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// cleanPages deletes pages by id. Revisions cascade.
func cleanPages(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		if _, err := db.Exec("DELETE FROM landing_pages WHERE id = $1", id); err != nil {
			t.Logf("clean page %s: %v", id, err)
		}
	}
}

// cleanMediaByKey deletes media rows by object key.
func cleanMediaByKey(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if _, err := db.Exec("DELETE FROM media WHERE s3_key = $1", key); err != nil {
			t.Logf("clean media %s: %v", key, err)
		}
	}
}
