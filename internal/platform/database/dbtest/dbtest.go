// Package dbtest gives repository tests a migrated, empty Postgres database.
// Tests are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/shopportable/shop-portable-backend/internal/platform/database"
	"github.com/stretchr/testify/require"
)

// Open connects to TEST_DATABASE_URL, migrates and truncates every table.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Open(context.Background(), url)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	_, err = db.Exec(`TRUNCATE profile_images, order_items, orders, product_images, products, addresses, staff, users CASCADE`)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}
