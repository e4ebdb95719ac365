package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "users_email_key"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert user: %w", dup)))
	assert.True(t, IsUniqueViolation(dup, "users_username_key", "users_email_key"))
	assert.False(t, IsUniqueViolation(dup, "products_name_key"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestInTxRollsBackOnError(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	// temp tables are per connection
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TEMP TABLE intx_rows (n INT)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = InTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO intx_rows VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM intx_rows`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, InTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO intx_rows VALUES (2)`)
		return err
	}))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM intx_rows`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete: %w", &pq.Error{Code: "23503"})))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}

func TestIsCheckViolation(t *testing.T) {
	err := fmt.Errorf("update product: %w", &pq.Error{Code: "23514", Constraint: "products_sold_le_stock"})
	assert.True(t, IsCheckViolation(err))
	assert.True(t, IsCheckViolation(err, "products_sold_le_stock"))
	assert.False(t, IsCheckViolation(err, "products_price_check"))
	assert.False(t, IsCheckViolation(&pq.Error{Code: "23505"}))
}
