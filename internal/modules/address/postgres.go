package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

const defaultIndex = "addresses_one_default_idx"

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL address repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const addressColumns = `id, user_id, country, state, city, postal_code, full_address, is_default, created_at`

func (r *postgresRepository) Create(ctx context.Context, a *Address) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.Country, a.State, a.City, a.PostalCode, a.FullAddress, a.IsDefault, a.CreatedAt)
	if database.IsUniqueViolation(err, defaultIndex) {
		return ErrDefaultExists
	}
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *postgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Address, error) {
	return r.getOne(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *postgresRepository) GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error) {
	return r.getOne(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND is_default`, userID)
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]*Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []*Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, a *Address) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE addresses
		SET country = $3, state = $4, city = $5, postal_code = $6, full_address = $7, is_default = $8
		WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Country, a.State, a.City, a.PostalCode, a.FullAddress, a.IsDefault)
	if database.IsUniqueViolation(err, defaultIndex) {
		return ErrDefaultExists
	}
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepository) DeleteDefault(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("delete default address: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete addresses: %w", err)
	}
	return res.RowsAffected()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func (r *postgresRepository) getOne(ctx context.Context, query string, args ...any) (*Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func scanAddress(s scanner) (*Address, error) {
	a := &Address{}
	err := s.Scan(&a.ID, &a.UserID, &a.Country, &a.State, &a.City, &a.PostalCode,
		&a.FullAddress, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
