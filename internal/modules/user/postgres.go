package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, username, first_name, last_name, gender, email, password_hash,
	email_verified, dob, country, state, city, postal_code, full_address, joined_on`

func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.FirstName, u.LastName, u.Gender, u.Email, u.PasswordHash,
		u.EmailVerified, u.DOB, u.HomeAddress.Country, u.HomeAddress.State, u.HomeAddress.City,
		u.HomeAddress.PostalCode, u.HomeAddress.FullAddress, u.JoinedOn)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresRepository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY joined_on`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, gender = $5, email = $6,
		    email_verified = $7, dob = $8, country = $9, state = $10, city = $11,
		    postal_code = $12, full_address = $13
		WHERE id = $1`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Gender, u.Email,
		u.EmailVerified, u.DOB, u.HomeAddress.Country, u.HomeAddress.State, u.HomeAddress.City,
		u.HomeAddress.PostalCode, u.HomeAddress.FullAddress)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepository) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET email_verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return fmt.Errorf("verify user email: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

// ── helpers ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(s scanner) (*User, error) {
	u := &User{}
	var dob sql.NullTime
	err := s.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Gender, &u.Email, &u.PasswordHash,
		&u.EmailVerified, &dob, &u.HomeAddress.Country, &u.HomeAddress.State, &u.HomeAddress.City,
		&u.HomeAddress.PostalCode, &u.HomeAddress.FullAddress, &u.JoinedOn,
	)
	if err != nil {
		return nil, err
	}
	u.DOB = dob.Time
	return u, nil
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
