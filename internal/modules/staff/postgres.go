package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const memberColumns = `id, username, first_name, last_name, gender, email, password_hash, role,
	email_verified, dob, country, state, city, postal_code, full_address, joined_on`

func (r *postgresRepo) Create(ctx context.Context, m *Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff (`+memberColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		m.ID, m.Username, m.FirstName, m.LastName, m.Gender, m.Email, m.PasswordHash, m.Role,
		m.EmailVerified, m.DOB, m.HomeAddress.Country, m.HomeAddress.State, m.HomeAddress.City,
		m.HomeAddress.PostalCode, m.HomeAddress.FullAddress, m.JoinedOn)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert staff member: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM staff WHERE email = $1`, email)
}

func (r *postgresRepo) List(ctx context.Context) ([]*Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM staff ORDER BY joined_on`)
}

func (r *postgresRepo) ListVerifiedByRole(ctx context.Context, role access.Role) ([]*Member, error) {
	return r.list(ctx, `
		SELECT `+memberColumns+` FROM staff
		WHERE role = $1 AND email_verified
		ORDER BY joined_on`, role)
}

func (r *postgresRepo) Update(ctx context.Context, m *Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE staff
		SET username=$2, first_name=$3, last_name=$4, gender=$5, email=$6, role=$7,
		    email_verified=$8, dob=$9, country=$10, state=$11, city=$12,
		    postal_code=$13, full_address=$14
		WHERE id=$1`,
		m.ID, m.Username, m.FirstName, m.LastName, m.Gender, m.Email, m.Role,
		m.EmailVerified, m.DOB, m.HomeAddress.Country, m.HomeAddress.State, m.HomeAddress.City,
		m.HomeAddress.PostalCode, m.HomeAddress.FullAddress)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update staff member: %w", err)
	}
	return rowsAffected(res)
}

func (r *postgresRepo) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE staff SET email_verified=$2 WHERE id=$1`, id, verified)
	if err != nil {
		return fmt.Errorf("verify staff email: %w", err)
	}
	return rowsAffected(res)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete staff member: %w", err)
	}
	return rowsAffected(res)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) getOne(ctx context.Context, query string, arg any) (*Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *postgresRepo) list(ctx context.Context, query string, args ...any) ([]*Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanMember(s interface{ Scan(...any) error }) (*Member, error) {
	m := &Member{}
	var dob sql.NullTime
	if err := s.Scan(
		&m.ID, &m.Username, &m.FirstName, &m.LastName, &m.Gender, &m.Email, &m.PasswordHash, &m.Role,
		&m.EmailVerified, &dob, &m.HomeAddress.Country, &m.HomeAddress.State, &m.HomeAddress.City,
		&m.HomeAddress.PostalCode, &m.HomeAddress.FullAddress, &m.JoinedOn,
	); err != nil {
		return nil, err
	}
	m.DOB = dob.Time
	return m, nil
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
