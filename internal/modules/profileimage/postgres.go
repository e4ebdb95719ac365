package profileimage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ownerColumn is the foreign key column for the owner's account table.
func ownerColumn(kind access.Kind) string {
	if kind == access.KindStaff {
		return "staff_id"
	}
	return "user_id"
}

func (r *postgresRepo) Get(ctx context.Context, owner Owner) (*Image, error) {
	img := &Image{Owner: owner}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, alt, content_type, size_bytes, data, created_at, updated_at
		FROM profile_images WHERE `+ownerColumn(owner.Kind)+` = $1`, owner.ID).
		Scan(&img.ID, &img.Alt, &img.ContentType, &img.Size, &img.Data, &img.CreatedAt, &img.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile image: %w", err)
	}
	return img, nil
}

func (r *postgresRepo) Create(ctx context.Context, img *Image) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_images (id, `+ownerColumn(img.Owner.Kind)+`, alt, content_type, size_bytes, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		img.ID, img.Owner.ID, img.Alt, img.ContentType, img.Size, img.Data, img.CreatedAt, img.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("insert profile image: %w", err)
	}
	return nil
}

// Replace swaps the picture bytes and fills in the stored id, alt and
// creation time.
func (r *postgresRepo) Replace(ctx context.Context, img *Image) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE profile_images
		SET content_type = $2, size_bytes = $3, data = $4, updated_at = $5
		WHERE `+ownerColumn(img.Owner.Kind)+` = $1
		RETURNING id, alt, created_at`,
		img.Owner.ID, img.ContentType, img.Size, img.Data, img.UpdatedAt).
		Scan(&img.ID, &img.Alt, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("replace profile image: %w", err)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, owner Owner) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_images WHERE `+ownerColumn(owner.Kind)+` = $1`, owner.ID)
	if err != nil {
		return fmt.Errorf("delete profile image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
