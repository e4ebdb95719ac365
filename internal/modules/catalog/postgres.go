package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id, name, description, price, category, condition, stock, sold, discount,
	brand, creator_id, launch_date, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Condition, p.Stock, p.Sold, p.Discount,
		p.Brand, nullUUID(p.CreatorID), nullTime(p), p.CreatedAt, p.UpdatedAt)
	if database.IsUniqueViolation(err, "products_name_key") {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func scanProduct(scan func(...any) error) (*Product, error) {
	p := &Product{}
	var creator uuid.NullUUID
	var launch sql.NullTime
	err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Condition, &p.Stock,
		&p.Sold, &p.Discount, &p.Brand, &creator, &launch, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if creator.Valid {
		p.CreatorID = &creator.UUID
	}
	p.LaunchDate = launch.Time
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, condition = $6,
		    stock = $7, discount = $8, brand = $9, launch_date = $10, updated_at = $11
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Condition,
		p.Stock, p.Discount, p.Brand, nullTime(p), p.UpdatedAt)
	switch {
	case database.IsUniqueViolation(err, "products_name_key"):
		return ErrDuplicateName
	case database.IsCheckViolation(err, "products_sold_le_stock"):
		return ErrStockBelowSold
	case err != nil:
		return fmt.Errorf("update product: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

// ── images ───────────────────────────────────────────────────────────────────

func (r *postgresRepo) AddImage(ctx context.Context, img *Image, max int) error {
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, img.ProductID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM product_images WHERE product_id = $1`, img.ProductID).Scan(&n); err != nil {
			return fmt.Errorf("count images: %w", err)
		}
		if n >= max {
			return ErrTooManyImages
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_images (id, product_id, content_type, size_bytes, data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			img.ID, img.ProductID, img.ContentType, img.Size, img.Data, img.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
		return nil
	})
}

func (r *postgresRepo) ListImages(ctx context.Context, ids ...uuid.UUID) ([]Image, error) {
	query := `SELECT id, product_id, content_type, size_bytes, created_at FROM product_images`
	var args []any
	if len(ids) > 0 {
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = id.String()
		}
		query += ` WHERE product_id = ANY($1::uuid[])`
		args = append(args, pq.Array(strs))
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ContentType, &img.Size, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *postgresRepo) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, content_type, size_bytes, created_at, data
		FROM product_images WHERE id = $1`, id).
		Scan(&img.ID, &img.ProductID, &img.ContentType, &img.Size, &img.CreatedAt, &img.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func (r *postgresRepo) DeleteImage(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return expectOne(res, ErrImageNotFound)
}

func (r *postgresRepo) DeleteImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete images: %w", err)
	}
	return res.RowsAffected()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(p *Product) sql.NullTime {
	return sql.NullTime{Time: p.LaunchDate, Valid: !p.LaunchDate.IsZero()}
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
