package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, user_id, delivery_address, delivery_man_id, status, total_price,
	ordered_on, delivered_on, canceled_on`

const itemColumns = `id, order_id, product_id, item_count, unit_price, total_price, created_at`

func (r *postgresRepo) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&pgTx{q: tx})
	})
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return getOrder(ctx, r.db, id, false)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Order, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.DeliveryManID != nil {
		args = append(args, *f.DeliveryManID)
		conds = append(conds, fmt.Sprintf("delivery_man_id = $%d", len(args)))
	}
	switch f.Scope {
	case ScopeCanceled:
		conds = append(conds, `status = 'Canceled'`)
	case ScopeDelivered:
		conds = append(conds, `status = 'Delivered'`)
	case ScopePending:
		conds = append(conds, `status = 'In Progress'`, `delivery_man_id IS NULL`)
	case ScopeOnWay:
		conds = append(conds, `status = 'In Progress'`, `delivery_man_id IS NOT NULL`)
	case ScopeToDeliver:
		conds = append(conds, `status = 'In Progress'`)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ordered_on DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]*Item, error) {
	return listItems(ctx, r.db, orderID)
}

// ── transaction ──────────────────────────────────────────────────────────────

type pgTx struct{ q database.DBTX }

func (t *pgTx) LockOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return getOrder(ctx, t.q, id, true)
}

func (t *pgTx) CreateOrder(ctx context.Context, o *Order) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, o.DeliveryAddress, nullUUID(o.DeliveryManID), o.Status, o.TotalPrice,
		o.OrderedOn, o.DeliveredOn, o.CanceledOn)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *Order) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE orders
		SET delivery_man_id = $2, status = $3, total_price = $4, delivered_on = $5, canceled_on = $6
		WHERE id = $1`,
		o.ID, nullUUID(o.DeliveryManID), o.Status, o.TotalPrice, o.DeliveredOn, o.CanceledOn)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

func (t *pgTx) Items(ctx context.Context, orderID uuid.UUID) ([]*Item, error) {
	return listItems(ctx, t.q, orderID)
}

func (t *pgTx) InsertItem(ctx context.Context, it *Item) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO order_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, it.OrderID, it.ProductID, it.ItemCount, it.UnitPrice, it.TotalPrice, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateItem(ctx context.Context, it *Item) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE order_items SET item_count = $2, total_price = $3 WHERE id = $1`,
		it.ID, it.ItemCount, it.TotalPrice)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	return expectOne(res, ErrItemNotFound)
}

func (t *pgTx) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	return expectOne(res, ErrItemNotFound)
}

func (t *pgTx) ReserveStock(ctx context.Context, productID uuid.UUID, n int) (Pricing, error) {
	var p Pricing
	err := t.q.QueryRowContext(ctx, `
		UPDATE products
		SET sold = sold + $2, updated_at = NOW()
		WHERE id = $1 AND stock - sold >= $2
		RETURNING price, discount`, productID, n).Scan(&p.Price, &p.Discount)
	if errors.Is(err, sql.ErrNoRows) {
		return Pricing{}, ErrUnavailable
	}
	if err != nil {
		return Pricing{}, fmt.Errorf("reserve stock: %w", err)
	}
	return p, nil
}

func (t *pgTx) ReleaseStock(ctx context.Context, productID uuid.UUID, n int) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE products
		SET sold = GREATEST(sold - $2, 0), updated_at = NOW()
		WHERE id = $1`, productID, n)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func getOrder(ctx context.Context, q database.DBTX, id uuid.UUID, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func scanOrder(scan func(...any) error) (*Order, error) {
	o := &Order{}
	var (
		man       uuid.NullUUID
		delivered sql.NullTime
		canceled  sql.NullTime
	)
	err := scan(&o.ID, &o.UserID, &o.DeliveryAddress, &man, &o.Status, &o.TotalPrice,
		&o.OrderedOn, &delivered, &canceled)
	if err != nil {
		return nil, err
	}
	if man.Valid {
		o.DeliveryManID = &man.UUID
	}
	if delivered.Valid {
		o.DeliveredOn = &delivered.Time
	}
	if canceled.Valid {
		o.CanceledOn = &canceled.Time
	}
	return o, nil
}

func listItems(ctx context.Context, q database.DBTX, orderID uuid.UUID) ([]*Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ItemCount,
			&it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
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
