package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrItemNotFound = errors.New("order item not found")
	// ErrUnavailable means the product is missing or has too few units left.
	ErrUnavailable = errors.New("product unavailable")
)

// Pricing is a product's price at the moment stock was reserved.
type Pricing struct {
	Price    decimal.Decimal
	Discount decimal.Decimal
}

// Repository defines read access to the order ledger and the transactional
// boundary for changing it.
type Repository interface {
	// WithTx runs fn in one transaction, committing only when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]*Item, error)
}

// Tx is the ledger inside a transaction.
type Tx interface {
	// LockOrder loads the order and holds its row until the transaction ends.
	LockOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	CreateOrder(ctx context.Context, o *Order) error
	// UpdateOrder writes status, total, delivery man and timestamps.
	UpdateOrder(ctx context.Context, o *Order) error

	Items(ctx context.Context, orderID uuid.UUID) ([]*Item, error)
	InsertItem(ctx context.Context, it *Item) error
	UpdateItem(ctx context.Context, it *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// ReserveStock adds n to the product's sold count only if at least n
	// units remain, returning its current pricing. ErrUnavailable otherwise.
	ReserveStock(ctx context.Context, productID uuid.UUID, n int) (Pricing, error)
	// ReleaseStock takes n back off the product's sold count.
	ReleaseStock(ctx context.Context, productID uuid.UUID, n int) error
}
