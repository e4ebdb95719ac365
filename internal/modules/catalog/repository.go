package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrDuplicateName  = errors.New("product name already in use")
	ErrStockBelowSold = errors.New("stock below sold count")
	ErrInUse          = errors.New("product is referenced by orders")
	ErrImageNotFound  = errors.New("image not found")
	ErrTooManyImages  = errors.New("product image limit reached")
)

// Repository defines the data access contract for products and their images.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	// Update writes the editable fields. Sold is owned by the order workflow
	// and is never written here.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AddImage stores img unless the product already has max images.
	AddImage(ctx context.Context, img *Image, max int) error
	// ListImages returns image metadata for the given products, or for all
	// products when ids is empty.
	ListImages(ctx context.Context, ids ...uuid.UUID) ([]Image, error)
	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
	DeleteImages(ctx context.Context, productID uuid.UUID) (int64, error)
}
