package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("address not found")
	ErrDefaultExists = errors.New("a default address already exists")
)

// Repository stores addresses. Every lookup is scoped to the owning user,
// so another user's address is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	Get(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Address, error)
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteDefault(ctx context.Context, userID uuid.UUID) error
	// DeleteAll removes every address of the user and returns how many there were.
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}
