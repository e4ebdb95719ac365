package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

var (
	ErrNotFound  = errors.New("staff member not found")
	ErrDuplicate = errors.New("username or email already in use")
)

// Repository defines the data access contract for staff accounts.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	ListVerifiedByRole(ctx context.Context, role access.Role) ([]*Member, error)
	Update(ctx context.Context, m *Member) error
	SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}
