package profileimage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("profile image not found")
	ErrExists   = errors.New("profile image already exists")
)

// Repository defines the data access contract for profile images. Every
// account has at most one image.
type Repository interface {
	Get(ctx context.Context, owner Owner) (*Image, error)
	Create(ctx context.Context, img *Image) error
	Replace(ctx context.Context, img *Image) error
	Delete(ctx context.Context, owner Owner) error
}
