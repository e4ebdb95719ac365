package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Service defines customer account management.
type Service interface {
	// Register creates an unverified account from a validated input.
	Register(ctx context.Context, in AccountInput) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// Update applies a profile patch. Changing the email clears verification.
	Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var errNoUser = apperr.NotFound("No user found with that id")

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// HashPassword hashes a plaintext password with a per-call random salt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *service) Register(ctx context.Context, in AccountInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Profile:      in.Profile(),
		PasswordHash: hash,
		JoinedOn:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, mapRepoErr(err)
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if patch.Apply(&u.Profile) {
		u.EmailVerified = false
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, mapRepoErr(err)
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errNoUser
	case errors.Is(err, ErrDuplicate):
		return apperr.Business("username or email already in use")
	default:
		return err
	}
}
