package address

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
)

// Service is a user's address book.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Address, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error)
	DeleteDefault(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*Address, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (*Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

var (
	errDefaultExists     = apperr.Business("A Default Address already exists")
	errNoDefault         = apperr.NotFound("No default address found")
	errNoDefaultToDelete = apperr.NotFound("No default address present for current user")
	errNoAddress         = apperr.NotFound("No address found with that id")
	errNoAddresses       = apperr.NotFound("No addresses found for current user")
)

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new address book service.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a := &Address{
		ID:          uuid.New(),
		UserID:      userID,
		Country:     req.Country,
		State:       req.State,
		City:        req.City,
		PostalCode:  req.PostalCode,
		FullAddress: req.FullAddress,
		IsDefault:   *req.IsDefault,
		CreatedAt:   s.now().UTC(),
	}
	if a.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, userID, uuid.Nil); err != nil {
			return nil, err
		}
	}
	// The partial unique index still catches a concurrent default insert.
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, mapRepoErr(err, errNoAddress)
	}
	return a, nil
}

func (s *service) GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error) {
	a, err := s.repo.GetDefault(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, errNoDefault)
	}
	return a, nil
}

func (s *service) DeleteDefault(ctx context.Context, userID uuid.UUID) error {
	return mapRepoErr(s.repo.DeleteDefault(ctx, userID), errNoDefaultToDelete)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Address, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errNoAddresses
	}
	return all, nil
}

func (s *service) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoAddresses
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*Address, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, mapRepoErr(err, errNoAddress)
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, mapRepoErr(err, errNoAddress)
	}
	req.apply(a)
	if a.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, userID, a.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, mapRepoErr(err, errNoAddress)
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return mapRepoErr(s.repo.Delete(ctx, userID, id), errNoAddress)
}

func (s *service) ensureNoOtherDefault(ctx context.Context, userID, except uuid.UUID) error {
	current, err := s.repo.GetDefault(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case current.ID != except:
		return errDefaultExists
	}
	return nil
}

func mapRepoErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return notFound
	case errors.Is(err, ErrDefaultExists):
		return errDefaultExists
	default:
		return err
	}
}
