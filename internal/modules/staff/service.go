package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
)

// Service defines staff account management.
type Service interface {
	AddMember(ctx context.Context, req AddMemberRequest) (*Member, error)
	Get(ctx context.Context, id uuid.UUID) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	// UpdateProfile is a member editing their own profile.
	UpdateProfile(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*Member, error)
	// Update is an admin editing any member, including the role.
	Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*Member, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListVerifiedByRole returns members with the role and a verified email.
	ListVerifiedByRole(ctx context.Context, role access.Role) ([]*Member, error)
}

var errNoMember = apperr.NotFound("No Member found")

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new staff service.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) AddMember(ctx context.Context, req AddMemberRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := user.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	m := &Member{
		ID:           uuid.New(),
		Profile:      req.AccountInput.Profile(),
		Role:         req.Role,
		PasswordHash: hash,
		JoinedOn:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, mapRepoErr(err)
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return m, nil
}

func (s *service) List(ctx context.Context) ([]*Member, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*Member, error) {
	return s.Update(ctx, id, UpdateMemberRequest{ProfilePatch: patch})
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if req.ProfilePatch.Apply(&m.Profile) {
		m.EmailVerified = false
	}
	if req.Role != nil {
		m.Role = *req.Role
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, mapRepoErr(err)
	}
	return m, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *service) ListVerifiedByRole(ctx context.Context, role access.Role) ([]*Member, error) {
	return s.repo.ListVerifiedByRole(ctx, role)
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return errNoMember
	case errors.Is(err, ErrDuplicate):
		return apperr.Business("Duplicate key error")
	default:
		return err
	}
}
