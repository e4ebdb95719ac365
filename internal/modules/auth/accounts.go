package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

var errNoAccount = errors.New("account not found")

// account is the part of a user or staff record the auth flows need.
type account struct {
	ID           uuid.UUID
	Kind         access.Kind
	Role         access.Role
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Verified     bool
}

func (a *account) principal() access.Principal {
	return access.Principal{ID: a.ID, Kind: a.Kind, Role: a.Role, Email: a.Email, Verified: a.Verified}
}

// accountStore hides which identity store an account lives in.
type accountStore interface {
	byID(ctx context.Context, id uuid.UUID) (*account, error)
	byEmail(ctx context.Context, email string) (*account, error)
	markVerified(ctx context.Context, id uuid.UUID) error
	remove(ctx context.Context, id uuid.UUID) error
}

type userAccounts struct{ repo user.Repository }

func fromUser(u *user.User) *account {
	return &account{
		ID:           u.ID,
		Kind:         access.KindUser,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Verified:     u.EmailVerified,
	}
}

func (s userAccounts) byID(ctx context.Context, id uuid.UUID) (*account, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, userErr(err)
	}
	return fromUser(u), nil
}

func (s userAccounts) byEmail(ctx context.Context, email string) (*account, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, userErr(err)
	}
	return fromUser(u), nil
}

func (s userAccounts) markVerified(ctx context.Context, id uuid.UUID) error {
	return userErr(s.repo.SetEmailVerified(ctx, id, true))
}

func (s userAccounts) remove(ctx context.Context, id uuid.UUID) error {
	return userErr(s.repo.Delete(ctx, id))
}

func userErr(err error) error {
	if errors.Is(err, user.ErrNotFound) {
		return errNoAccount
	}
	return err
}

type staffAccounts struct{ repo staff.Repository }

func fromMember(m *staff.Member) *account {
	return &account{
		ID:           m.ID,
		Kind:         access.KindStaff,
		Role:         m.Role,
		Username:     m.Username,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Verified:     m.EmailVerified,
	}
}

func (s staffAccounts) byID(ctx context.Context, id uuid.UUID) (*account, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, staffErr(err)
	}
	return fromMember(m), nil
}

func (s staffAccounts) byEmail(ctx context.Context, email string) (*account, error) {
	m, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, staffErr(err)
	}
	return fromMember(m), nil
}

func (s staffAccounts) markVerified(ctx context.Context, id uuid.UUID) error {
	return staffErr(s.repo.SetEmailVerified(ctx, id, true))
}

func (s staffAccounts) remove(ctx context.Context, id uuid.UUID) error {
	return staffErr(s.repo.Delete(ctx, id))
}

func staffErr(err error) error {
	if errors.Is(err, staff.ErrNotFound) {
		return errNoAccount
	}
	return err
}

type accountStores map[access.Kind]accountStore

func newAccountStores(users user.Repository, members staff.Repository) accountStores {
	return accountStores{
		access.KindUser:  userAccounts{repo: users},
		access.KindStaff: staffAccounts{repo: members},
	}
}

func (s accountStores) of(kind access.Kind) (accountStore, error) {
	store, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("unknown account kind %q", kind)
	}
	return store, nil
}

// Resolver loads principals for the access guard from the identity stores.
type Resolver struct {
	stores accountStores
}

func NewResolver(users user.Repository, members staff.Repository) *Resolver {
	return &Resolver{stores: newAccountStores(users, members)}
}

func (r *Resolver) Resolve(ctx context.Context, kind access.Kind, id uuid.UUID) (access.Principal, error) {
	store, err := r.stores.of(kind)
	if err != nil {
		return access.Principal{}, access.ErrAccountNotFound
	}
	a, err := store.byID(ctx, id)
	if errors.Is(err, errNoAccount) {
		return access.Principal{}, access.ErrAccountNotFound
	}
	if err != nil {
		return access.Principal{}, fmt.Errorf("resolve %s %s: %w", kind, id, err)
	}
	return a.principal(), nil
}
