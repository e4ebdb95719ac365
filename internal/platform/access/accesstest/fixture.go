// Package accesstest builds guards backed by in-memory tokens for handler tests.
package accesstest

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

// Fixture is both the token verifier and the account resolver of a Guard.
type Fixture struct {
	mu       sync.Mutex
	tokens   map[string]access.Claims
	accounts map[uuid.UUID]access.Principal
}

func New() *Fixture {
	return &Fixture{
		tokens:   make(map[string]access.Claims),
		accounts: make(map[uuid.UUID]access.Principal),
	}
}

// Guard returns a guard backed by f.
func (f *Fixture) Guard() *access.Guard { return access.NewGuard(f, f) }

// Login registers p (assigning an id if unset) and returns a token for it.
func (f *Fixture) Login(p access.Principal) (access.Principal, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	token := "token-" + p.ID.String()
	f.tokens[token] = access.Claims{Subject: p.ID, Kind: p.Kind}
	f.accounts[p.ID] = p
	return p, token
}

func (f *Fixture) User() (access.Principal, string) {
	return f.Login(access.Principal{Kind: access.KindUser, Verified: true})
}

func (f *Fixture) Staff(role access.Role) (access.Principal, string) {
	return f.Login(access.Principal{Kind: access.KindStaff, Role: role, Verified: true})
}

func (f *Fixture) VerifyAccess(_ context.Context, token string) (access.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.tokens[token]
	if !ok {
		return access.Claims{}, errors.New("unknown token")
	}
	return c, nil
}

func (f *Fixture) Resolve(_ context.Context, kind access.Kind, id uuid.UUID) (access.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.accounts[id]
	if !ok || p.Kind != kind {
		return access.Principal{}, access.ErrAccountNotFound
	}
	return p, nil
}
