// Package usertest provides an in-memory user.Repository for tests.
package usertest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
)

type Memory struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[uuid.UUID]user.User)}
}

var _ user.Repository = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts(u) {
		return user.ErrDuplicate
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		u := u
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *Memory) List(_ context.Context) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedOn.Before(out[j].JoinedOn) })
	return out, nil
}

func (m *Memory) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return user.ErrNotFound
	}
	if m.conflicts(u) {
		return user.ErrDuplicate
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) SetEmailVerified(_ context.Context, id uuid.UUID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.EmailVerified = verified
	m.users[id] = u
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Put stores u as-is, bypassing uniqueness checks.
func (m *Memory) Put(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) conflicts(u *user.User) bool {
	for id, other := range m.users {
		if id != u.ID && (other.Email == u.Email || other.Username == u.Username) {
			return true
		}
	}
	return false
}
