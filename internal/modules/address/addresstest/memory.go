// Package addresstest provides an in-memory address.Repository for tests.
package addresstest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/address"
)

type Memory struct {
	mu        sync.Mutex
	addresses map[uuid.UUID]address.Address
}

func NewMemory() *Memory {
	return &Memory{addresses: make(map[uuid.UUID]address.Address)}
}

var _ address.Repository = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, a *address.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.IsDefault && m.hasDefault(a.UserID, a.ID) {
		return address.ErrDefaultExists
	}
	m.addresses[a.ID] = *a
	return nil
}

func (m *Memory) Get(_ context.Context, userID, id uuid.UUID) (*address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) GetDefault(_ context.Context, userID uuid.UUID) (*address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addresses {
		a := a
		if a.UserID == userID && a.IsDefault {
			return &a, nil
		}
	}
	return nil, address.ErrNotFound
}

func (m *Memory) List(_ context.Context, userID uuid.UUID) ([]*address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*address.Address
	for _, a := range m.addresses {
		a := a
		if a.UserID == userID {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Update(_ context.Context, a *address.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.addresses[a.ID]
	if !ok || cur.UserID != a.UserID {
		return address.ErrNotFound
	}
	if a.IsDefault && m.hasDefault(a.UserID, a.ID) {
		return address.ErrDefaultExists
	}
	m.addresses[a.ID] = *a
	return nil
}

func (m *Memory) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return address.ErrNotFound
	}
	delete(m.addresses, id)
	return nil
}

func (m *Memory) DeleteDefault(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.addresses {
		if a.UserID == userID && a.IsDefault {
			delete(m.addresses, id)
			return nil
		}
	}
	return address.ErrNotFound
}

func (m *Memory) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.addresses {
		if a.UserID == userID {
			delete(m.addresses, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) hasDefault(userID, except uuid.UUID) bool {
	for id, a := range m.addresses {
		if id != except && a.UserID == userID && a.IsDefault {
			return true
		}
	}
	return false
}
