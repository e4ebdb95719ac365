// Package stafftest provides an in-memory staff.Repository for tests.
package stafftest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

type Memory struct {
	mu      sync.Mutex
	members map[uuid.UUID]staff.Member
}

func NewMemory() *Memory {
	return &Memory{members: make(map[uuid.UUID]staff.Member)}
}

var _ staff.Repository = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, s *staff.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.members {
		if id != s.ID && (other.Email == s.Email || other.Username == s.Username) {
			return staff.ErrDuplicate
		}
	}
	m.members[s.ID] = *s
	return nil
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*staff.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.members[id]
	if !ok {
		return nil, staff.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*staff.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.members {
		s := s
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, staff.ErrNotFound
}

func (m *Memory) List(ctx context.Context) ([]*staff.Member, error) {
	return m.filter(func(staff.Member) bool { return true }), nil
}

func (m *Memory) ListVerifiedByRole(_ context.Context, role access.Role) ([]*staff.Member, error) {
	return m.filter(func(s staff.Member) bool { return s.Role == role && s.EmailVerified }), nil
}

func (m *Memory) Update(_ context.Context, s *staff.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[s.ID]; !ok {
		return staff.ErrNotFound
	}
	m.members[s.ID] = *s
	return nil
}

func (m *Memory) SetEmailVerified(_ context.Context, id uuid.UUID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.members[id]
	if !ok {
		return staff.ErrNotFound
	}
	s.EmailVerified = verified
	m.members[id] = s
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[id]; !ok {
		return staff.ErrNotFound
	}
	delete(m.members, id)
	return nil
}

// Put stores s as-is.
func (m *Memory) Put(s staff.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[s.ID] = s
}

func (m *Memory) filter(keep func(staff.Member) bool) []*staff.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*staff.Member
	for _, s := range m.members {
		s := s
		if keep(s) {
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedOn.Before(out[j].JoinedOn) })
	return out
}
