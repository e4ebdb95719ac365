// Package profileimagetest provides an in-memory profileimage.Repository for
// tests.
package profileimagetest

import (
	"context"
	"sync"

	"github.com/shopportable/shop-portable-backend/internal/modules/profileimage"
)

type Memory struct {
	mu     sync.Mutex
	images map[profileimage.Owner]profileimage.Image
}

func NewMemory() *Memory {
	return &Memory{images: make(map[profileimage.Owner]profileimage.Image)}
}

var _ profileimage.Repository = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, owner profileimage.Owner) (*profileimage.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[owner]
	if !ok {
		return nil, profileimage.ErrNotFound
	}
	return &img, nil
}

func (m *Memory) Create(_ context.Context, img *profileimage.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[img.Owner]; ok {
		return profileimage.ErrExists
	}
	m.images[img.Owner] = *img
	return nil
}

func (m *Memory) Replace(_ context.Context, img *profileimage.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.images[img.Owner]
	if !ok {
		return profileimage.ErrNotFound
	}
	img.ID, img.Alt, img.CreatedAt = stored.ID, stored.Alt, stored.CreatedAt
	m.images[img.Owner] = *img
	return nil
}

func (m *Memory) Delete(_ context.Context, owner profileimage.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[owner]; !ok {
		return profileimage.ErrNotFound
	}
	delete(m.images, owner)
	return nil
}
