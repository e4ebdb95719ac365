// Package catalogtest provides an in-memory catalog.Repository for tests.
package catalogtest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/catalog"
)

type Memory struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	images   map[uuid.UUID]catalog.Image
	// InUse marks products that order items still reference.
	InUse map[uuid.UUID]bool
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[uuid.UUID]catalog.Product),
		images:   make(map[uuid.UUID]catalog.Image),
		InUse:    make(map[uuid.UUID]bool),
	}
}

var _ catalog.Repository = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.products {
		if other.Name == p.Name {
			return catalog.ErrDuplicateName
		}
	}
	m.products[p.ID] = *p
	return nil
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) List(_ context.Context) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Product
	for _, p := range m.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Update(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	for id, other := range m.products {
		if id != p.ID && other.Name == p.Name {
			return catalog.ErrDuplicateName
		}
	}
	if p.Stock < cur.Sold {
		return catalog.ErrStockBelowSold
	}
	next := *p
	next.Sold = cur.Sold
	next.Images = nil
	m.products[p.ID] = next
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return catalog.ErrNotFound
	}
	if m.InUse[id] {
		return catalog.ErrInUse
	}
	delete(m.products, id)
	for imgID, img := range m.images {
		if img.ProductID == id {
			delete(m.images, imgID)
		}
	}
	return nil
}

// SetSold overwrites the sold counter, standing in for placed orders.
func (m *Memory) SetSold(id uuid.UUID, sold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Sold = sold
	m.products[id] = p
}

func (m *Memory) AddImage(_ context.Context, img *catalog.Image, max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[img.ProductID]; !ok {
		return catalog.ErrNotFound
	}
	n := 0
	for _, other := range m.images {
		if other.ProductID == img.ProductID {
			n++
		}
	}
	if n >= max {
		return catalog.ErrTooManyImages
	}
	m.images[img.ID] = *img
	return nil
}

func (m *Memory) ListImages(_ context.Context, ids ...uuid.UUID) ([]catalog.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Image
	for _, img := range m.images {
		if len(ids) == 0 || slices.Contains(ids, img.ProductID) {
			img.Data = nil
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetImage(_ context.Context, id uuid.UUID) (*catalog.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, catalog.ErrImageNotFound
	}
	return &img, nil
}

func (m *Memory) DeleteImage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return catalog.ErrImageNotFound
	}
	delete(m.images, id)
	return nil
}

func (m *Memory) DeleteImages(_ context.Context, productID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, img := range m.images {
		if img.ProductID == productID {
			delete(m.images, id)
			n++
		}
	}
	return n, nil
}
