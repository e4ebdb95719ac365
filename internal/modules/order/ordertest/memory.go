// Package ordertest provides an in-memory order.Repository for tests.
//
// Transactions run one at a time against a copy of the state, which is
// committed only when the transaction function succeeds.
package ordertest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/order"
	"github.com/shopspring/decimal"
)

// Product is the stock view the order workflow touches.
type Product struct {
	Price    decimal.Decimal
	Discount decimal.Decimal
	Stock    int
	Sold     int
}

type state struct {
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID]order.Item
	products map[uuid.UUID]Product
}

func (s state) clone() state {
	c := state{
		orders:   make(map[uuid.UUID]order.Order, len(s.orders)),
		items:    make(map[uuid.UUID]order.Item, len(s.items)),
		products: make(map[uuid.UUID]Product, len(s.products)),
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	return c
}

type Memory struct {
	mu sync.Mutex
	st state
}

func NewMemory() *Memory {
	return &Memory{st: state{
		orders:   make(map[uuid.UUID]order.Order),
		items:    make(map[uuid.UUID]order.Item),
		products: make(map[uuid.UUID]Product),
	}}
}

var _ order.Repository = (*Memory)(nil)

// AddProduct stocks a product and returns its id.
func (m *Memory) AddProduct(price, discount decimal.Decimal, stock int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.st.products[id] = Product{Price: price, Discount: discount, Stock: stock}
	return id
}

func (m *Memory) Product(id uuid.UUID) Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.products[id]
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx order.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *Memory) List(_ context.Context, f order.ListFilter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.st.orders {
		o := o
		if f.Matches(&o) {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedOn.After(out[j].OrderedOn) })
	return out, nil
}

func (m *Memory) ListItems(_ context.Context, orderID uuid.UUID) ([]*order.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return itemsOf(m.st, orderID), nil
}

func itemsOf(st state, orderID uuid.UUID) []*order.Item {
	var out []*order.Item
	for _, it := range st.items {
		it := it
		if it.OrderID == orderID {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProductID.String() < out[j].ProductID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type memTx struct{ st state }

func (t *memTx) LockOrder(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = nil
	return &o, nil
}

func (t *memTx) CreateOrder(_ context.Context, o *order.Order) error {
	stored := *o
	stored.Items = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *memTx) UpdateOrder(_ context.Context, o *order.Order) error {
	if _, ok := t.st.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	stored := *o
	stored.Items = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *memTx) Items(_ context.Context, orderID uuid.UUID) ([]*order.Item, error) {
	return itemsOf(t.st, orderID), nil
}

func (t *memTx) InsertItem(_ context.Context, it *order.Item) error {
	t.st.items[it.ID] = *it
	return nil
}

func (t *memTx) UpdateItem(_ context.Context, it *order.Item) error {
	cur, ok := t.st.items[it.ID]
	if !ok {
		return order.ErrItemNotFound
	}
	cur.ItemCount = it.ItemCount
	cur.TotalPrice = it.TotalPrice
	t.st.items[it.ID] = cur
	return nil
}

func (t *memTx) DeleteItem(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.items[id]; !ok {
		return order.ErrItemNotFound
	}
	delete(t.st.items, id)
	return nil
}

func (t *memTx) ReserveStock(_ context.Context, productID uuid.UUID, n int) (order.Pricing, error) {
	p, ok := t.st.products[productID]
	if !ok || p.Stock-p.Sold < n {
		return order.Pricing{}, order.ErrUnavailable
	}
	p.Sold += n
	t.st.products[productID] = p
	return order.Pricing{Price: p.Price, Discount: p.Discount}, nil
}

func (t *memTx) ReleaseStock(_ context.Context, productID uuid.UUID, n int) error {
	p, ok := t.st.products[productID]
	if !ok {
		return nil
	}
	p.Sold -= n
	if p.Sold < 0 {
		p.Sold = 0
	}
	t.st.products[productID] = p
	return nil
}
