package order_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/address"
	"github.com/shopportable/shop-portable-backend/internal/modules/address/addresstest"
	"github.com/shopportable/shop-portable-backend/internal/modules/notification"
	"github.com/shopportable/shop-portable-backend/internal/modules/order"
	"github.com/shopportable/shop-portable-backend/internal/modules/order/ordertest"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff/stafftest"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notification.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(t notification.Type) []notification.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notification.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	repo    *ordertest.Memory
	book    address.Service
	members *stafftest.Memory
	pub     *recordingPublisher
	svc     order.Service
	userID  uuid.UUID
	addrID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    ordertest.NewMemory(),
		book:    address.NewService(addresstest.NewMemory()),
		members: stafftest.NewMemory(),
		pub:     &recordingPublisher{},
		userID:  uuid.New(),
	}
	f.svc = order.NewService(f.repo, f.book, staff.NewService(f.members), f.pub)
	f.addrID = f.addressOf(t, f.userID)
	return f
}

func (f *fixture) addressOf(t *testing.T, userID uuid.UUID) uuid.UUID {
	t.Helper()
	isDefault := false
	a, err := f.book.Create(context.Background(), userID, address.CreateRequest{
		Country:     "Pakistan",
		State:       "Sindh",
		City:        "Karachi",
		PostalCode:  "75500",
		FullAddress: "Flat 3, Block 7, Clifton",
		IsDefault:   &isDefault,
	})
	require.NoError(t, err)
	return a.ID
}

func (f *fixture) member(t *testing.T, role access.Role, verified bool) *staff.Member {
	t.Helper()
	id := uuid.New()
	m := &staff.Member{
		ID: id,
		Profile: user.Profile{
			Username:  "staff-" + id.String()[:8],
			FirstName: "Bilal",
			Email:     id.String()[:8] + "@shopportable.test",
		},
		Role:          role,
		EmailVerified: verified,
	}
	require.NoError(t, f.members.Create(context.Background(), m))
	return m
}

func (f *fixture) place(t *testing.T, lines ...order.Line) *order.Order {
	t.Helper()
	o, err := f.svc.PlaceOrder(context.Background(), f.userID, order.PlaceOrderRequest{
		DeliveryAddress: f.addrID,
		OrderItems:      lines,
	})
	require.NoError(t, err)
	return o
}

func line(id uuid.UUID, n int) order.Line { return order.Line{ProductID: id, ItemCount: n} }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// itemTotal sums the stored item totals of an order.
func (f *fixture) itemTotal(t *testing.T, orderID uuid.UUID) decimal.Decimal {
	t.Helper()
	items, err := f.repo.ListItems(context.Background(), orderID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

func TestPlaceOrderPricesItemsAndReservesStock(t *testing.T) {
	f := newFixture(t)
	admin := f.member(t, access.RoleAdmin, true)
	f.member(t, access.RoleAdmin, false)
	laptop := f.repo.AddProduct(price("100"), decimal.Zero, 10)
	mouse := f.repo.AddProduct(price("19.99"), price("12.5"), 5)

	o := f.place(t, line(laptop, 2), line(mouse, 1), line(laptop, 1))

	assert.Equal(t, order.StatusInProgress, o.Status)
	require.Len(t, o.Items, 2, "duplicate product lines are merged")
	assert.Equal(t, "317.49", o.TotalPrice.StringFixed(2))
	assert.True(t, o.TotalPrice.Equal(f.itemTotal(t, o.ID)))
	assert.Equal(t, 3, f.repo.Product(laptop).Sold)
	assert.Equal(t, 1, f.repo.Product(mouse).Sold)

	stored, err := f.svc.GetForUser(context.Background(), f.userID, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalPrice.Equal(o.TotalPrice))
	assert.Len(t, stored.Items, 2)

	events := f.pub.ofType(notification.TypeOrderCreated)
	require.Len(t, events, 1)
	assert.Equal(t, []string{admin.Email}, events[0].To, "only verified admins are told")
	assert.Equal(t, o.ID.String(), events[0].Data["orderId"])
	assert.Equal(t, "317.49", events[0].Data["totalPrice"])
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plenty := f.repo.AddProduct(price("50"), decimal.Zero, 5)
	scarce := f.repo.AddProduct(price("80"), decimal.Zero, 1)

	cases := map[string][]order.Line{
		"insufficient stock": {line(plenty, 2), line(scarce, 2)},
		"unknown product":    {line(plenty, 1), line(uuid.New(), 1)},
		"zero quantity":      {line(plenty, 0)},
		"negative quantity":  {line(plenty, -1)},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, f.userID, order.PlaceOrderRequest{
				DeliveryAddress: f.addrID,
				OrderItems:      lines,
			})
			require.Error(t, err)
			assert.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
			assert.Equal(t, "Invalid OrderItems Detail", err.Error())
			assert.Zero(t, f.repo.Product(plenty).Sold)
			assert.Zero(t, f.repo.Product(scarce).Sold)
		})
	}

	_, err := f.svc.ListForUser(ctx, f.userID, order.ScopeAll)
	assert.Equal(t, "No orders found for current user", err.Error(), "no partial order was written")
	assert.Empty(t, f.pub.ofType(notification.TypeOrderCreated))
}

func TestItemCountsStayInColumnRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("1"), decimal.Zero, math.MaxInt)

	cases := map[string][]order.Line{
		"sum wraps around":  {line(a, math.MaxInt/2+1), line(a, math.MaxInt/2+1)},
		"single line":       {line(a, math.MaxInt)},
		"merged past bound": {line(a, order.MaxItemCount), line(a, 1)},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, f.userID, order.PlaceOrderRequest{
				DeliveryAddress: f.addrID,
				OrderItems:      lines,
			})
			require.Error(t, err)
			assert.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
			assert.Equal(t, "Invalid OrderItems Detail", err.Error())
			assert.Zero(t, f.repo.Product(a).Sold)
		})
	}

	o := f.place(t, line(a, order.MaxItemCount))
	_, err := f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(a, 1)})
	require.Error(t, err)
	assert.Equal(t, "Invalid OrderItems Detail", err.Error())
	assert.Equal(t, order.MaxItemCount, f.repo.Product(a).Sold)

	got, err := f.svc.GetForUser(ctx, f.userID, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, order.MaxItemCount, got.Items[0].ItemCount)
	assert.True(t, got.TotalPrice.IsPositive())
}

func TestPlaceOrderValidatesRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.repo.AddProduct(price("10"), decimal.Zero, 3)

	_, err := f.svc.PlaceOrder(ctx, f.userID, order.PlaceOrderRequest{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	otherUsersAddress := f.addressOf(t, uuid.New())
	_, err = f.svc.PlaceOrder(ctx, f.userID, order.PlaceOrderRequest{
		DeliveryAddress: otherUsersAddress,
		OrderItems:      []order.Line{line(product, 1)},
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid delivery address", err.Error())
	assert.Zero(t, f.repo.Product(product).Sold)
}

func TestAddItemsMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("100"), decimal.Zero, 10)

	o := f.place(t, line(a, 2))
	assert.Equal(t, "200.00", o.TotalPrice.StringFixed(2))

	o, err := f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(a, 3)})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].ItemCount)
	assert.Equal(t, "500.00", o.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "500.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, 5, f.repo.Product(a).Sold)

	_, err = f.svc.RemoveItem(ctx, f.userID, o.ID, a)
	require.Error(t, err)
	assert.Equal(t, "cannot remove; only one item left", err.Error())
	assert.Equal(t, 5, f.repo.Product(a).Sold)
}

func TestAddItemsKeepsPlacedUnitPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("99.99"), price("10"), 10)
	o := f.place(t, line(a, 1))
	unit := o.Items[0].UnitPrice
	assert.Equal(t, "89.99", unit.StringFixed(2))

	o, err := f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(a, 2)})
	require.NoError(t, err)
	assert.Equal(t, "269.97", o.Items[0].TotalPrice.StringFixed(2))
	assert.True(t, o.TotalPrice.Equal(f.itemTotal(t, o.ID)))
}

func TestAddAndRemoveSecondItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("100"), decimal.Zero, 10)
	b := f.repo.AddProduct(price("40"), price("25"), 4)
	o := f.place(t, line(a, 1))

	_, err := f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(b, 5)})
	assert.Equal(t, "Invalid OrderItems Detail", err.Error())
	assert.Zero(t, f.repo.Product(b).Sold)

	o, err = f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(b, 2)})
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "160.00", o.TotalPrice.StringFixed(2))
	assert.True(t, o.TotalPrice.Equal(f.itemTotal(t, o.ID)))
	assert.Equal(t, 2, f.repo.Product(b).Sold)

	_, err = f.svc.RemoveItem(ctx, f.userID, o.ID, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	o, err = f.svc.RemoveItem(ctx, f.userID, o.ID, b)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "100.00", o.TotalPrice.StringFixed(2))
	assert.True(t, o.TotalPrice.Equal(f.itemTotal(t, o.ID)))
	assert.Zero(t, f.repo.Product(b).Sold)

	_, err = f.svc.AddItems(ctx, uuid.New(), o.ID, []order.Line{line(b, 1)})
	assert.Equal(t, "No order found", err.Error(), "another user's order looks absent")
}

func TestCancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("100"), decimal.Zero, 10)
	b := f.repo.AddProduct(price("5"), decimal.Zero, 10)
	o := f.place(t, line(a, 4), line(b, 6))

	err := f.svc.CancelByUser(ctx, uuid.New(), o.ID)
	assert.Equal(t, "No order found", err.Error())

	require.NoError(t, f.svc.CancelByUser(ctx, f.userID, o.ID))
	assert.Zero(t, f.repo.Product(a).Sold)
	assert.Zero(t, f.repo.Product(b).Sold)

	stored, err := f.svc.GetForUser(ctx, f.userID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCanceled, stored.Status)
	assert.NotNil(t, stored.CanceledOn)

	err = f.svc.CancelByUser(ctx, f.userID, o.ID)
	assert.Equal(t, "Order is already canceled", err.Error())
	err = f.svc.CancelByAdmin(ctx, o.ID)
	assert.Equal(t, "Order is already canceled", err.Error())
	assert.Zero(t, f.repo.Product(a).Sold, "a second cancel releases nothing")

	_, err = f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(a, 1)})
	assert.Equal(t, "Order is already canceled", err.Error())
}

func TestAssignAndDeliver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.repo.AddProduct(price("100"), decimal.Zero, 10)
	b := f.repo.AddProduct(price("10"), decimal.Zero, 10)
	o := f.place(t, line(a, 1), line(b, 1))

	unverified := f.member(t, access.RoleDeliveryMan, false)
	admin := f.member(t, access.RoleAdmin, true)
	courier := f.member(t, access.RoleDeliveryMan, true)
	other := f.member(t, access.RoleDeliveryMan, true)

	for _, id := range []uuid.UUID{unverified.ID, admin.ID, uuid.New()} {
		_, _, err := f.svc.Assign(ctx, o.ID, id)
		require.Error(t, err)
		assert.Equal(t, "No delivery man with given id exist in your staff", err.Error())
	}

	_, err := f.svc.MarkDelivered(ctx, access.Principal{ID: admin.ID, Kind: access.KindStaff, Role: access.RoleAdmin}, o.ID)
	assert.Equal(t, "Order is not assigned to any delivery man yet", err.Error())

	assigned, man, err := f.svc.Assign(ctx, o.ID, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, courier.ID, *assigned.DeliveryManID)
	assert.Equal(t, courier.Username, man.Username)
	events := f.pub.ofType(notification.TypeOrderAssigned)
	require.Len(t, events, 1)
	assert.Equal(t, []string{courier.Email}, events[0].To)

	_, _, err = f.svc.Assign(ctx, o.ID, other.ID)
	assert.Equal(t, "Order is already assigned to another delivery man", err.Error())

	_, err = f.svc.AddItems(ctx, f.userID, o.ID, []order.Line{line(a, 1)})
	assert.Equal(t, "order already on its way", err.Error())
	_, err = f.svc.RemoveItem(ctx, f.userID, o.ID, b)
	assert.Equal(t, "order already on its way", err.Error())

	asOther := access.Principal{ID: other.ID, Kind: access.KindStaff, Role: access.RoleDeliveryMan, Verified: true}
	_, err = f.svc.MarkDelivered(ctx, asOther, o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.svc.GetForDeliveryMan(ctx, other.ID, o.ID)
	assert.Equal(t, "No order is found", err.Error())

	asCourier := access.Principal{ID: courier.ID, Kind: access.KindStaff, Role: access.RoleDeliveryMan, Verified: true}
	delivered, err := f.svc.MarkDelivered(ctx, asCourier, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredOn)
	assert.Equal(t, 1, f.repo.Product(a).Sold, "delivery keeps the reservation")

	_, err = f.svc.MarkDelivered(ctx, asCourier, o.ID)
	assert.Equal(t, "Order is already delivered", err.Error())
	err = f.svc.CancelByUser(ctx, f.userID, o.ID)
	assert.Equal(t, "Order is already delivered", err.Error())
	_, _, err = f.svc.Assign(ctx, o.ID, other.ID)
	assert.Equal(t, "Order status is Delivered", err.Error())

	got, err := f.svc.GetForDeliveryMan(ctx, courier.ID, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestListingScopes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.repo.AddProduct(price("10"), decimal.Zero, 100)
	courier := f.member(t, access.RoleDeliveryMan, true)
	asCourier := access.Principal{ID: courier.ID, Kind: access.KindStaff, Role: access.RoleDeliveryMan, Verified: true}

	pending := f.place(t, line(p, 1))
	onWay := f.place(t, line(p, 1))
	canceled := f.place(t, line(p, 1))
	delivered := f.place(t, line(p, 1))

	_, _, err := f.svc.Assign(ctx, onWay.ID, courier.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Assign(ctx, delivered.ID, courier.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDelivered(ctx, asCourier, delivered.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelByAdmin(ctx, canceled.ID))

	ids := func(orders []*order.Order) []uuid.UUID {
		out := make([]uuid.UUID, len(orders))
		for i, o := range orders {
			out[i] = o.ID
		}
		return out
	}

	all, err := f.svc.ListForUser(ctx, f.userID, order.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	cases := map[order.Scope]uuid.UUID{
		order.ScopePending:   pending.ID,
		order.ScopeOnWay:     onWay.ID,
		order.ScopeCanceled:  canceled.ID,
		order.ScopeDelivered: delivered.ID,
	}
	for scope, want := range cases {
		got, err := f.svc.ListForUser(ctx, f.userID, scope)
		require.NoError(t, err, scope)
		assert.Equal(t, []uuid.UUID{want}, ids(got), scope)

		got, err = f.svc.ListAll(ctx, scope)
		require.NoError(t, err, scope)
		assert.Equal(t, []uuid.UUID{want}, ids(got), scope)
	}

	toDeliver, err := f.svc.ListAssigned(ctx, courier.ID, order.ScopeToDeliver)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{onWay.ID}, ids(toDeliver))
	assigned, err := f.svc.ListAssigned(ctx, courier.ID, order.ScopeAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{onWay.ID, delivered.ID}, ids(assigned))

	_, err = f.svc.ListAssigned(ctx, courier.ID, order.ScopeCanceled)
	assert.Equal(t, "No canceled orders found for that delivery man", err.Error())
	_, err = f.svc.ListForUserAdmin(ctx, uuid.New(), order.ScopeAll)
	assert.Equal(t, "No orders found for that user", err.Error())

	items, err := f.svc.ListItems(ctx, f.userID, pending.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	_, err = f.svc.ListItems(ctx, uuid.New(), pending.ID)
	assert.Equal(t, "No order found", err.Error())
}

func TestParseScope(t *testing.T) {
	s, err := order.ParseScope("", order.OrderScopes)
	require.NoError(t, err)
	assert.Equal(t, order.ScopeAll, s)
	assert.Equal(t, "allOrders", s.Key())

	s, err = order.ParseScope(" On-Way ", order.OrderScopes)
	require.NoError(t, err)
	assert.Equal(t, order.ScopeOnWay, s)
	assert.Equal(t, "onWayOrders", s.Key())

	s, err = order.ParseScope("to-deliver", order.AssignedScopes)
	require.NoError(t, err)
	assert.Equal(t, "toDeliverOrders", s.Key())

	_, err = order.ParseScope("to-deliver", order.OrderScopes)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = order.ParseScope("pending", order.AssignedScopes)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, order.CanTransition(order.StatusInProgress, order.StatusCanceled))
	assert.True(t, order.CanTransition(order.StatusInProgress, order.StatusDelivered))
	assert.False(t, order.CanTransition(order.StatusDelivered, order.StatusCanceled))
	assert.False(t, order.CanTransition(order.StatusCanceled, order.StatusInProgress))
	assert.False(t, order.CanTransition(order.StatusCanceled, order.StatusCanceled))
}
