package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopportable/shop-portable-backend/internal/modules/address"
	"github.com/shopportable/shop-portable-backend/internal/modules/catalog"
	"github.com/shopportable/shop-portable-backend/internal/modules/notification"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopspring/decimal"
)

// Service is the order workflow.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*Order, error)
	AddItems(ctx context.Context, userID, orderID uuid.UUID, lines []Line) (*Order, error)
	RemoveItem(ctx context.Context, userID, orderID, productID uuid.UUID) (*Order, error)
	CancelByUser(ctx context.Context, userID, orderID uuid.UUID) error
	CancelByAdmin(ctx context.Context, orderID uuid.UUID) error
	// Assign returns the order and the delivery man it now belongs to.
	Assign(ctx context.Context, orderID, deliveryManID uuid.UUID) (*Order, *staff.Member, error)
	// MarkDelivered is allowed to admins and to the order's own delivery man.
	MarkDelivered(ctx context.Context, by access.Principal, orderID uuid.UUID) (*Order, error)

	ListForUser(ctx context.Context, userID uuid.UUID, scope Scope) ([]*Order, error)
	ListAll(ctx context.Context, scope Scope) ([]*Order, error)
	ListForUserAdmin(ctx context.Context, userID uuid.UUID, scope Scope) ([]*Order, error)
	ListAssigned(ctx context.Context, deliveryManID uuid.UUID, scope Scope) ([]*Order, error)
	// GetForUser and GetForDeliveryMan include the order's items.
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error)
	GetForDeliveryMan(ctx context.Context, deliveryManID, orderID uuid.UUID) (*Order, error)
	ListItems(ctx context.Context, userID, orderID uuid.UUID) ([]*Item, error)
}

// AddressBook checks that a delivery address belongs to the ordering user.
type AddressBook interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*address.Address, error)
}

// StaffDirectory finds the staff an order is routed to.
type StaffDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*staff.Member, error)
	ListVerifiedByRole(ctx context.Context, role access.Role) ([]*staff.Member, error)
}

var (
	errBadAddress    = apperr.Business("Invalid delivery address")
	errBadItems      = apperr.Business("Invalid OrderItems Detail")
	errNoOrder       = apperr.NotFound("No order found")
	errNoOrderDeliv  = apperr.NotFound("No order is found")
	errNoItem        = apperr.NotFound("No item found for that product in this order")
	errOnItsWay      = apperr.Business("order already on its way")
	errLastItem      = apperr.Business("cannot remove; only one item left")
	errAlreadyMan    = apperr.Business("Order is already assigned to another delivery man")
	errNoDeliveryMan = apperr.Business("No delivery man with given id exist in your staff")
	errNotAssigned   = apperr.Business("Order is not assigned to any delivery man yet")
)

// errAlready rejects a change to an order that already left In Progress.
func errAlready(s Status) error {
	return apperr.Business("Order is already %s", strings.ToLower(string(s)))
}

type service struct {
	repo      Repository
	addresses AddressBook
	staff     StaffDirectory
	publisher notification.Publisher
	now       func() time.Time
}

func NewService(repo Repository, addresses AddressBook, members StaffDirectory, publisher notification.Publisher) Service {
	return &service{
		repo:      repo,
		addresses: addresses,
		staff:     members,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.addresses.Get(ctx, userID, req.DeliveryAddress); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, errBadAddress
		}
		return nil, err
	}
	if !validLines(req.OrderItems) {
		return nil, errBadItems
	}
	lines, ok := coalesce(req.OrderItems)
	if !ok {
		return nil, errBadItems
	}

	o := &Order{
		ID:              uuid.New(),
		UserID:          userID,
		DeliveryAddress: req.DeliveryAddress,
		Status:          StatusInProgress,
		TotalPrice:      decimal.Zero,
		OrderedOn:       s.now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		for _, l := range lines {
			it, err := s.newItem(ctx, tx, o.ID, l)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, it)
			o.TotalPrice = o.TotalPrice.Add(it.TotalPrice)
		}
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, mapRepoErr(err, errNoOrder)
	}

	s.notifyAdmins(ctx, o)
	return o, nil
}

func (s *service) AddItems(ctx context.Context, userID, orderID uuid.UUID, lines []Line) (*Order, error) {
	if err := (AddItemsRequest{OrderItems: lines}).Validate(); err != nil {
		return nil, err
	}
	if !validLines(lines) {
		return nil, errBadItems
	}
	lines, ok := coalesce(lines)
	if !ok {
		return nil, errBadItems
	}

	var o *Order
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		var err error
		if o, err = s.lockOpen(ctx, tx, userID, orderID); err != nil {
			return err
		}
		items, err := tx.Items(ctx, o.ID)
		if err != nil {
			return err
		}
		byProduct := make(map[uuid.UUID]*Item, len(items))
		for _, it := range items {
			byProduct[it.ProductID] = it
		}

		for _, l := range lines {
			existing, ok := byProduct[l.ProductID]
			if !ok {
				it, err := s.newItem(ctx, tx, o.ID, l)
				if err != nil {
					return err
				}
				items = append(items, it)
				o.TotalPrice = o.TotalPrice.Add(it.TotalPrice)
				continue
			}
			if !fits(existing.ItemCount, l.ItemCount) {
				return errBadItems
			}
			if _, err := tx.ReserveStock(ctx, l.ProductID, l.ItemCount); err != nil {
				return err
			}
			added := existing.UnitPrice.Mul(decimal.NewFromInt(int64(l.ItemCount)))
			existing.ItemCount += l.ItemCount
			existing.TotalPrice = existing.TotalPrice.Add(added)
			if err := tx.UpdateItem(ctx, existing); err != nil {
				return err
			}
			o.TotalPrice = o.TotalPrice.Add(added)
		}
		o.Items = items
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, mapRepoErr(err, errNoOrder)
	}
	return o, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, orderID, productID uuid.UUID) (*Order, error) {
	var o *Order
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		var err error
		if o, err = s.lockOpen(ctx, tx, userID, orderID); err != nil {
			return err
		}
		items, err := tx.Items(ctx, o.ID)
		if err != nil {
			return err
		}
		idx := -1
		for i, it := range items {
			if it.ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errNoItem
		}
		if len(items) == 1 {
			return errLastItem
		}

		it := items[idx]
		if err := tx.ReleaseStock(ctx, it.ProductID, it.ItemCount); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, it.ID); err != nil {
			return err
		}
		o.TotalPrice = o.TotalPrice.Sub(it.TotalPrice)
		o.Items = append(items[:idx:idx], items[idx+1:]...)
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, mapRepoErr(err, errNoOrder)
	}
	return o, nil
}

func (s *service) CancelByUser(ctx context.Context, userID, orderID uuid.UUID) error {
	return s.cancel(ctx, orderID, &userID)
}

func (s *service) CancelByAdmin(ctx context.Context, orderID uuid.UUID) error {
	return s.cancel(ctx, orderID, nil)
}

// cancel gives every reserved unit back and closes the order. owner limits
// the order to one user's.
func (s *service) cancel(ctx context.Context, orderID uuid.UUID, owner *uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if owner != nil && o.UserID != *owner {
			return ErrNotFound
		}
		if !CanTransition(o.Status, StatusCanceled) {
			return errAlready(o.Status)
		}
		items, err := tx.Items(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.ReleaseStock(ctx, it.ProductID, it.ItemCount); err != nil {
				return err
			}
		}
		now := s.now().UTC()
		o.Status = StatusCanceled
		o.CanceledOn = &now
		return tx.UpdateOrder(ctx, o)
	})
	return mapRepoErr(err, errNoOrder)
}

func (s *service) Assign(ctx context.Context, orderID, deliveryManID uuid.UUID) (*Order, *staff.Member, error) {
	man, err := s.staff.Get(ctx, deliveryManID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil, errNoDeliveryMan
		}
		return nil, nil, err
	}
	if man.Role != access.RoleDeliveryMan || !man.EmailVerified {
		return nil, nil, errNoDeliveryMan
	}

	var o *Order
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		if o, err = tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		if o.Status != StatusInProgress {
			return apperr.Business("Order status is %s", o.Status)
		}
		if o.Assigned() {
			return errAlreadyMan
		}
		o.DeliveryManID = &man.ID
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, nil, mapRepoErr(err, errNoOrder)
	}

	notification.Emit(ctx, s.publisher, notification.NewEvent(notification.TypeOrderAssigned, []string{man.Email}, map[string]string{
		"name":    man.FirstName,
		"orderId": o.ID.String(),
	}))
	return o, man, nil
}

func (s *service) MarkDelivered(ctx context.Context, by access.Principal, orderID uuid.UUID) (*Order, error) {
	var o *Order
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		var err error
		if o, err = tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		// A delivery man only sees the orders assigned to him.
		if by.Is(access.RoleDeliveryMan) && (!o.Assigned() || *o.DeliveryManID != by.ID) {
			return ErrNotFound
		}
		if !CanTransition(o.Status, StatusDelivered) {
			return errAlready(o.Status)
		}
		if !o.Assigned() {
			return errNotAssigned
		}
		now := s.now().UTC()
		o.Status = StatusDelivered
		o.DeliveredOn = &now
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, mapRepoErr(err, errNoOrder)
	}
	return o, nil
}

// ── listing ──────────────────────────────────────────────────────────────────

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, scope Scope) ([]*Order, error) {
	return s.list(ctx, ListFilter{UserID: &userID, Scope: scope}, "for current user")
}

func (s *service) ListAll(ctx context.Context, scope Scope) ([]*Order, error) {
	return s.list(ctx, ListFilter{Scope: scope}, "")
}

func (s *service) ListForUserAdmin(ctx context.Context, userID uuid.UUID, scope Scope) ([]*Order, error) {
	return s.list(ctx, ListFilter{UserID: &userID, Scope: scope}, "for that user")
}

func (s *service) ListAssigned(ctx context.Context, deliveryManID uuid.UUID, scope Scope) ([]*Order, error) {
	return s.list(ctx, ListFilter{DeliveryManID: &deliveryManID, Scope: scope}, "for that delivery man")
}

// list answers an empty result with a not-found naming the scope, e.g.
// "No canceled orders found for current user".
func (s *service) list(ctx context.Context, f ListFilter, whose string) ([]*Order, error) {
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		msg := "No orders found"
		if f.Scope != ScopeAll {
			msg = "No " + string(f.Scope) + " orders found"
		}
		if whose != "" {
			msg += " " + whose
		}
		return nil, apperr.NotFound("%s", msg)
	}
	return orders, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, mapRepoErr(err, errNoOrder)
	}
	if o.UserID != userID {
		return nil, errNoOrder
	}
	return s.withItems(ctx, o)
}

func (s *service) GetForDeliveryMan(ctx context.Context, deliveryManID, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, mapRepoErr(err, errNoOrderDeliv)
	}
	if !o.Assigned() || *o.DeliveryManID != deliveryManID {
		return nil, errNoOrderDeliv
	}
	return s.withItems(ctx, o)
}

func (s *service) ListItems(ctx context.Context, userID, orderID uuid.UUID) ([]*Item, error) {
	o, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// newItem reserves stock for l and writes a fresh line priced from the
// product's current price and discount.
func (s *service) newItem(ctx context.Context, tx Tx, orderID uuid.UUID, l Line) (*Item, error) {
	pricing, err := tx.ReserveStock(ctx, l.ProductID, l.ItemCount)
	if err != nil {
		return nil, err
	}
	unit := catalog.UnitPrice(pricing.Price, pricing.Discount).Round(2)
	it := &Item{
		ID:         uuid.New(),
		OrderID:    orderID,
		ProductID:  l.ProductID,
		ItemCount:  l.ItemCount,
		UnitPrice:  unit,
		TotalPrice: catalog.LineTotal(pricing.Price, pricing.Discount, l.ItemCount),
		CreatedAt:  s.now().UTC(),
	}
	if err := tx.InsertItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// lockOpen locks one of the user's orders whose items may still change.
func (s *service) lockOpen(ctx context.Context, tx Tx, userID, orderID uuid.UUID) (*Order, error) {
	o, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	if o.Status != StatusInProgress {
		return nil, errAlready(o.Status)
	}
	if o.Assigned() {
		return nil, errOnItsWay
	}
	return o, nil
}

func (s *service) withItems(ctx context.Context, o *Order) (*Order, error) {
	items, err := s.repo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *service) notifyAdmins(ctx context.Context, o *Order) {
	admins, err := s.staff.ListVerifiedByRole(ctx, access.RoleAdmin)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_id", o.ID.String()).Msg("admins not loaded for order notification")
		return
	}
	if len(admins) == 0 {
		return
	}
	to := make([]string, len(admins))
	for i, a := range admins {
		to[i] = a.Email
	}
	notification.Emit(ctx, s.publisher, notification.NewEvent(notification.TypeOrderCreated, to, map[string]string{
		"orderId":    o.ID.String(),
		"userId":     o.UserID.String(),
		"itemCount":  strconv.Itoa(len(o.Items)),
		"totalPrice": o.TotalPrice.StringFixed(2),
	}))
}

func mapRepoErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return notFound
	case errors.Is(err, ErrUnavailable):
		return errBadItems
	case errors.Is(err, ErrItemNotFound):
		return errNoItem
	default:
		return err
	}
}
