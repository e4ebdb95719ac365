package order

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
	"github.com/shopspring/decimal"
)

// Status is where an order is in its lifecycle. Delivered and Canceled are
// terminal.
type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusDelivered  Status = "Delivered"
	StatusCanceled   Status = "Canceled"
)

// validTransitions is the order state machine. Assignment keeps an order
// In Progress and is not a transition.
var validTransitions = map[Status][]Status{
	StatusInProgress: {StatusDelivered, StatusCanceled},
	StatusDelivered:  {},
	StatusCanceled:   {},
}

// CanTransition reports whether an order may move from current to next.
func CanTransition(current, next Status) bool {
	return slices.Contains(validTransitions[current], next)
}

// Order is a user's purchase. TotalPrice is always the sum of its items.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user"`
	DeliveryAddress uuid.UUID       `json:"deliveryAddress"`
	DeliveryManID   *uuid.UUID      `json:"deliveryMan"`
	Status          Status          `json:"status"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	OrderedOn       time.Time       `json:"orderedOn"`
	DeliveredOn     *time.Time      `json:"deliveredOn,omitempty"`
	CanceledOn      *time.Time      `json:"canceledOn,omitempty"`
	Items           []*Item         `json:"orderItems,omitempty"`
}

// Assigned reports whether a delivery man has been set.
func (o *Order) Assigned() bool { return o.DeliveryManID != nil }

// Open reports whether items may still change: in progress and unassigned.
func (o *Order) Open() bool { return o.Status == StatusInProgress && !o.Assigned() }

// Item is one product line of an order. UnitPrice is fixed when the line is
// first created.
type Item struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"orderId"`
	ProductID  uuid.UUID       `json:"productId"`
	ItemCount  int             `json:"itemCount"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Line is a requested (product, quantity) pair.
type Line struct {
	ProductID uuid.UUID `json:"productId"`
	ItemCount int       `json:"itemCount"`
}

// PlaceOrderRequest is the body of POST /api/orders.
type PlaceOrderRequest struct {
	DeliveryAddress uuid.UUID `json:"deliveryAddress"`
	OrderItems      []Line    `json:"orderItems"`
}

func (r PlaceOrderRequest) Validate() error {
	var errs web.Errors
	errs.Check(r.DeliveryAddress != uuid.Nil, "deliveryAddress", "deliveryAddress is required")
	errs.Check(len(r.OrderItems) > 0, "orderItems", "orderItems must have at least one item")
	return errs.Err()
}

// AddItemsRequest is the body of POST /api/orders/add-items/{orderId}.
type AddItemsRequest struct {
	OrderItems []Line `json:"orderItems"`
}

func (r AddItemsRequest) Validate() error {
	var errs web.Errors
	errs.Check(len(r.OrderItems) > 0, "orderItems", "orderItems must have at least one item")
	return errs.Err()
}

// AssignRequest is the body of PUT /api/orders/assign-order/{orderId}.
type AssignRequest struct {
	DeliveryMan uuid.UUID `json:"deliveryMan"`
}

func (r AssignRequest) Validate() error {
	var errs web.Errors
	errs.Check(r.DeliveryMan != uuid.Nil, "deliveryMan", "deliveryMan is required")
	return errs.Err()
}

// MaxItemCount is the largest quantity one order line may hold, the range of
// the item_count and sold columns.
const MaxItemCount = math.MaxInt32

// coalesce sums duplicate product lines and sorts them by product id, the
// order in which product rows get locked. It reports false when a summed line
// exceeds MaxItemCount.
func coalesce(lines []Line) ([]Line, bool) {
	byProduct := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if !fits(byProduct[l.ProductID], l.ItemCount) {
			return nil, false
		}
		byProduct[l.ProductID] += l.ItemCount
	}
	out := make([]Line, 0, len(byProduct))
	for id, n := range byProduct {
		out = append(out, Line{ProductID: id, ItemCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, true
}

// fits reports whether current+n stays within MaxItemCount. Both operands are
// already in range, so the comparison cannot overflow.
func fits(current, n int) bool {
	return current <= MaxItemCount-n
}

func validLines(lines []Line) bool {
	for _, l := range lines {
		if l.ProductID == uuid.Nil || l.ItemCount <= 0 || l.ItemCount > MaxItemCount {
			return false
		}
	}
	return true
}

// ── listing ──────────────────────────────────────────────────────────────────

// Scope narrows an order listing by lifecycle state.
type Scope string

const (
	ScopeAll       Scope = ""
	ScopeCanceled  Scope = "canceled"
	ScopeDelivered Scope = "delivered"
	// ScopePending is in progress and not yet assigned.
	ScopePending Scope = "pending"
	// ScopeOnWay is in progress and assigned.
	ScopeOnWay Scope = "on-way"
	// ScopeToDeliver is every in-progress order of a delivery man.
	ScopeToDeliver Scope = "to-deliver"
)

// OrderScopes are the filters accepted for user and admin listings.
var OrderScopes = []Scope{ScopeCanceled, ScopeDelivered, ScopePending, ScopeOnWay}

// AssignedScopes are the filters accepted for a delivery man's orders.
var AssignedScopes = []Scope{ScopeCanceled, ScopeDelivered, ScopeToDeliver}

// ParseScope reads a ?status= value. Empty means ScopeAll.
func ParseScope(raw string, allowed []Scope) (Scope, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ScopeAll, nil
	}
	for _, s := range allowed {
		if string(s) == raw {
			return s, nil
		}
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	var errs web.Errors
	errs.Add("status", "status must be one of "+strings.Join(names, ", "))
	return "", errs.Err()
}

// Key is the response field a listing of s is returned under.
func (s Scope) Key() string {
	switch s {
	case ScopeCanceled:
		return "canceledOrders"
	case ScopeDelivered:
		return "deliveredOrders"
	case ScopePending:
		return "pendingOrders"
	case ScopeToDeliver:
		return "toDeliverOrders"
	case ScopeOnWay:
		return "onWayOrders"
	default:
		return "allOrders"
	}
}

func (s Scope) matches(o *Order) bool {
	switch s {
	case ScopeCanceled:
		return o.Status == StatusCanceled
	case ScopeDelivered:
		return o.Status == StatusDelivered
	case ScopePending:
		return o.Status == StatusInProgress && !o.Assigned()
	case ScopeOnWay:
		return o.Status == StatusInProgress && o.Assigned()
	case ScopeToDeliver:
		return o.Status == StatusInProgress
	default:
		return true
	}
}

// ListFilter selects orders. Nil ids are not filtered on.
type ListFilter struct {
	UserID        *uuid.UUID
	DeliveryManID *uuid.UUID
	Scope         Scope
}

// Matches reports whether o passes f.
func (f ListFilter) Matches(o *Order) bool {
	if f.UserID != nil && o.UserID != *f.UserID {
		return false
	}
	if f.DeliveryManID != nil && (o.DeliveryManID == nil || *o.DeliveryManID != *f.DeliveryManID) {
		return false
	}
	return f.Scope.matches(o)
}
