package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// Handler exposes the order workflow over HTTP.
type Handler struct {
	service Service
	guard   *access.Guard
}

func NewHandler(service Service, guard *access.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(access.VerifiedUser))
			r.Post("/", h.placeOrder)
			r.Get("/", h.userOrders(ScopeAll))
			r.Get("/canceled-orders", h.userOrders(ScopeCanceled))
			r.Get("/delivered-orders", h.userOrders(ScopeDelivered))
			r.Get("/pending-orders", h.userOrders(ScopePending))
			r.Get("/on-way-orders", h.userOrders(ScopeOnWay))
			r.Get("/cancel-order/{orderId}", h.cancelByUser)
			r.Post("/add-items/{orderId}", h.addItems)
			r.Get("/remove-item/{orderId}/{productId}", h.removeItem)
			r.Get("/{orderId}", h.getUserOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(access.StaffWith(access.RoleAdmin)))
			r.Put("/assign-order/{orderId}", h.assign)
			r.Get("/cancel-user-order/{orderId}", h.cancelByAdmin)
			r.Get("/all-orders", h.allOrders)
			r.Get("/all-orders/{userId}", h.ordersOfUser)
			r.Get("/all-assigned-orders/{deliveryManId}", h.assignedOrders)
		})

		r.With(h.guard.Require(access.StaffWith(access.RoleAdmin, access.RoleDeliveryMan))).
			Get("/delivered/{orderId}", h.markDelivered)
	})

	router.With(h.guard.Require(access.VerifiedUser)).
		Get("/api/order-items/{orderId}", h.orderItems)

	router.Route("/api/deliver", func(r chi.Router) {
		r.Use(h.guard.Require(access.StaffWith(access.RoleDeliveryMan)))
		r.Get("/", h.deliveries(ScopeAll))
		r.Get("/canceled-orders", h.deliveries(ScopeCanceled))
		r.Get("/delivered-orders", h.deliveries(ScopeDelivered))
		r.Get("/pending-orders", h.deliveries(ScopeToDeliver))
		r.Get("/{orderId}", h.getDelivery)
	})
}

// ── user ─────────────────────────────────────────────────────────────────────

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	var req PlaceOrderRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	o, err := h.service.PlaceOrder(r.Context(), p.ID, req)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "Your order created successfully", "order": o})
}

func (h *Handler) userOrders(scope Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := access.MustFromContext(r.Context())
		orders, err := h.service.ListForUser(r.Context(), p.ID, scope)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{scope.Key(): orders})
	}
}

func (h *Handler) getUserOrder(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	o, err := h.service.GetForUser(r.Context(), p.ID, id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"order": o})
}

func (h *Handler) orderItems(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	items, err := h.service.ListItems(r.Context(), p.ID, id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"orderItems": items})
}

func (h *Handler) cancelByUser(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.CancelByUser(r.Context(), p.ID, id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Your order is canceled now"})
}

func (h *Handler) addItems(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var req AddItemsRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	o, err := h.service.AddItems(r.Context(), p.ID, id, req.OrderItems)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Items added to your order", "order": o})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	orderID, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	productID, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	o, err := h.service.RemoveItem(r.Context(), p.ID, orderID, productID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Item removed from your order", "order": o})
}

// ── admin ────────────────────────────────────────────────────────────────────

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var req AssignRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		web.Fail(w, r, err)
		return
	}
	_, man, err := h.service.Assign(r.Context(), id, req.DeliveryMan)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Order is assigned to " + man.Username})
}

func (h *Handler) cancelByAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.CancelByAdmin(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "User's order is canceled now"})
}

func (h *Handler) allOrders(w http.ResponseWriter, r *http.Request) {
	scope, err := ParseScope(r.URL.Query().Get("status"), OrderScopes)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	orders, err := h.service.ListAll(r.Context(), scope)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{scope.Key(): orders})
}

func (h *Handler) ordersOfUser(w http.ResponseWriter, r *http.Request) {
	userID, err := web.PathUUID(r, "userId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	scope, err := ParseScope(r.URL.Query().Get("status"), OrderScopes)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	orders, err := h.service.ListForUserAdmin(r.Context(), userID, scope)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{scope.Key(): orders})
}

func (h *Handler) assignedOrders(w http.ResponseWriter, r *http.Request) {
	manID, err := web.PathUUID(r, "deliveryManId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	scope, err := ParseScope(r.URL.Query().Get("status"), AssignedScopes)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	orders, err := h.service.ListAssigned(r.Context(), manID, scope)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{scope.Key(): orders})
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if _, err := h.service.MarkDelivered(r.Context(), p, id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Order is delivered successfully"})
}

// ── delivery man ─────────────────────────────────────────────────────────────

// deliveryKeys names the delivery dashboard listings. Its pending list holds
// every in-progress order of the delivery man.
var deliveryKeys = map[Scope]string{
	ScopeAll:       "orders",
	ScopeCanceled:  "canceledOrders",
	ScopeDelivered: "deliveredOrders",
	ScopeToDeliver: "pendingOrders",
}

func (h *Handler) deliveries(scope Scope) http.HandlerFunc {
	key := deliveryKeys[scope]
	return func(w http.ResponseWriter, r *http.Request) {
		p := access.MustFromContext(r.Context())
		orders, err := h.service.ListAssigned(r.Context(), p.ID, scope)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{key: orders})
	}
}

func (h *Handler) getDelivery(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "orderId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	o, err := h.service.GetForDeliveryMan(r.Context(), p.ID, id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"order": o})
}
