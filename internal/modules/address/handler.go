package address

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

type Handler struct {
	service Service
	guard   *access.Guard
}

func NewHandler(service Service, guard *access.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/address", func(r chi.Router) {
		r.Use(h.guard.Require(access.VerifiedUser))
		r.Post("/", h.create)
		r.Get("/", h.getDefault)
		r.Delete("/", h.deleteDefault)
		r.Get("/all-addresses", h.list)
		r.Delete("/all-addresses", h.deleteAll)
		r.Get("/all-addresses/{addressId}", h.get)
		r.Put("/all-addresses/{addressId}", h.update)
		r.Delete("/all-addresses/{addressId}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	var req CreateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	a, err := h.service.Create(r.Context(), p.ID, req)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "New Address created successfully", "address": a})
}

func (h *Handler) getDefault(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	a, err := h.service.GetDefault(r.Context(), p.ID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"defaultAddress": a})
}

func (h *Handler) deleteDefault(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	if err := h.service.DeleteDefault(r.Context(), p.ID); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "User's default address deleted successfully"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	all, err := h.service.List(r.Context(), p.ID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"allAddresses": all})
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	if err := h.service.DeleteAll(r.Context(), p.ID); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Deleted all addresses of current user"})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "addressId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	a, err := h.service.Get(r.Context(), p.ID, id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"address": a})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "addressId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var req UpdateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	if _, err := h.service.Update(r.Context(), p.ID, id, req); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "User address updated successfully"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	id, err := web.PathUUID(r, "addressId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), p.ID, id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Address deleted successfully"})
}
