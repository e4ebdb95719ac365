package user

import (
	"fmt"
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
	router.Post("/api/users", h.register)

	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.VerifiedUser))
		r.Get("/api/users/me", h.getMe)
		r.Put("/api/users/me", h.updateMe)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.StaffWith(access.RoleAdmin)))
		r.Get("/api/users/all", h.listUsers)
		r.Post("/api/users/add-user", h.addUser)
		r.Get("/api/users/manage/{userId}", h.getUser)
		r.Put("/api/users/manage/{userId}", h.updateUser)
		r.Delete("/api/users/manage/{userId}", h.deleteUser)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in AccountInput
	if err := web.Decode(r, &in); err != nil {
		web.Fail(w, r, err)
		return
	}
	if _, err := h.service.Register(r.Context(), in); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "Your account created successfully"})
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	u, err := h.service.Get(r.Context(), p.ID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"user": u})
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	var patch ProfilePatch
	if err := web.Decode(r, &patch); err != nil {
		web.Fail(w, r, err)
		return
	}
	u, err := h.service.Update(r.Context(), p.ID, patch)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": fmt.Sprintf("Dear %s your data updated successfully", u.Username)})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	web.OK(w, http.StatusOK, web.M{"allUsers": users})
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	var in AccountInput
	if err := web.Decode(r, &in); err != nil {
		web.Fail(w, r, err)
		return
	}
	u, err := h.service.Register(r.Context(), in)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "New user account created successfully", "userData": u})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "userId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"userData": u})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "userId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var patch ProfilePatch
	if err := web.Decode(r, &patch); err != nil {
		web.Fail(w, r, err)
		return
	}
	u, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": fmt.Sprintf("%s's data is updated successfully", u.Username)})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "userId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "User account deleted successfully"})
}
