package auth

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
	h.registerKind(router, access.KindUser, access.User)
	h.registerKind(router, access.KindStaff, access.Staff)
}

func (h *Handler) registerKind(router chi.Router, kind access.Kind, pol access.Policy) {
	prefix := "/api/" + routePrefix(kind)

	router.Post(prefix+"/login", h.login(kind))
	router.Get(prefix+"/verify-email/{token}", h.verifyEmail(kind))
	router.Get(prefix+"/confirm-delete/{token}", h.confirmDeletion(kind))
	router.Get(prefix+"/cancel-delete/{token}", h.cancelDeletion(kind))

	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(pol))
		r.Delete(prefix+"/me", h.requestDeletion)
	})
}

func (h *Handler) login(kind access.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := web.Decode(r, &req); err != nil {
			web.Fail(w, r, err)
			return
		}
		token, err := h.service.Login(r.Context(), kind, req)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"authToken": token})
	}
}

func (h *Handler) verifyEmail(kind access.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.VerifyEmail(r.Context(), kind, chi.URLParam(r, "token")); err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"msg": "Email Verified Successfully,Now you can login into your account"})
	}
}

func (h *Handler) requestDeletion(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	email, err := h.service.RequestDeletion(r.Context(), p)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{
		"msg": fmt.Sprintf("We have sent account deletion confirmation email to %s,Check your mailbox", email),
	})
}

func (h *Handler) confirmDeletion(kind access.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := h.service.ConfirmDeletion(r.Context(), kind, chi.URLParam(r, "token"))
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"msg": fmt.Sprintf("Dear %s, Your account is successfully deleted", name)})
	}
}

func (h *Handler) cancelDeletion(kind access.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.CancelDeletion(r.Context(), kind, chi.URLParam(r, "token")); err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"msg": "Your account deletion request cancelled"})
	}
}
