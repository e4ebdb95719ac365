package staff

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// Handler exposes staff account endpoints.
type Handler struct {
	service Service
	guard   *access.Guard
}

func NewHandler(service Service, guard *access.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.Staff))
		r.Get("/api/staff/me", h.getMe)
		r.Put("/api/staff/me", h.updateMe)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.StaffWith(access.RoleAdmin)))
		r.Post("/api/staff/members", h.addMember)
		r.Get("/api/staff/members", h.listMembers)
		r.Get("/api/staff/members/{memberId}", h.getMember)
		r.Put("/api/staff/members/{memberId}", h.updateMember)
		r.Delete("/api/staff/members/{memberId}", h.deleteMember)
	})
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	m, err := h.service.Get(r.Context(), p.ID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"staffMember": m})
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	var patch user.ProfilePatch
	if err := web.Decode(r, &patch); err != nil {
		web.Fail(w, r, err)
		return
	}
	if _, err := h.service.UpdateProfile(r.Context(), p.ID, patch); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Staff Member's User Data Updated Successfully"})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	m, err := h.service.AddMember(r.Context(), req)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "New Member added successfully", "member": m})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.List(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if members == nil {
		members = []*Member{}
	}
	web.OK(w, http.StatusOK, web.M{"allMembers": members})
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "memberId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"member": m})
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "memberId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var req UpdateMemberRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	m, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": fmt.Sprintf("Data of Staff Member %s is updated successfully", m.Username)})
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "memberId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": fmt.Sprintf("Account of Staff Member %s is deleted successfully", m.Username)})
}
