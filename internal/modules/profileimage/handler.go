package profileimage

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

const maxImageBytes = 5 << 20

// MemberDirectory looks up staff members whose image an admin manages.
type MemberDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*staff.Member, error)
}

var errNoMember = apperr.NotFound("No staff member found with given id")

// ownerOf picks the account a request acts on.
type ownerOf func(r *http.Request) (Owner, error)

type Handler struct {
	service Service
	members MemberDirectory
	guard   *access.Guard
}

func NewHandler(service Service, members MemberDirectory, guard *access.Guard) *Handler {
	return &Handler{service: service, members: members, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.VerifiedUser))
		h.routes(r, "/api/users/profile-image", "userProfileImage", currentUser)
	})
	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.Staff))
		h.routes(r, "/api/staff/profile-image", "staffProfileImage", currentMember)
	})
	router.Group(func(r chi.Router) {
		r.Use(h.guard.Require(access.StaffWith(access.RoleAdmin)))
		h.routes(r, "/api/staff/profile-image/{memberId}", "staffProfileImage", h.pathMember)
	})
}

func (h *Handler) routes(r chi.Router, path, field string, owner ownerOf) {
	r.Get(path, h.get(owner))
	r.Post(path, h.upload(owner, field))
	r.Put(path, h.replace(owner, field))
	r.Delete(path, h.delete(owner))
}

// ── owners ───────────────────────────────────────────────────────────────────

func currentUser(r *http.Request) (Owner, error) {
	return UserOwner(access.MustFromContext(r.Context()).ID), nil
}

func currentMember(r *http.Request) (Owner, error) {
	return StaffOwner(access.MustFromContext(r.Context()).ID), nil
}

func (h *Handler) pathMember(r *http.Request) (Owner, error) {
	id, err := web.PathUUID(r, "memberId")
	if err != nil {
		return Owner{}, err
	}
	if _, err := h.members.Get(r.Context(), id); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return Owner{}, errNoMember
		}
		return Owner{}, err
	}
	return StaffOwner(id), nil
}

// ── handlers ─────────────────────────────────────────────────────────────────

func (h *Handler) get(owner ownerOf) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := owner(r)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		img, err := h.service.Get(r.Context(), o)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.Raw(w, img.ContentType, img.Data)
	}
}

func (h *Handler) upload(owner ownerOf, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := owner(r)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		upload, err := web.ReadImage(w, r, field, maxImageBytes)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		img, err := h.service.Upload(r.Context(), o, upload.ContentType, upload.Data)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusCreated, web.M{"msg": "Profile image uploaded successfully", "image": img})
	}
}

func (h *Handler) replace(owner ownerOf, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := owner(r)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		upload, err := web.ReadImage(w, r, field, maxImageBytes)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		img, err := h.service.Replace(r.Context(), o, upload.ContentType, upload.Data)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"msg": "Profile image updated successfully", "image": img})
	}
}

func (h *Handler) delete(owner ownerOf) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := owner(r)
		if err != nil {
			web.Fail(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), o); err != nil {
			web.Fail(w, r, err)
			return
		}
		web.OK(w, http.StatusOK, web.M{"msg": "Profile image deleted successfully"})
	}
}
