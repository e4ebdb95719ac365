package catalog

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

const maxImageBytes = 5 << 20

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	guard   *access.Guard
}

func NewHandler(service Service, guard *access.Guard) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{productId}", h.getProduct)
		r.Get("/images/{imageId}", h.getImage)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(access.StaffWith(access.RoleAdmin, access.RoleProductsManager)))
			r.Post("/", h.createProduct)
			r.Get("/export", h.export)
			r.Put("/{productId}", h.updateProduct)
			r.Delete("/{productId}", h.deleteProduct)
			r.Post("/{productId}/images", h.uploadImage)
			r.Get("/{productId}/images", h.listImages)
			r.Delete("/{productId}/images", h.deleteImages)
			r.Delete("/images/{imageId}", h.deleteImage)
		})
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	web.OK(w, http.StatusOK, web.M{"products": products})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p := access.MustFromContext(r.Context())
	var req CreateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	product, err := h.service.Create(r.Context(), p.ID, req)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "Added new product", "product": product})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"product": product})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	var req UpdateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, err)
		return
	}
	if _, err := h.service.Update(r.Context(), id, req); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Product updated successfully"})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Product deleted successfully"})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), &buf); err != nil {
		web.Fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=products.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ── images ───────────────────────────────────────────────────────────────────

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	upload, err := web.ReadImage(w, r, "image", maxImageBytes)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	img, err := h.service.AddImage(r.Context(), id, upload.ContentType, upload.Data)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.M{"msg": "Product image uploaded successfully", "image": img})
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	images, err := h.service.ListImages(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"images": images})
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "imageId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	img, err := h.service.GetImage(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.Raw(w, img.ContentType, img.Data)
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "imageId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.DeleteImage(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Product image deleted successfully"})
}

func (h *Handler) deleteImages(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathUUID(r, "productId")
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	if err := h.service.DeleteImages(r.Context(), id); err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.M{"msg": "Product images deleted successfully"})
}
