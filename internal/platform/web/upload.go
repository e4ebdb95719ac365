package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
)

// ErrNoUpload is returned when the expected multipart file is missing.
var ErrNoUpload = apperr.Validation("No image file uploaded please upload an image file")

// Upload is a file read from a multipart form.
type Upload struct {
	ContentType string
	Data        []byte
}

// ReadImage reads the multipart file in field. Files larger than max bytes
// are rejected.
func ReadImage(w http.ResponseWriter, r *http.Request, field string, max int) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(max)+1<<20)
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoUpload
		}
		return nil, apperr.Validation("could not read uploaded image")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(max)+1))
	if err != nil {
		return nil, apperr.Validation("could not read uploaded image")
	}
	if len(data) > max {
		return nil, apperr.Validation("Image must not be larger than %dMB", max>>20)
	}
	if len(data) == 0 {
		return nil, ErrNoUpload
	}
	return &Upload{ContentType: header.Header.Get("Content-Type"), Data: data}, nil
}

// Raw writes data as the whole response body.
func Raw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
