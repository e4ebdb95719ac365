package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
)

// M is a JSON object body.
type M map[string]any

// OK writes a success envelope: {"success": true, ...fields}.
func OK(w http.ResponseWriter, status int, fields M) {
	body := M{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	respond(w, status, body)
}

// Fail maps err onto the error envelope and HTTP status.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("url", r.URL.Path).Msg("request failed")
		respond(w, http.StatusInternalServerError, M{
			"success": false,
			"error":   "Error Occurred on Server Side",
			"message": err.Error(),
		})
		return
	}

	var payload any = e.Message
	if e.Details != nil {
		payload = e.Details
	}
	respond(w, StatusOf(e.Kind), M{"success": false, "error": payload})
}

// StatusOf maps an error kind to its HTTP status. Not-found is reported as
// 400 so a missing record and a record owned by someone else look the same.
func StatusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindBusiness, apperr.KindNotFound:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("malformed JSON body: %v", err)
	}
	return nil
}

// PathUUID parses a chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		var errs Errors
		errs.Add(name, "Invalid value")
		return uuid.Nil, errs.Err()
	}
	return id, nil
}

// NotFound is the router fallback.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusNotFound, M{"success": false, "msg": "Requested Service Not Found"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
