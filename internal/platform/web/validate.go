package web

import (
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
)

// FieldError is one failed field check, shaped like the error array the
// public API has always returned.
type FieldError struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Msg   string `json:"msg"`
	Value any    `json:"value,omitempty"`
}

// Errors accumulates field failures for a request.
type Errors []FieldError

// Add records a failure for field.
func (e *Errors) Add(field, msg string) {
	*e = append(*e, FieldError{Type: "field", Path: field, Msg: msg})
}

// Check records msg for field when ok is false.
func (e *Errors) Check(ok bool, field, msg string) {
	if !ok {
		e.Add(field, msg)
	}
}

// Err returns nil when nothing failed, otherwise a validation error.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperr.Invalid(e)
}
