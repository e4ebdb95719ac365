package address

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// Address is a delivery address in a user's address book.
type Address struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user"`
	Country     string    `json:"country"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postalCode"`
	FullAddress string    `json:"fullAddress"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateRequest struct {
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	FullAddress string `json:"fullAddress"`
	IsDefault   *bool  `json:"isDefault"`
}

func (r CreateRequest) Validate() error {
	var errs web.Errors
	errs.Check(validate.Place(r.Country), "country", "Invalid value")
	errs.Check(validate.Place(r.State), "state", "Invalid value")
	errs.Check(validate.Place(r.City), "city", "Invalid value")
	errs.Check(validate.PostalCode(r.PostalCode), "postalCode", "Invalid value")
	errs.Check(validate.MinLen(r.FullAddress, 4), "fullAddress", "Invalid value")
	errs.Check(r.IsDefault != nil, "isDefault", "Invalid value")
	return errs.Err()
}

// UpdateRequest changes the fields that are present.
type UpdateRequest struct {
	Country     *string `json:"country"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postalCode"`
	FullAddress *string `json:"fullAddress"`
	IsDefault   *bool   `json:"isDefault"`
}

func (r UpdateRequest) Validate() error {
	var errs web.Errors
	check := func(v *string, ok func(string) bool, field string) {
		if v != nil {
			errs.Check(ok(*v), field, "Invalid value")
		}
	}
	check(r.Country, validate.Place, "country")
	check(r.State, validate.Place, "state")
	check(r.City, validate.Place, "city")
	check(r.PostalCode, validate.PostalCode, "postalCode")
	check(r.FullAddress, func(s string) bool { return validate.MinLen(s, 4) }, "fullAddress")
	return errs.Err()
}

func (r UpdateRequest) apply(a *Address) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.Country, r.Country)
	set(&a.State, r.State)
	set(&a.City, r.City)
	set(&a.PostalCode, r.PostalCode)
	set(&a.FullAddress, r.FullAddress)
	if r.IsDefault != nil {
		a.IsDefault = *r.IsDefault
	}
}
