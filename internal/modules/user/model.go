package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// HomeAddress is the postal address kept on an account profile.
type HomeAddress struct {
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	FullAddress string `json:"fullAddress"`
}

// Profile is the personal data shared by customer and staff accounts.
type Profile struct {
	Username    string      `json:"username"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Gender      string      `json:"gender"`
	Email       string      `json:"email"`
	DOB         time.Time   `json:"dob"`
	HomeAddress HomeAddress `json:"homeAddress"`
}

// User is a customer account.
type User struct {
	ID uuid.UUID `json:"id"`
	Profile
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"emailVerified"`
	JoinedOn      time.Time `json:"joinedOn"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

// AccountInput is the body for creating an account.
type AccountInput struct {
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Gender      string `json:"gender"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DOB         string `json:"dob"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	FullAddress string `json:"fullAddress"`
}

const passwordRule = "Password must contain at Least 3 numbers, 3 lowercase chars, 1 symbol and 1 uppercase char"

// Validate checks every field; all are required.
func (in AccountInput) Validate() error {
	var errs web.Errors
	in.Check(&errs)
	return errs.Err()
}

// Check appends field failures to errs.
func (in AccountInput) Check(errs *web.Errors) {
	errs.Check(validate.Username(in.Username), "username", "Invalid value")
	errs.Check(validate.Alpha(in.FirstName, 3, 24), "firstName", "Invalid value")
	errs.Check(validate.Alpha(in.LastName, 3, 28), "lastName", "Invalid value")
	errs.Check(validate.Gender(in.Gender), "gender", "Invalid value")
	errs.Check(validate.Email(in.Email), "email", "Invalid value")
	errs.Check(validate.StrongPassword(in.Password), "password", passwordRule)
	_, ok := validate.Date(in.DOB)
	errs.Check(ok, "dob", "Invalid value")
	errs.Check(validate.Place(in.Country), "country", "Invalid value")
	errs.Check(validate.Place(in.State), "state", "Invalid value")
	errs.Check(validate.Place(in.City), "city", "Invalid value")
	errs.Check(validate.PostalCode(in.PostalCode), "postalCode", "Invalid value")
	errs.Check(validate.MinLen(in.FullAddress, 4), "fullAddress", "Invalid value")
}

// Profile converts a validated input.
func (in AccountInput) Profile() Profile {
	dob, _ := validate.Date(in.DOB)
	return Profile{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Gender:    in.Gender,
		Email:     in.Email,
		DOB:       dob,
		HomeAddress: HomeAddress{
			Country:     in.Country,
			State:       in.State,
			City:        in.City,
			PostalCode:  in.PostalCode,
			FullAddress: in.FullAddress,
		},
	}
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	Username    *string `json:"username"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Gender      *string `json:"gender"`
	Email       *string `json:"email"`
	DOB         *string `json:"dob"`
	Country     *string `json:"country"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postalCode"`
	FullAddress *string `json:"fullAddress"`
}

func (p ProfilePatch) Validate() error {
	var errs web.Errors
	p.Check(&errs)
	return errs.Err()
}

// Check appends failures for the fields present in the patch.
func (p ProfilePatch) Check(errs *web.Errors) {
	check := func(v *string, ok func(string) bool, field string) {
		if v != nil {
			errs.Check(ok(*v), field, "Invalid value")
		}
	}
	check(p.Username, validate.Username, "username")
	check(p.FirstName, func(s string) bool { return validate.Alpha(s, 3, 24) }, "firstName")
	check(p.LastName, func(s string) bool { return validate.Alpha(s, 3, 28) }, "lastName")
	check(p.Gender, validate.Gender, "gender")
	check(p.Email, validate.Email, "email")
	check(p.DOB, func(s string) bool { _, ok := validate.Date(s); return ok }, "dob")
	check(p.Country, validate.Place, "country")
	check(p.State, validate.Place, "state")
	check(p.City, validate.Place, "city")
	check(p.PostalCode, validate.PostalCode, "postalCode")
	check(p.FullAddress, func(s string) bool { return validate.MinLen(s, 4) }, "fullAddress")
}

// Apply writes the patch onto pr and reports whether the email changed.
func (p ProfilePatch) Apply(pr *Profile) (emailChanged bool) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&pr.Username, p.Username)
	set(&pr.FirstName, p.FirstName)
	set(&pr.LastName, p.LastName)
	set(&pr.Gender, p.Gender)
	set(&pr.HomeAddress.Country, p.Country)
	set(&pr.HomeAddress.State, p.State)
	set(&pr.HomeAddress.City, p.City)
	set(&pr.HomeAddress.PostalCode, p.PostalCode)
	set(&pr.HomeAddress.FullAddress, p.FullAddress)
	if p.DOB != nil {
		if d, ok := validate.Date(*p.DOB); ok {
			pr.DOB = d
		}
	}
	if p.Email != nil && *p.Email != pr.Email {
		pr.Email = *p.Email
		return true
	}
	return false
}
