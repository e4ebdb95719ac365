package staff

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// Member is a staff account: an admin, delivery man or products manager.
type Member struct {
	ID uuid.UUID `json:"id"`
	user.Profile
	Role          access.Role `json:"role"`
	PasswordHash  string      `json:"-"`
	EmailVerified bool        `json:"emailVerified"`
	JoinedOn      time.Time   `json:"joinedOn"`
}

// AddMemberRequest is the body admins send to create a staff account.
type AddMemberRequest struct {
	user.AccountInput
	Role access.Role `json:"role"`
}

func (r AddMemberRequest) Validate() error {
	var errs web.Errors
	r.AccountInput.Check(&errs)
	errs.Check(r.Role.Valid(), "role", "Invalid value")
	return errs.Err()
}

// UpdateMemberRequest is an admin patch; unlike a self update it may change
// the role.
type UpdateMemberRequest struct {
	user.ProfilePatch
	Role *access.Role `json:"role"`
}

func (r UpdateMemberRequest) Validate() error {
	var errs web.Errors
	r.ProfilePatch.Check(&errs)
	if r.Role != nil {
		errs.Check(r.Role.Valid(), "role", "Invalid value")
	}
	return errs.Err()
}
