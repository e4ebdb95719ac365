// Package profileimage stores one PNG picture per user or staff account.
package profileimage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

// Owner identifies the account an image belongs to.
type Owner struct {
	Kind access.Kind
	ID   uuid.UUID
}

func UserOwner(id uuid.UUID) Owner  { return Owner{Kind: access.KindUser, ID: id} }
func StaffOwner(id uuid.UUID) Owner { return Owner{Kind: access.KindStaff, ID: id} }

// Image is a stored profile picture.
type Image struct {
	ID          uuid.UUID `json:"id"`
	Owner       Owner     `json:"-"`
	Alt         string    `json:"alt"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Data        []byte    `json:"-"`
}
