// Package access authenticates bearer tokens and checks the caller against a
// route's Policy before the handler runs.
package access

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
)

// Kind separates the two account stores.
type Kind string

const (
	KindUser  Kind = "user"
	KindStaff Kind = "staff"
)

// Role is a staff role. Users carry no role.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleDeliveryMan     Role = "deliveryMan"
	RoleProductsManager Role = "productsManager"
)

// Valid reports whether r is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeliveryMan, RoleProductsManager:
		return true
	}
	return false
}

// Principal is the authenticated caller, as currently stored.
type Principal struct {
	ID       uuid.UUID
	Kind     Kind
	Role     Role
	Email    string
	Verified bool
}

// Is reports whether the principal is staff with the given role.
func (p Principal) Is(role Role) bool {
	return p.Kind == KindStaff && p.Role == role
}

// Policy is the capability a route requires.
type Policy struct {
	Kind     Kind
	Roles    []Role
	Verified bool
}

// Allows reports whether p satisfies the policy.
func (pol Policy) Allows(p Principal) bool {
	if p.Kind != pol.Kind {
		return false
	}
	if pol.Verified && !p.Verified {
		return false
	}
	if len(pol.Roles) > 0 && !slices.Contains(pol.Roles, p.Role) {
		return false
	}
	return true
}

// User is any user account; VerifiedUser additionally needs a verified email.
var (
	User         = Policy{Kind: KindUser}
	VerifiedUser = Policy{Kind: KindUser, Verified: true}
	Staff        = Policy{Kind: KindStaff}
)

// StaffWith requires a verified staff member holding one of roles.
func StaffWith(roles ...Role) Policy {
	return Policy{Kind: KindStaff, Roles: roles, Verified: true}
}

// Claims is what a verified access token asserts.
type Claims struct {
	Subject uuid.UUID
	Kind    Kind
}

// TokenVerifier validates an access token.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string) (Claims, error)
}

// ErrAccountNotFound is returned by resolvers when the token's subject no
// longer exists.
var ErrAccountNotFound = errors.New("account not found")

// AccountResolver loads the current state of an account.
type AccountResolver interface {
	Resolve(ctx context.Context, kind Kind, id uuid.UUID) (Principal, error)
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal set by the guard.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// MustFromContext panics when called outside a guarded route.
func MustFromContext(ctx context.Context) Principal {
	p, ok := FromContext(ctx)
	if !ok {
		panic("access: no principal in context")
	}
	return p
}
