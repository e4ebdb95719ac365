package access

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
)

// TokenHeader is the header and cookie name carrying the bearer token.
const TokenHeader = "auth-token"

var (
	ErrNoToken      = apperr.Unauthenticated("Access denied from server!")
	ErrInvalidToken = apperr.Forbidden("Token is not valid!")
	ErrTampered     = apperr.Unauthenticated("Token is Tempered")
	ErrAccessDenied = apperr.Forbidden("Access Denied by Server")
)

// Guard enforces policies on HTTP routes.
type Guard struct {
	tokens   TokenVerifier
	accounts AccountResolver
}

func NewGuard(tokens TokenVerifier, accounts AccountResolver) *Guard {
	return &Guard{tokens: tokens, accounts: accounts}
}

// Require rejects requests whose caller does not satisfy pol. Role and
// verification are read from the account store, never from the token.
func (g *Guard) Require(pol Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := g.authenticate(r)
			if err != nil {
				web.Fail(w, r, err)
				return
			}
			if !pol.Allows(p) {
				web.Fail(w, r, ErrAccessDenied)
				return
			}
			web.SetSubject(r.Context(), p.ID.String())
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func (g *Guard) authenticate(r *http.Request) (Principal, error) {
	raw := tokenFrom(r)
	if raw == "" {
		return Principal{}, ErrNoToken
	}
	claims, err := g.tokens.VerifyAccess(r.Context(), raw)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	p, err := g.accounts.Resolve(r.Context(), claims.Kind, claims.Subject)
	if errors.Is(err, ErrAccountNotFound) {
		return Principal{}, ErrTampered
	}
	if err != nil {
		return Principal{}, err
	}
	return p, nil
}

func tokenFrom(r *http.Request) string {
	if t := r.Header.Get(TokenHeader); t != "" {
		return t
	}
	if c, err := r.Cookie(TokenHeader); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
