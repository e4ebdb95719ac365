package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
)

// Purpose restricts what a token may be used for.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeVerifyEmail   Purpose = "verify-email"
	PurposeDeleteAccount Purpose = "delete-account"
)

var ErrTokenInvalid = errors.New("token is not valid")

// Claims are the JWT claims issued by TokenMaker.
type Claims struct {
	jwt.StandardClaims
	Kind    access.Kind `json:"kind"`
	Purpose Purpose     `json:"purpose"`
}

// SubjectID parses the subject as an account id.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenMaker issues and verifies HS256 tokens.
type TokenMaker struct {
	secret []byte
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{secret: []byte(secret)}
}

// Issue signs a token for subject with a fresh jti.
func (m *TokenMaker) Issue(subject uuid.UUID, kind access.Kind, purpose Purpose, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   subject.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Kind:    kind,
		Purpose: purpose,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and purpose.
func (m *TokenMaker) Verify(raw string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose || claims.Id == "" {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
