package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopportable/shop-portable-backend/internal/modules/notification"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/shopportable/shop-portable-backend/internal/platform/validate"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
	"golang.org/x/crypto/bcrypt"
)

// Service covers login, email verification and the two-step account
// deletion flow for both account kinds.
type Service interface {
	// Login returns an access token for a verified account. An unverified
	// account gets a fresh verification mail instead.
	Login(ctx context.Context, kind access.Kind, req LoginRequest) (string, error)
	VerifyEmail(ctx context.Context, kind access.Kind, token string) error
	// RequestDeletion mails a confirm/cancel pair of links and returns the
	// address it was sent to.
	RequestDeletion(ctx context.Context, p access.Principal) (string, error)
	// ConfirmDeletion deletes the account and returns its full name.
	ConfirmDeletion(ctx context.Context, kind access.Kind, token string) (string, error)
	CancelDeletion(ctx context.Context, kind access.Kind, token string) error
	VerifyAccess(ctx context.Context, token string) (access.Claims, error)
}

// LoginRequest is the body of the login routes.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	var errs web.Errors
	errs.Check(validate.Email(r.Email), "email", "Invalid value")
	errs.Check(r.Password != "", "password", "Invalid value")
	return errs.Err()
}

// Config holds token lifetimes and the public URL used in mailed links.
type Config struct {
	BaseURL     string
	AccessTTL   time.Duration
	VerifyTTL   time.Duration
	DeletionTTL time.Duration
}

var (
	errBadCredentials  = apperr.Business("Invalid log in credentials")
	errAlreadyVerified = apperr.Business("Email already verified")
	errTampered        = apperr.Forbidden("Token is Tempered")
)

type service struct {
	cfg       Config
	tokens    *TokenMaker
	revoked   RevocationStore
	stores    accountStores
	publisher notification.Publisher
}

// NewService creates the auth service.
func NewService(cfg Config, tokens *TokenMaker, revoked RevocationStore, users user.Repository, members staff.Repository, publisher notification.Publisher) Service {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &service{
		cfg:       cfg,
		tokens:    tokens,
		revoked:   revoked,
		stores:    newAccountStores(users, members),
		publisher: publisher,
	}
}

func (s *service) Login(ctx context.Context, kind access.Kind, req LoginRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	store, err := s.stores.of(kind)
	if err != nil {
		return "", err
	}
	a, err := store.byEmail(ctx, req.Email)
	if errors.Is(err, errNoAccount) {
		return "", errBadCredentials
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
		return "", errBadCredentials
	}

	if !a.Verified {
		token, _, err := s.tokens.Issue(a.ID, kind, PurposeVerifyEmail, s.cfg.VerifyTTL)
		if err != nil {
			return "", err
		}
		notification.Emit(ctx, s.publisher, notification.NewEvent(notification.TypeVerifyEmail, []string{a.Email}, map[string]string{
			"name": a.FirstName,
			"link": s.link(kind, "verify-email", token),
		}))
		return "", apperr.Business("We have sent verification email to %s,Check your mailbox and verify your email", a.Email)
	}

	token, _, err := s.tokens.Issue(a.ID, kind, PurposeAccess, s.cfg.AccessTTL)
	return token, err
}

func (s *service) VerifyEmail(ctx context.Context, kind access.Kind, token string) error {
	claims, err := s.redeemable(ctx, kind, token, PurposeVerifyEmail)
	if err != nil {
		return err
	}
	store, a, err := s.load(ctx, claims)
	if err != nil {
		return err
	}
	if a.Verified {
		return errAlreadyVerified
	}
	if err := store.markVerified(ctx, a.ID); err != nil {
		if errors.Is(err, errNoAccount) {
			return errTampered
		}
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

func (s *service) RequestDeletion(ctx context.Context, p access.Principal) (string, error) {
	store, err := s.stores.of(p.Kind)
	if err != nil {
		return "", err
	}
	a, err := store.byID(ctx, p.ID)
	if errors.Is(err, errNoAccount) {
		return "", access.ErrTampered
	}
	if err != nil {
		return "", fmt.Errorf("request deletion: %w", err)
	}
	token, _, err := s.tokens.Issue(a.ID, a.Kind, PurposeDeleteAccount, s.cfg.DeletionTTL)
	if err != nil {
		return "", err
	}
	notification.Emit(ctx, s.publisher, notification.NewEvent(notification.TypeDeleteRequest, []string{a.Email}, map[string]string{
		"name":        a.FirstName + " " + a.LastName,
		"confirmLink": s.link(a.Kind, "confirm-delete", token),
		"cancelLink":  s.link(a.Kind, "cancel-delete", token),
	}))
	return a.Email, nil
}

func (s *service) ConfirmDeletion(ctx context.Context, kind access.Kind, token string) (string, error) {
	claims, err := s.redeemable(ctx, kind, token, PurposeDeleteAccount)
	if err != nil {
		return "", err
	}
	store, a, err := s.load(ctx, claims)
	if err != nil {
		return "", err
	}
	if err := store.remove(ctx, a.ID); err != nil {
		if errors.Is(err, errNoAccount) {
			return "", errTampered
		}
		return "", fmt.Errorf("delete account: %w", err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		return "", err
	}
	return a.FirstName + " " + a.LastName, nil
}

// CancelDeletion revokes the deletion token so a later confirm is rejected.
func (s *service) CancelDeletion(ctx context.Context, kind access.Kind, token string) error {
	claims, err := s.redeemable(ctx, kind, token, PurposeDeleteAccount)
	if err != nil {
		return err
	}
	if _, _, err := s.load(ctx, claims); err != nil {
		return err
	}
	return s.revoke(ctx, claims)
}

func (s *service) VerifyAccess(ctx context.Context, token string) (access.Claims, error) {
	claims, err := s.tokens.Verify(token, PurposeAccess)
	if err != nil {
		return access.Claims{}, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.Id)
	if err != nil {
		return access.Claims{}, err
	}
	if revoked {
		return access.Claims{}, ErrTokenInvalid
	}
	id, _ := claims.SubjectID()
	return access.Claims{Subject: id, Kind: claims.Kind}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// redeemable verifies a mailed token: signature, purpose, account kind and
// that it has not been revoked.
func (s *service) redeemable(ctx context.Context, kind access.Kind, token string, purpose Purpose) (*Claims, error) {
	claims, err := s.tokens.Verify(token, purpose)
	if err != nil || claims.Kind != kind {
		return nil, access.ErrInvalidToken
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, access.ErrInvalidToken
	}
	return claims, nil
}

func (s *service) load(ctx context.Context, claims *Claims) (accountStore, *account, error) {
	store, err := s.stores.of(claims.Kind)
	if err != nil {
		return nil, nil, access.ErrInvalidToken
	}
	id, err := claims.SubjectID()
	if err != nil {
		return nil, nil, access.ErrInvalidToken
	}
	a, err := store.byID(ctx, id)
	if errors.Is(err, errNoAccount) {
		return nil, nil, errTampered
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load account: %w", err)
	}
	return store, a, nil
}

func (s *service) revoke(ctx context.Context, claims *Claims) error {
	return s.revoked.Revoke(ctx, claims.Id, time.Unix(claims.ExpiresAt, 0))
}

func (s *service) link(kind access.Kind, action, token string) string {
	return fmt.Sprintf("%s/api/%s/%s/%s", s.cfg.BaseURL, routePrefix(kind), action, token)
}

func routePrefix(kind access.Kind) string {
	if kind == access.KindStaff {
		return "staff"
	}
	return "users"
}
