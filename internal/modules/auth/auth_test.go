package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/notification"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff/stafftest"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/modules/user/usertest"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "abc123XYZdef!"

type recordingPublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notification.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) last(t *testing.T) notification.Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

type fixture struct {
	svc     Service
	users   *usertest.Memory
	members *stafftest.Memory
	pub     *recordingPublisher
	tokens  *TokenMaker
}

func newFixture() *fixture {
	f := &fixture{
		users:   usertest.NewMemory(),
		members: stafftest.NewMemory(),
		pub:     &recordingPublisher{},
		tokens:  NewTokenMaker("test-secret"),
	}
	f.svc = NewService(Config{
		BaseURL:     "http://localhost:3000/",
		AccessTTL:   time.Hour,
		VerifyTTL:   time.Hour,
		DeletionTTL: time.Hour,
	}, f.tokens, NewMemoryRevocationStore(), f.users, f.members, f.pub)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, verified bool) user.User {
	t.Helper()
	hash, err := user.HashPassword(password)
	require.NoError(t, err)
	u := user.User{
		ID:            uuid.New(),
		Profile:       user.Profile{Username: "ali123", FirstName: "Ali", LastName: "Khan", Email: email},
		PasswordHash:  hash,
		EmailVerified: verified,
	}
	f.users.Put(u)
	return u
}

func (f *fixture) addMember(t *testing.T, email string) staff.Member {
	t.Helper()
	hash, err := user.HashPassword(password)
	require.NoError(t, err)
	m := staff.Member{
		ID:            uuid.New(),
		Profile:       user.Profile{Username: "bilal12", FirstName: "Bilal", LastName: "Ahmed", Email: email},
		Role:          access.RoleDeliveryMan,
		PasswordHash:  hash,
		EmailVerified: true,
	}
	require.NoError(t, f.members.Create(context.Background(), &m))
	return m
}

func tokenOf(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}

func TestTokenMaker(t *testing.T) {
	m := NewTokenMaker("secret")
	id := uuid.New()

	raw, claims, err := m.Issue(id, access.KindStaff, PurposeAccess, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Id)

	got, err := m.Verify(raw, PurposeAccess)
	require.NoError(t, err)
	sub, err := got.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, id, sub)
	assert.Equal(t, access.KindStaff, got.Kind)

	_, err = m.Verify(raw, PurposeDeleteAccount)
	assert.ErrorIs(t, err, ErrTokenInvalid, "wrong purpose")

	_, err = NewTokenMaker("other").Verify(raw, PurposeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid, "wrong secret")

	expired, _, err := m.Issue(id, access.KindUser, PurposeAccess, -time.Minute)
	require.NoError(t, err)
	_, err = m.Verify(expired, PurposeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, other, err := m.Issue(id, access.KindUser, PurposeAccess, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, claims.Id, other.Id, "every token gets its own jti")
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()

	require.NoError(t, s.Revoke(ctx, "a", time.Now().Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "b", time.Now().Add(-time.Second)))

	revoked, err := s.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens need no entry")
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := f.addUser(t, "ali@example.com", false)

	_, err := f.svc.Login(ctx, access.KindUser, LoginRequest{Email: "ali@example.com", Password: password})
	require.Error(t, err)
	assert.Equal(t, "We have sent verification email to ali@example.com,Check your mailbox and verify your email", err.Error())

	ev := f.pub.last(t)
	assert.Equal(t, notification.TypeVerifyEmail, ev.Type)
	assert.Equal(t, []string{"ali@example.com"}, ev.To)
	assert.True(t, strings.HasPrefix(ev.Data["link"], "http://localhost:3000/api/users/verify-email/"))

	require.NoError(t, f.svc.VerifyEmail(ctx, access.KindUser, tokenOf(ev.Data["link"])))
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, access.KindUser, tokenOf(ev.Data["link"])), errAlreadyVerified)

	token, err := f.svc.Login(ctx, access.KindUser, LoginRequest{Email: "ali@example.com", Password: password})
	require.NoError(t, err)
	claims, err := f.svc.VerifyAccess(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, access.KindUser, claims.Kind)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addUser(t, "ali@example.com", true)
	f.addMember(t, "bilal@example.com")

	_, err := f.svc.Login(ctx, access.KindUser, LoginRequest{Email: "ali@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, errBadCredentials)

	_, err = f.svc.Login(ctx, access.KindUser, LoginRequest{Email: "nobody@example.com", Password: password})
	assert.ErrorIs(t, err, errBadCredentials)

	_, err = f.svc.Login(ctx, access.KindUser, LoginRequest{Email: "bilal@example.com", Password: password})
	assert.ErrorIs(t, err, errBadCredentials, "staff cannot log in as a user")

	token, err := f.svc.Login(ctx, access.KindStaff, LoginRequest{Email: "bilal@example.com", Password: password})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestVerifyEmailRejectsOtherKindsAndPurposes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := f.addUser(t, "ali@example.com", false)

	staffToken, _, err := f.tokens.Issue(u.ID, access.KindStaff, PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, access.KindUser, staffToken), access.ErrInvalidToken)

	accessToken, _, err := f.tokens.Issue(u.ID, access.KindUser, PurposeAccess, time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, access.KindUser, accessToken), access.ErrInvalidToken)

	ghost, _, err := f.tokens.Issue(uuid.New(), access.KindUser, PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, access.KindUser, ghost), errTampered)
}

func TestCancelledDeletionCannotBeConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := f.addUser(t, "ali@example.com", true)
	p := access.Principal{ID: u.ID, Kind: access.KindUser}

	email, err := f.svc.RequestDeletion(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "ali@example.com", email)
	ev := f.pub.last(t)
	assert.Equal(t, notification.TypeDeleteRequest, ev.Type)
	assert.Equal(t, "Ali Khan", ev.Data["name"])
	token := tokenOf(ev.Data["cancelLink"])
	assert.Equal(t, token, tokenOf(ev.Data["confirmLink"]))

	require.NoError(t, f.svc.CancelDeletion(ctx, access.KindUser, token))
	_, err = f.svc.ConfirmDeletion(ctx, access.KindUser, token)
	assert.ErrorIs(t, err, access.ErrInvalidToken)

	_, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err, "account survives a cancelled request")
}

func TestConfirmDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := f.addMember(t, "bilal@example.com")

	_, err := f.svc.RequestDeletion(ctx, access.Principal{ID: m.ID, Kind: access.KindStaff})
	require.NoError(t, err)
	link := f.pub.last(t).Data["confirmLink"]
	assert.Contains(t, link, "/api/staff/confirm-delete/")

	_, err = f.svc.ConfirmDeletion(ctx, access.KindUser, tokenOf(link))
	assert.ErrorIs(t, err, access.ErrInvalidToken, "staff token on the user route")

	name, err := f.svc.ConfirmDeletion(ctx, access.KindStaff, tokenOf(link))
	require.NoError(t, err)
	assert.Equal(t, "Bilal Ahmed", name)

	_, err = f.members.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, staff.ErrNotFound)

	_, err = f.svc.ConfirmDeletion(ctx, access.KindStaff, tokenOf(link))
	assert.ErrorIs(t, err, access.ErrInvalidToken)
}

func TestResolverReadsCurrentState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := f.addMember(t, "bilal@example.com")
	r := NewResolver(f.users, f.members)

	p, err := r.Resolve(ctx, access.KindStaff, m.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleDeliveryMan, p.Role)
	assert.True(t, p.Verified)

	_, err = r.Resolve(ctx, access.KindUser, m.ID)
	assert.ErrorIs(t, err, access.ErrAccountNotFound)
}

func TestHandlerLoginAndRequestDeletion(t *testing.T) {
	f := newFixture()
	f.addUser(t, "ali@example.com", true)
	router := chi.NewRouter()
	guard := access.NewGuard(f.svc, NewResolver(f.users, f.members))
	NewHandler(f.svc, guard).RegisterRoutes(router)

	do := func(method, path, token string, body any) (int, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		if token != "" {
			req.Header.Set(access.TokenHeader, token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	status, body := do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: "ali@example.com", Password: "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid log in credentials", body["error"])

	status, body = do(http.MethodPost, "/api/users/login", "", LoginRequest{Email: "ali@example.com", Password: password})
	require.Equal(t, http.StatusOK, status)
	token := body["authToken"].(string)

	status, _ = do(http.MethodDelete, "/api/staff/me", token, nil)
	assert.Equal(t, http.StatusForbidden, status, "user token on a staff route")

	status, body = do(http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "We have sent account deletion confirmation email to ali@example.com,Check your mailbox", body["msg"])

	link := f.pub.last(t).Data["confirmLink"]
	status, body = do(http.MethodGet, "/api/users/confirm-delete/"+tokenOf(link), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dear Ali Khan, Your account is successfully deleted", body["msg"])

	status, body = do(http.MethodDelete, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token is Tempered", body["error"])
}
