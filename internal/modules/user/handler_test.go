package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/modules/user/usertest"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/access/accesstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router *chi.Mux
	repo   *usertest.Memory
	auth   *accesstest.Fixture
}

func newHarness() *harness {
	repo := usertest.NewMemory()
	auth := accesstest.New()
	router := chi.NewRouter()
	user.NewHandler(user.NewService(repo), auth.Guard()).RegisterRoutes(router)
	return &harness{router: router, repo: repo, auth: auth}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(access.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestRegisterEndpoint(t *testing.T) {
	h := newHarness()

	status, body := h.do(t, http.MethodPost, "/api/users", "", validInput())
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Your account created successfully", body["msg"])

	status, body = h.do(t, http.MethodPost, "/api/users", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.IsType(t, []any{}, body["error"])
}

func TestMeEndpointsNeverExposeHash(t *testing.T) {
	h := newHarness()
	u, err := user.NewService(h.repo).Register(context.Background(), validInput())
	require.NoError(t, err)
	_, token := h.auth.Login(access.Principal{ID: u.ID, Kind: access.KindUser, Verified: true})

	status, body := h.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := body["user"].(map[string]any)
	assert.Equal(t, "ali123", me["username"])
	assert.NotContains(t, me, "PasswordHash")
	assert.NotContains(t, me, "password")

	status, body = h.do(t, http.MethodPut, "/api/users/me", token, map[string]string{"city": "Multan"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dear ali123 your data updated successfully", body["msg"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness()
	_, userToken := h.auth.User()
	_, courierToken := h.auth.Staff(access.RoleDeliveryMan)
	_, adminToken := h.auth.Staff(access.RoleAdmin)

	status, _ := h.do(t, http.MethodGet, "/api/users/all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = h.do(t, http.MethodGet, "/api/users/all", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(t, http.MethodGet, "/api/users/all", courierToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := h.do(t, http.MethodGet, "/api/users/all", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["allUsers"])

	status, body = h.do(t, http.MethodPost, "/api/users/add-user", adminToken, validInput())
	require.Equal(t, http.StatusCreated, status)
	id := body["userData"].(map[string]any)["id"].(string)

	status, body = h.do(t, http.MethodGet, "/api/users/manage/"+id, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ali@example.com", body["userData"].(map[string]any)["email"])

	status, body = h.do(t, http.MethodPut, "/api/users/manage/"+id, adminToken, map[string]string{"firstName": "Hamza"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ali123's data is updated successfully", body["msg"])

	status, _ = h.do(t, http.MethodDelete, "/api/users/manage/"+id, adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodGet, "/api/users/manage/"+id, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No user found with that id", body["error"])

	status, _ = h.do(t, http.MethodGet, "/api/users/manage/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
