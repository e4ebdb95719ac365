package address_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopportable/shop-portable-backend/internal/modules/address"
	"github.com/shopportable/shop-portable-backend/internal/modules/address/addresstest"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/access/accesstest"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newAddress(isDefault bool) address.CreateRequest {
	return address.CreateRequest{
		Country:     "Pakistan",
		State:       "Punjab",
		City:        "Lahore",
		PostalCode:  "54000",
		FullAddress: "House 12, Street 4, Model Town",
		IsDefault:   ptr(isDefault),
	}
}

func TestCreateRejectsSecondDefault(t *testing.T) {
	ctx := context.Background()
	svc := address.NewService(addresstest.NewMemory())
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, newAddress(true))
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, newAddress(true))
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusiness, apperr.KindOf(err))
	assert.Equal(t, "A Default Address already exists", err.Error())

	_, err = svc.Create(ctx, userID, newAddress(false))
	require.NoError(t, err, "non-default addresses are unlimited")

	_, err = svc.Create(ctx, uuid.New(), newAddress(true))
	require.NoError(t, err, "defaults are per user")

	require.NoError(t, svc.DeleteDefault(ctx, userID))
	_, err = svc.Create(ctx, userID, newAddress(true))
	require.NoError(t, err, "deleting the default frees the slot")
}

func TestCreateValidates(t *testing.T) {
	svc := address.NewService(addresstest.NewMemory())
	req := newAddress(false)
	req.City = "Lahore1"
	req.IsDefault = nil

	_, err := svc.Create(context.Background(), uuid.New(), req)
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Len(t, e.Details, 2)
}

func TestDeleteDefaultWithoutOne(t *testing.T) {
	svc := address.NewService(addresstest.NewMemory())
	err := svc.DeleteDefault(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, "No default address present for current user", err.Error())
}

func TestForeignAddressLooksMissing(t *testing.T) {
	ctx := context.Background()
	svc := address.NewService(addresstest.NewMemory())
	owner, other := uuid.New(), uuid.New()
	a, err := svc.Create(ctx, owner, newAddress(false))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, a.ID)
	assert.Equal(t, "No address found with that id", err.Error())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.Delete(ctx, other, a.ID)
	assert.Equal(t, "No address found with that id", err.Error())

	_, err = svc.Update(ctx, other, a.ID, address.UpdateRequest{City: ptr("Karachi")})
	assert.Equal(t, "No address found with that id", err.Error())

	got, err := svc.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lahore", got.City)
}

func TestUpdateDefaultFlag(t *testing.T) {
	ctx := context.Background()
	svc := address.NewService(addresstest.NewMemory())
	userID := uuid.New()
	def, err := svc.Create(ctx, userID, newAddress(true))
	require.NoError(t, err)
	other, err := svc.Create(ctx, userID, newAddress(false))
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, other.ID, address.UpdateRequest{IsDefault: ptr(true)})
	assert.Equal(t, "A Default Address already exists", err.Error())

	updated, err := svc.Update(ctx, userID, def.ID, address.UpdateRequest{IsDefault: ptr(true), City: ptr("Karachi")})
	require.NoError(t, err, "re-saving the current default is fine")
	assert.Equal(t, "Karachi", updated.City)

	_, err = svc.Update(ctx, userID, def.ID, address.UpdateRequest{IsDefault: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, userID, other.ID, address.UpdateRequest{IsDefault: ptr(true)})
	require.NoError(t, err)

	got, err := svc.GetDefault(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestListAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	svc := address.NewService(addresstest.NewMemory())
	userID := uuid.New()

	_, err := svc.List(ctx, userID)
	assert.Equal(t, "No addresses found for current user", err.Error())
	assert.Equal(t, "No addresses found for current user", svc.DeleteAll(ctx, userID).Error())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, userID, newAddress(i == 0))
		require.NoError(t, err)
	}
	all, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, svc.DeleteAll(ctx, userID))
	_, err = svc.GetDefault(ctx, userID)
	assert.Equal(t, "No default address found", err.Error())
}

func TestAddressRoutes(t *testing.T) {
	auth := accesstest.New()
	router := chi.NewRouter()
	address.NewHandler(address.NewService(addresstest.NewMemory()), auth.Guard()).RegisterRoutes(router)
	_, token := auth.User()
	_, unverified := auth.Login(access.Principal{Kind: access.KindUser})

	do := func(method, path, token string, body any) (int, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set(access.TokenHeader, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	status, _ := do(http.MethodGet, "/api/address/all-addresses", unverified, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := do(http.MethodPost, "/api/address", token, newAddress(true))
	require.Equal(t, http.StatusCreated, status)
	id := body["address"].(map[string]any)["id"].(string)

	status, body = do(http.MethodGet, "/api/address", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["defaultAddress"].(map[string]any)["id"])

	status, body = do(http.MethodGet, "/api/address/all-addresses/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = do(http.MethodDelete, "/api/address/all-addresses/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Address deleted successfully", body["msg"])

	status, body = do(http.MethodDelete, "/api/address", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No default address present for current user", body["error"])
}
