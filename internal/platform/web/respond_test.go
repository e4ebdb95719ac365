package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopportable/shop-portable-backend/internal/platform/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOKMergesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, M{"msg": "done"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["msg"])
}

func TestFailStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"business", apperr.Business("order already canceled"), http.StatusBadRequest},
		{"not found", apperr.NotFound("No address found with that id"), http.StatusBadRequest},
		{"unauthenticated", apperr.Unauthenticated("Access denied from server!"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("Access Denied by Server"), http.StatusForbidden},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.Business("nope")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			Fail(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestFailInternalPassesMessageThrough(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req = req.WithContext(log.WithContext(req.Context()))
	Fail(rec, req, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Error Occurred on Server Side", body["error"])
	assert.Equal(t, "connection refused", body["message"])
	assert.Contains(t, logs.String(), "connection refused")
}

func TestFailValidationDetails(t *testing.T) {
	var errs Errors
	errs.Add("itemCount", "Invalid value")
	errs.Check(false, "productId", "Invalid value")
	errs.Check(true, "ignored", "never")

	rec := httptest.NewRecorder()
	Fail(rec, httptest.NewRequest(http.MethodPost, "/", nil), errs.Err())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	list, ok := body["error"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "itemCount", first["path"])
}

func TestErrorsErrNilWhenEmpty(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := Decode(req, &v)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	err = Decode(req, &v)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPathUUID(t *testing.T) {
	r := chi.NewRouter()
	var got error
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, got = PathUUID(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(got))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil))
	assert.NoError(t, got)
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Requested Service Not Found", decodeBody(t, rec)["msg"])
}

func TestRequestLoggerRecordsSubjectAndStatus(t *testing.T) {
	var logs bytes.Buffer
	h := RequestLogger(zerolog.New(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetSubject(r.Context(), "acct-1")
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "acct-1", line["subject"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "GET", line["method"])
}
