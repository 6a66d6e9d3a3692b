package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestWriteProblem(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/x", nil)
	rr := httptest.NewRecorder()

	WriteProblem(rr, req, http.StatusNotFound, "product x does not exist")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, Problem{
		Type:     "about:blank",
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   "product x does not exist",
		Instance: "/products/x",
	}, p)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name    string
		payload string
		ctype   string
		wantErr bool
	}{
		{name: "valid", payload: `{"name":"a"}`, ctype: "application/json"},
		{name: "no content type", payload: `{"name":"a"}`},
		{name: "unknown field", payload: `{"name":"a","x":1}`, ctype: "application/json", wantErr: true},
		{name: "trailing data", payload: `{"name":"a"}{}`, ctype: "application/json", wantErr: true},
		{name: "wrong content type", payload: `{"name":"a"}`, ctype: "text/plain", wantErr: true},
		{name: "broken", payload: `{"name":`, ctype: "application/json", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			if tc.ctype != "" {
				req.Header.Set("Content-Type", tc.ctype)
			}
			var b body
			err := DecodeJSON(httptest.NewRecorder(), req, &b)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", b.Name)
		})
	}
}

func TestHealth(t *testing.T) {
	ok := Health(pingerFunc(func(context.Context) error { return nil }))
	rr := httptest.NewRecorder()
	ok(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	down := Health(pingerFunc(func(context.Context) error { return errors.New("db down") }))
	rr = httptest.NewRecorder()
	down(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_RequestID(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"request_id": RequestIDFromContext(r.Context())})
	})
	h := rt.Handler("test", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"request_id":"req-1"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
