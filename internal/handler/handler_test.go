package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/burgerhub/api/internal/storage"
	"github.com/burgerhub/api/internal/store"
	"github.com/go-chi/chi/v5"
)

const testSecret = "test-session-secret"

// noon keeps day-bucketed assertions away from midnight.
var noon = time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

func newSeededStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	st := store.New(storage.NewMemDB(), nil, opts...)
	if err := st.InitializeData(context.Background()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return st
}

func mount(pattern string, register func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Route(pattern, register)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}
