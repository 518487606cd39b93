package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func newIdempotentHandler(store *memoryStore, hits *int) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"abc"}}`))
	})
	return Idempotency(store, nil)(inner)
}

func postCards(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestIdempotencyRequiresKeyOnGuardedRoute(t *testing.T) {
	hits := 0
	handler := newIdempotentHandler(newMemoryStore(), &hits)

	resp := postCards(handler, "", `{"image_path":"cards/abc"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if hits != 0 {
		t.Fatalf("handler should not run without a key, got %d hits", hits)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	hits := 0
	handler := newIdempotentHandler(newMemoryStore(), &hits)

	first := postCards(handler, "key-1", `{"image_path":"cards/abc"}`)
	second := postCards(handler, "key-1", `{"image_path":"cards/abc"}`)

	if hits != 1 {
		t.Fatalf("expected exactly one handler execution, got %d", hits)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on both calls, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	hits := 0
	handler := newIdempotentHandler(newMemoryStore(), &hits)

	postCards(handler, "key-1", `{"image_path":"cards/abc"}`)
	resp := postCards(handler, "key-1", `{"image_path":"cards/other"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if hits != 1 {
		t.Fatalf("expected one handler execution, got %d", hits)
	}
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	hits := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})
	handler := Idempotency(newMemoryStore(), nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if hits != 1 {
		t.Fatalf("expected handler to run, got %d hits", hits)
	}
}
