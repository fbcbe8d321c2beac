package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
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
	if _, exists := m.values[key]; exists {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "renely:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func checkoutHandler(calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_id":"abc"}}`))
	})
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int64
	handler := Idempotency(store, 0, nil)(checkoutHandler(&calls))

	body := []byte(`{"payment_method":"transfer"}`)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, int64(1), calls.Load())

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), calls.Load(), "handler must not run twice for the same key")
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int64
	handler := Idempotency(store, 0, nil)(checkoutHandler(&calls))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte(`{"payment_method":"transfer"}`)))
	req.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte(`{"payment_method":"cash_on_delivery"}`)))
	req.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, int64(1), calls.Load())
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int64
	handler := Idempotency(store, 0, nil)(checkoutHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(nil)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), calls.Load())
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int64
	handler := Idempotency(store, 0, nil)(checkoutHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(1), calls.Load())
}
