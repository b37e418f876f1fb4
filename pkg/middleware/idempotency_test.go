package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mw "github.com/quietbay/daybook/pkg/middleware"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	store := newMemStore()
	calls := 0
	handler := mw.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"bookings":[{"id":1}]}`))
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "retry-me")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := do()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := do()
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed body %q, got %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencySkipsFailures(t *testing.T) {
	store := newMemStore()
	calls := 0
	handler := mw.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"rejection":{"code":"out_of_quota"}}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "retry-me")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("rejections must not be cached; handler ran %d times", calls)
	}
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemStore()
	calls := 0
	handler := mw.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run every time without a key, ran %d times", calls)
	}
	if len(store.values) != 0 {
		t.Fatalf("nothing should be cached without a key, got %d entries", len(store.values))
	}
}
