package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	redisrepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/logger"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn     func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	return f.checkAndSetFn(ctx, key, response, ttl)
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(ctx, key, response, ttl)
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn == nil {
		return nil
	}
	return f.releaseFn(ctx, key)
}

func newRedisIdempotency(t *testing.T) *IdempotencyMiddleware {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(client), time.Minute, zerolog.Nop())
}

func postWithKey(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_ReplaysFirstResponse(t *testing.T) {
	mw := newRedisIdempotency(t)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"tr-1"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("k1", `{}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k1", `{}`))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != `{"id":"tr-1"}` {
		t.Fatalf("unexpected replay body %s", second.Body.String())
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatal("expected replay header")
	}
	if first.Header().Get(IdempotencyReplayHeader) != "" {
		t.Fatal("first response must not be marked as replay")
	}
}

func TestIdempotencyMiddleware_KeysAreScopedPerUser(t *testing.T) {
	mw := newRedisIdempotency(t)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"user-1", "user-2"} {
		req := postWithKey("shared", `{}`)
		req = req.WithContext(logger.WithUserID(req.Context(), user))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected each user to execute once, got %d calls", calls)
	}
}

func TestIdempotencyMiddleware_FailedResponsesReleaseKey(t *testing.T) {
	mw := newRedisIdempotency(t)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("k2", `{}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k2", `{}`))

	if calls != 2 {
		t.Fatalf("expected retry after failure to execute, got %d calls", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on retry, got %d", second.Code)
	}
}

func TestIdempotencyMiddleware_PanicReleasesKey(t *testing.T) {
	mw := newRedisIdempotency(t)
	recovery := NewRecoveryMiddleware(zerolog.Nop())

	calls := 0
	handler := recovery.Wrap(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("k-panic", `{}`))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k-panic", `{}`))

	if calls != 2 {
		t.Fatalf("expected retry after panic to execute, got %d calls", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on retry, got %d", second.Code)
	}
}

func TestIdempotencyMiddleware_PanicPropagates(t *testing.T) {
	released := ""
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			released = key
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Minute, zerolog.Nop())

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if p := recover(); p != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", p)
		}
		if !strings.HasSuffix(released, ":k-abort") {
			t.Fatalf("expected key to be released, got %q", released)
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k-abort", `{}`))
}

func TestIdempotencyMiddleware_InFlightIsConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte("processing"), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("k3", `{}`))

	if called {
		t.Fatal("handler must not run while the key is in flight")
	}
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoreErrors(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("k4", `{}`))

	if called {
		t.Fatal("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_SkipsWithoutKeyOrOnGet(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{}`)))

	get := httptest.NewRequest(http.MethodGet, "/x", nil)
	get.Header.Set(IdempotencyKeyHeader, "k5")
	handler.ServeHTTP(httptest.NewRecorder(), get)

	if calls != 2 {
		t.Fatalf("expected 2 pass-through calls, got %d", calls)
	}
}
