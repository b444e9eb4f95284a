package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	defaultIdempotencyTTL = 24 * time.Hour
	inFlightPlaceholder   = "processing"
)

// storedResponse is what a completed request leaves behind for replays.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped to the caller, method and path.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// keeps keys for a day.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, log zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: log}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := scopedKey(r, header)
		log := logger.FromContext(r.Context(), m.logger)

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			if len(cached) == 0 || string(cached) == inFlightPlaceholder {
				writeJSONError(w, http.StatusConflict, "request with this idempotency key is still in progress")
				return
			}

			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err != nil {
				log.Error().Err(err).Msg("corrupt idempotency record")
				writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		// A panicking handler must not leave the key stuck in flight.
		defer func() {
			if p := recover(); p != nil {
				if err := m.store.Release(context.WithoutCancel(r.Context()), key); err != nil {
					log.Warn().Err(err).Msg("failed to release idempotency key after panic")
				}
				panic(p)
			}
		}()

		next.ServeHTTP(recorder, r)

		// Failed requests free the key so the client can retry with it.
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Release(r.Context(), key); err != nil {
				log.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err != nil {
			return
		}
		if err := m.store.Update(r.Context(), key, payload, m.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func scopedKey(r *http.Request, header string) string {
	userID, _ := logger.UserID(r.Context())
	return userID + ":" + r.Method + ":" + r.URL.Path + ":" + header
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":` + strconv.Quote(message) + `}`))
}
