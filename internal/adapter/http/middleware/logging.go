package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/infrastructure/logger"
)

// UserIDHeader carries the trusted caller identity.
const UserIDHeader = "X-User-ID"

// Identity forwards the X-User-ID header into the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserIDHeader); userID != "" {
			r = r.WithContext(logger.WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs HTTP requests.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(log zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log}
}

// Wrap wraps an http.Handler with logging. The chi request id is copied into
// the context so use case loggers carry it too.
func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), reqID))
		}

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log := logger.FromContext(r.Context(), m.logger)

		var event *zerolog.Event
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			event = log.Error()
		case wrapped.statusCode >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
