package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	LedgerHandler         *handler.LedgerHandler
	TransferHandler       *handler.TransferHandler
	CategoryHandler       *handler.CategoryHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Identity)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/accounts", cfg.AccountHandler.Open)
			r.Get("/accounts", cfg.AccountHandler.ListByUser)
			r.Get("/accounts/count", cfg.AccountHandler.CountOpen)
			r.Get("/balance", cfg.AccountHandler.TotalBalance)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/by-number/{number}", cfg.AccountHandler.GetByNumber)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/balance", cfg.LedgerHandler.Balance)
			r.Get("/{id}/transactions", cfg.LedgerHandler.History)
			r.Get("/{id}/transfers", cfg.TransferHandler.ListByAccount)
			r.Get("/{id}/reconcile", cfg.ReconciliationHandler.ReconcileAccount)
			r.Post("/{id}/deposit", cfg.LedgerHandler.Deposit)
			r.Post("/{id}/withdraw", cfg.LedgerHandler.Withdraw)
			r.Post("/{id}/close", cfg.AccountHandler.Close)
			r.Put("/{id}/status", cfg.AccountHandler.ChangeStatus)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/{id}", cfg.TransferHandler.Get)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.CategoryHandler.List)
			r.Post("/", cfg.CategoryHandler.Create)
			r.Get("/{name}", cfg.CategoryHandler.Get)
			r.Delete("/{name}", cfg.CategoryHandler.Delete)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.ReconciliationHandler.CheckConsistency)
			r.Get("/report", cfg.ReconciliationHandler.Report)
		})
	})

	return r
}
