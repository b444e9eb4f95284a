package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/eventpublisher"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/usecase"
)

const rateLimiterCleanupInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Output: os.Stderr})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("migrations applied")
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		LockTimeout: cfg.DatabaseLockTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	txRepo := postgresRepo.NewTransactionRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := newOutboxRepository(cfg, pool)
	idGen := postgresRepo.NewULIDGenerator()
	numbers := postgresRepo.NewNumberGenerator()
	retrier := newRetrier(cfg, log)

	// Use cases
	categoryUC := usecase.NewCategoryUseCase(
		txManager, categoryRepo, auditRepo, redisRepo.NewCache(redisClient), idGen, cfg.CategoryCacheTTL, log,
	)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, txRepo, outboxRepo, categoryUC, idGen, numbers, log, m)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, transferRepo, txRepo, outboxRepo, idGen, numbers, log, m)
	accountUC := usecase.NewAccountUseCase(usecase.AccountDeps{
		TxManager:          txManager,
		AccountRepo:        accountRepo,
		UserRepo:           userRepo,
		TransferRepo:       transferRepo,
		TxRepo:             txRepo,
		CategoryRepo:       categoryRepo,
		OutboxRepo:         outboxRepo,
		AuditRepo:          auditRepo,
		Categories:         categoryUC,
		IDGen:              idGen,
		Numbers:            numbers,
		Retrier:            retrier,
		Logger:             log,
		Metrics:            m,
		MaxAccountsPerUser: cfg.MaxAccountsPerUser,
	})
	reconUC := usecase.NewReconciliationUseCase(accountRepo, txRepo, ledgerRepo, log, m)

	seeded, err := categoryUC.SeedSystemCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed system categories: %w", err)
	}
	log.Info().Int("created", seeded).Msg("system categories seeded")

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  newEventSink(cfg, redisClient, log),
			Logger:     log,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("outbox publisher stopped")
			}
		}()
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go cleanupRateLimiter(ctx, rateLimiter, log)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC, callerRetrier(cfg, retrier)),
		TransferHandler:       handler.NewTransferHandler(transferUC, callerRetrier(cfg, retrier)),
		CategoryHandler:       handler.NewCategoryHandler(categoryUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func newOutboxRepository(cfg *config.Config, pool *pgxpool.Pool) usecase.OutboxRepository {
	if !cfg.OutboxEnabled {
		return postgresRepo.NewNullOutboxRepository()
	}
	return postgresRepo.NewOutboxRepository(pool)
}

func newRetrier(cfg *config.Config, log zerolog.Logger) *postgresRepo.Retrier {
	rc := postgresRepo.DefaultRetrierConfig()
	if cfg.RetryMaxElapsed > 0 {
		rc.MaxElapsedTime = cfg.RetryMaxElapsed
	}
	return postgresRepo.NewRetrierWithConfig(rc, log)
}

// callerRetrier returns the retrier HTTP handlers wrap money movement in, or
// nil when caller retries are disabled.
func callerRetrier(cfg *config.Config, retrier *postgresRepo.Retrier) usecase.Retrier {
	if !cfg.RetryEnabled || retrier == nil {
		return nil
	}
	return retrier
}

// newEventSink publishes to Redis pub/sub, or only logs events when no
// channel is configured.
func newEventSink(cfg *config.Config, client *goredis.Client, log zerolog.Logger) eventpublisher.Publisher {
	if cfg.EventChannel == "" || client == nil {
		return eventpublisher.NewLogPublisher(log)
	}
	return eventpublisher.NewRedisPublisher(client, cfg.EventChannel)
}

func cleanupRateLimiter(ctx context.Context, rl *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(rateLimiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rl.CleanupLimiters(rateLimiterCleanupInterval); removed > 0 {
				log.Debug().Int("removed", removed).Msg("rate limiter visitors cleaned up")
			}
		}
	}
}
