package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
)

// RetrierConfig tunes the backoff policy.
type RetrierConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetrierConfig returns the default policy.
func DefaultRetrierConfig() RetrierConfig {
	return RetrierConfig{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a new PostgreSQL retrier with default settings.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierWithConfig(DefaultRetrierConfig(), logger)
}

// NewRetrierWithConfig creates a retrier with a custom policy.
func NewRetrierWithConfig(cfg RetrierConfig, logger zerolog.Logger) *Retrier {
	return &Retrier{
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxElapsedTime:  cfg.MaxElapsedTime,
		logger:          logger,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("retryable database error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// isRetryableError checks if an error should trigger a retry.
func isRetryableError(err error) bool {
	if domain.IsRetryable(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return true
		}
	}
	return false
}
