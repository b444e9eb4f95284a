package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultMaxAccountsPerUser caps how many non-closed accounts one user may hold.
	DefaultMaxAccountsPerUser = 3

	// MaxAccountNumberAttempts bounds the generate-and-check loop inside one unit.
	MaxAccountNumberAttempts = 10

	// DefaultCategoryCacheTTL is how long resolved categories stay cached.
	DefaultCategoryCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	systemActor = "system"
)
