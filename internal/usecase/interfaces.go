package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=gomocks/mock_interfaces.go -package=gomocks

// AccountFilter narrows account listings. Zero values match everything.
type AccountFilter struct {
	UserID string
	Type   domain.AccountType
	Status domain.AccountStatus
	Limit  int
	Offset int
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	ListByUserTx(ctx context.Context, tx Transaction, userID string) ([]*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
	// NumberExists reports whether number is held by a live account or was retired.
	NumberExists(ctx context.Context, tx Transaction, number string) (bool, error)
	RetireNumber(ctx context.Context, tx Transaction, number string, retiredAt time.Time) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.AccountStatus, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	SumBalanceByUser(ctx context.Context, userID string) (decimal.Decimal, error)
	CountByUserAndStatus(ctx context.Context, userID string, status domain.AccountStatus) (int, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByTransfer(ctx context.Context, transferID string) ([]*domain.Transaction, error)
	GetBalanceAtTime(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
	CategoryIDsByAccount(ctx context.Context, tx Transaction, accountID string) ([]string, error)
	// DetachTransfers clears the transfer link on legs of transferIDs not owned by accountID.
	DetachTransfers(ctx context.Context, tx Transaction, transferIDs []string, accountID string) (int64, error)
	DeleteByAccount(ctx context.Context, tx Transaction, accountID string) (int64, error)
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	ListIDsByAccountTx(ctx context.Context, tx Transaction, accountID string) ([]string, error)
	DeleteByIDs(ctx context.Context, tx Transaction, ids []string) (int64, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	// DeleteOrphaned removes non-system categories among ids that no transaction
	// references and returns the deleted names.
	DeleteOrphaned(ctx context.Context, tx Transaction, ids []string) ([]string, error)
}

// UserRepository reads the external user directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.User, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalBalance, totalAmount decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// NumberGenerator produces human-facing identifiers.
type NumberGenerator interface {
	AccountNumber() string
	TransactionNumber() string
	CorrelationCode() string
}

// Retrier repeats an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried with it.
	Release(ctx context.Context, key string) error
}

// CategoryResolver maps a category name to a category.
type CategoryResolver interface {
	Resolve(ctx context.Context, name string) (*domain.Category, error)
	// Invalidate drops cached lookups for names removed outside the registry.
	Invalidate(ctx context.Context, names ...string)
}
