package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

// bank wires every use case over one in-memory store.
type bank struct {
	store        *mocks.Store
	txManager    *mocks.MockTransactionManager
	accountRepo  *mocks.MockAccountRepository
	txRepo       *mocks.MockTransactionRepository
	transferRepo *mocks.MockTransferRepository
	categoryRepo *mocks.MockCategoryRepository
	cache        *mocks.MockCache
	numbers      *mocks.MockNumberGenerator
	retrier      *mocks.MockRetrier
	metrics      *metrics.Metrics

	categories *usecase.CategoryUseCase
	ledger     *usecase.LedgerUseCase
	transfers  *usecase.TransferUseCase
	accounts   *usecase.AccountUseCase
	recon      *usecase.ReconciliationUseCase
}

type bankOption func(*usecase.AccountDeps)

func withMaxAccounts(n int) bankOption {
	return func(d *usecase.AccountDeps) { d.MaxAccountsPerUser = n }
}

func newBank(t *testing.T, opts ...bankOption) *bank {
	t.Helper()

	store := mocks.NewStore()
	b := &bank{
		store:        store,
		txManager:    mocks.NewMockTransactionManager(store),
		accountRepo:  mocks.NewMockAccountRepository(store),
		txRepo:       mocks.NewMockTransactionRepository(store),
		transferRepo: mocks.NewMockTransferRepository(store),
		categoryRepo: mocks.NewMockCategoryRepository(store),
		cache:        mocks.NewMockCache(),
		numbers:      mocks.NewMockNumberGenerator(),
		retrier:      mocks.NewMockRetrier(5),
		metrics:      metrics.New(prometheus.NewRegistry()),
	}

	idGen := mocks.NewMockIDGenerator()
	outbox := mocks.NewMockOutboxRepository(store)
	audit := mocks.NewMockAuditRepository(store)
	log := zerolog.Nop()

	b.categories = usecase.NewCategoryUseCase(b.txManager, b.categoryRepo, audit, b.cache, idGen, time.Minute, log)
	b.ledger = usecase.NewLedgerUseCase(b.txManager, b.accountRepo, b.txRepo, outbox, b.categories, idGen, b.numbers, log, b.metrics)
	b.transfers = usecase.NewTransferUseCase(b.txManager, b.accountRepo, b.transferRepo, b.txRepo, outbox, idGen, b.numbers, log, b.metrics)

	deps := usecase.AccountDeps{
		TxManager:    b.txManager,
		AccountRepo:  b.accountRepo,
		UserRepo:     mocks.NewMockUserRepository(store),
		TransferRepo: b.transferRepo,
		TxRepo:       b.txRepo,
		CategoryRepo: b.categoryRepo,
		OutboxRepo:   outbox,
		AuditRepo:    audit,
		Categories:   b.categories,
		IDGen:        idGen,
		Numbers:      b.numbers,
		Retrier:      b.retrier,
		Logger:       log,
		Metrics:      b.metrics,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	b.accounts = usecase.NewAccountUseCase(deps)
	b.recon = usecase.NewReconciliationUseCase(b.accountRepo, b.txRepo, mocks.NewMockLedgerRepository(store), log, b.metrics)

	_, err := b.categories.SeedSystemCategories(context.Background())
	require.NoError(t, err)

	b.addUser("user-1")
	b.addUser("user-2")

	return b
}

func (b *bank) addUser(id string) {
	b.store.SeedUser(domain.User{ID: id, Email: id + "@example.com", Name: id, Active: true, CreatedAt: time.Now()})
}

func (b *bank) open(t *testing.T, userID string, accountType domain.AccountType) *domain.Account {
	t.Helper()

	account, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: userID, Type: accountType})
	require.NoError(t, err)

	return account
}

func (b *bank) deposit(t *testing.T, accountID, amount string) *domain.Transaction {
	t.Helper()

	txn, err := b.ledger.Deposit(context.Background(), usecase.DepositInput{AccountID: accountID, Amount: dec(amount)})
	require.NoError(t, err)

	return txn
}

func (b *bank) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	account, ok := b.store.Account(accountID)
	require.True(t, ok, "account %s not stored", accountID)

	return account.Balance
}

// requireConsistent checks that every account's balance equals the sum of its
// transactions and that no balance is negative.
func (b *bank) requireConsistent(t *testing.T) {
	t.Helper()

	for _, account := range b.store.Accounts() {
		sum := decimal.Zero
		for _, txn := range b.store.Transactions(account.ID) {
			sum = sum.Add(txn.Amount)
		}
		require.Truef(t, account.Balance.Equal(sum), "account %s balance %s != history %s", account.ID, account.Balance, sum)
		require.False(t, account.Balance.IsNegative(), "account %s has negative balance", account.ID)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
