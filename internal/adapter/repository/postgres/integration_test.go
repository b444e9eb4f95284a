package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/repository/postgres"
	"github.com/iho/gobank/internal/domain"
	pginfra "github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/usecase"
)

const migrationsPath = "../../../infrastructure/postgres/migrations"

// bankDB wires the real repositories and use cases against TEST_DATABASE_URL.
type bankDB struct {
	accounts  *postgres.AccountRepository
	txs       *postgres.TransactionRepository
	transfers *postgres.TransferRepository
	users     *postgres.UserRepository
	idGen     *postgres.ULIDGenerator

	ledger     *usecase.LedgerUseCase
	transferUC *usecase.TransferUseCase
	accountUC  *usecase.AccountUseCase
	categoryUC *usecase.CategoryUseCase
}

func newBankDB(t *testing.T) *bankDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := pginfra.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, dbURL, 10, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	log := zerolog.Nop()
	txManager := postgres.NewTxManager(pool)
	outbox := postgres.NewNullOutboxRepository()
	idGen := postgres.NewULIDGenerator()
	numbers := postgres.NewNumberGenerator()

	db := &bankDB{
		accounts:  postgres.NewAccountRepository(pool),
		txs:       postgres.NewTransactionRepository(pool),
		transfers: postgres.NewTransferRepository(pool),
		users:     postgres.NewUserRepository(pool),
		idGen:     idGen,
	}

	categoryRepo := postgres.NewCategoryRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	db.categoryUC = usecase.NewCategoryUseCase(txManager, categoryRepo, auditRepo, nil, idGen, time.Minute, log)
	db.ledger = usecase.NewLedgerUseCase(txManager, db.accounts, db.txs, outbox, db.categoryUC, idGen, numbers, log, nil)
	db.transferUC = usecase.NewTransferUseCase(txManager, db.accounts, db.transfers, db.txs, outbox, idGen, numbers, log, nil)
	db.accountUC = usecase.NewAccountUseCase(usecase.AccountDeps{
		TxManager:    txManager,
		AccountRepo:  db.accounts,
		UserRepo:     db.users,
		TransferRepo: db.transfers,
		TxRepo:       db.txs,
		CategoryRepo: categoryRepo,
		OutboxRepo:   outbox,
		AuditRepo:    auditRepo,
		Categories:   db.categoryUC,
		IDGen:        idGen,
		Numbers:      numbers,
		Retrier:      postgres.NewRetrier(log),
		Logger:       log,
	})

	if _, err := db.categoryUC.SeedSystemCategories(ctx); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	return db
}

func (db *bankDB) createUser(t *testing.T) *domain.User {
	t.Helper()

	id := db.idGen.Generate()
	user := &domain.User{
		ID:        id,
		Email:     id + "@example.test",
		Name:      "Test " + id,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}
	if err := db.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func (db *bankDB) open(t *testing.T, userID string, accountType domain.AccountType) *domain.Account {
	t.Helper()

	account, err := db.accountUC.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: userID, Type: accountType})
	if err != nil {
		t.Fatalf("failed to open account: %v", err)
	}

	return account
}

func (db *bankDB) deposit(t *testing.T, accountID, amount string) {
	t.Helper()

	_, err := db.ledger.Deposit(context.Background(), usecase.DepositInput{
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("failed to deposit: %v", err)
	}
}

func (db *bankDB) transfer(t *testing.T, from, to, amount string) *domain.Transfer {
	t.Helper()

	transfer, err := db.transferUC.CreateTransfer(context.Background(), usecase.CreateTransferInput{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("failed to transfer: %v", err)
	}

	return transfer
}

// requireBalanceMatchesHistory checks the stored balance against the sum of the account's transactions.
func (db *bankDB) requireBalanceMatchesHistory(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	ctx := context.Background()

	account, err := db.accounts.GetByID(ctx, accountID)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}

	sum, err := db.txs.SumByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("failed to sum transactions: %v", err)
	}

	if !account.Balance.Equal(sum) {
		t.Fatalf("account %s balance %s does not match transaction sum %s", accountID, account.Balance, sum)
	}

	return account.Balance
}

func TestPostgres_ConcurrentOpposingTransfers(t *testing.T) {
	db := newBankDB(t)
	ctx := context.Background()

	user := db.createUser(t)
	a := db.open(t, user.ID, domain.AccountTypeSavings)
	b := db.open(t, user.ID, domain.AccountTypeDebit)
	db.deposit(t, a.ID, "500")
	db.deposit(t, b.ID, "500")

	const perDirection = 20

	var (
		wg         sync.WaitGroup
		aToB       atomic.Int32
		bToA       atomic.Int32
		unexpected atomic.Int32
	)

	run := func(from, to string, amount decimal.Decimal, counter *atomic.Int32) {
		defer wg.Done()

		_, err := db.transferUC.CreateTransfer(ctx, usecase.CreateTransferInput{
			FromAccountID: from,
			ToAccountID:   to,
			Amount:        amount,
		})
		switch {
		case err == nil:
			counter.Add(1)
		case domain.IsRetryable(err):
		default:
			unexpected.Add(1)
			t.Errorf("unexpected transfer error: %v", err)
		}
	}

	wg.Add(2 * perDirection)
	for i := 0; i < perDirection; i++ {
		go run(a.ID, b.ID, decimal.NewFromInt(5), &aToB)
		go run(b.ID, a.ID, decimal.NewFromInt(3), &bToA)
	}
	wg.Wait()

	if unexpected.Load() != 0 {
		t.Fatalf("%d transfers failed with a non-retryable error", unexpected.Load())
	}
	if aToB.Load() == 0 || bToA.Load() == 0 {
		t.Fatalf("expected transfers in both directions, got %d and %d", aToB.Load(), bToA.Load())
	}

	balanceA := db.requireBalanceMatchesHistory(t, a.ID)
	balanceB := db.requireBalanceMatchesHistory(t, b.ID)

	if total := balanceA.Add(balanceB); !total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected total 1000, got %s", total)
	}

	wantA := decimal.NewFromInt(500).
		Sub(decimal.NewFromInt(5 * int64(aToB.Load()))).
		Add(decimal.NewFromInt(3 * int64(bToA.Load())))
	if !balanceA.Equal(wantA) {
		t.Errorf("expected balance %s for sender of the larger transfers, got %s", wantA, balanceA)
	}
}

func TestPostgres_CloseAccountWithHistory(t *testing.T) {
	db := newBankDB(t)
	ctx := context.Background()

	owner := db.createUser(t)
	other := db.createUser(t)
	closing := db.open(t, owner.ID, domain.AccountTypeDebit)
	counterparty := db.open(t, other.ID, domain.AccountTypeSavings)

	db.deposit(t, closing.ID, "100")
	first := db.transfer(t, closing.ID, counterparty.ID, "70")
	db.transfer(t, counterparty.ID, closing.ID, "20")
	db.transfer(t, closing.ID, counterparty.ID, "50")

	result, err := db.accountUC.CloseAccount(ctx, usecase.CloseAccountInput{
		AccountID:     closing.ID,
		UserID:        owner.ID,
		AccountNumber: closing.AccountNumber,
		Type:          closing.Type,
		Reason:        "moving to another bank",
	})
	if err != nil {
		t.Fatalf("failed to close account: %v", err)
	}

	if result.DeletedTransfers != 3 {
		t.Errorf("expected 3 deleted transfers, got %d", result.DeletedTransfers)
	}
	if result.DeletedTransactions != 4 {
		t.Errorf("expected 4 deleted transactions, got %d", result.DeletedTransactions)
	}
	if result.DetachedTransactions != 3 {
		t.Errorf("expected 3 detached transactions, got %d", result.DetachedTransactions)
	}

	if _, err := db.accounts.GetByID(ctx, closing.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound for closed account, got %v", err)
	}
	if _, err := db.transfers.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrTransferNotFound) {
		t.Errorf("expected ErrTransferNotFound for deleted transfer, got %v", err)
	}

	legs, err := db.txs.ListByAccount(ctx, counterparty.ID, 50, 0)
	if err != nil {
		t.Fatalf("failed to list counterparty transactions: %v", err)
	}
	if len(legs) != 3 {
		t.Fatalf("expected 3 counterparty transactions, got %d", len(legs))
	}
	for _, leg := range legs {
		if leg.TransferID != nil {
			t.Errorf("transaction %s still references transfer %s", leg.ID, *leg.TransferID)
		}
	}

	if balance := db.requireBalanceMatchesHistory(t, counterparty.ID); !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected counterparty balance 100, got %s", balance)
	}
}
