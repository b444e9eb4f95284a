// Package mocks provides in-memory, transactional fakes of the usecase
// repositories. All fakes built on one Store share its data. Writes made
// through a MockTransaction are journaled and undone on Rollback.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is committed again.
var ErrTxDone = errors.New("transaction already finished")

// Store is the shared in-memory database.
type Store struct {
	mu sync.Mutex

	accounts       map[string]domain.Account
	retiredNumbers map[string]time.Time
	users          map[string]domain.User
	transactions   []domain.Transaction
	transfers      map[string]domain.Transfer
	categories     map[string]domain.Category
	outbox         []domain.OutboxEvent
	audit          []domain.AuditLog

	// FailFunc is consulted before every write, e.g. "accounts.UpdateBalance".
	// A non-nil error aborts that write.
	FailFunc func(op string) error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:       make(map[string]domain.Account),
		retiredNumbers: make(map[string]time.Time),
		users:          make(map[string]domain.User),
		transfers:      make(map[string]domain.Transfer),
		categories:     make(map[string]domain.Category),
	}
}

// mutate runs fn under the store lock and journals the undo it returns.
func (s *Store) mutate(tx usecase.Transaction, op string, fn func() (func(), error)) error {
	if s.FailFunc != nil {
		if err := s.FailFunc(op); err != nil {
			return err
		}
	}

	s.mu.Lock()
	undo, err := fn()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	if mtx, ok := tx.(*MockTransaction); ok && mtx != nil && undo != nil {
		mtx.journal = append(mtx.journal, undo)
	}

	return nil
}

// SeedUser inserts a user directly.
func (s *Store) SeedUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// SeedAccount inserts an account directly.
func (s *Store) SeedAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

// SeedCategory inserts a category directly.
func (s *Store) SeedCategory(category domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.ID] = category
}

// SeedTransaction appends a transaction directly.
func (s *Store) SeedTransaction(txn domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, txn)
}

// Account returns a copy of the stored account.
func (s *Store) Account(id string) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// Accounts returns copies of every stored account ordered by id.
func (s *Store) Accounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Transactions returns copies of an account's transactions in commit order.
// An empty accountID returns all of them.
func (s *Store) Transactions(accountID string) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range s.transactions {
		if accountID == "" || t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

// Transfer returns a copy of the stored transfer.
func (s *Store) Transfer(id string) (domain.Transfer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	return t, ok
}

// TransferCount returns how many transfers are stored.
func (s *Store) TransferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}

// CategoryByName returns a copy of the category with the given name, ignoring case.
func (s *Store) CategoryByName(name string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categoryByName(name)
	return c, ok
}

func (s *Store) categoryByName(name string) (domain.Category, bool) {
	key := domain.NormalizeCategoryName(name)
	for _, c := range s.categories {
		if domain.NormalizeCategoryName(c.Name) == key {
			return c, true
		}
	}
	return domain.Category{}, false
}

// RetiredNumber reports whether number was retired.
func (s *Store) RetiredNumber(number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.retiredNumbers[number]
	return ok
}

// OutboxEvents returns copies of all outbox events in insertion order.
func (s *Store) OutboxEvents() []domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxEvent(nil), s.outbox...)
}

// AuditLogs returns copies of all audit entries in insertion order.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditLog(nil), s.audit...)
}

// MockTransactionManager serialises transactions: Begin blocks until the
// previous transaction commits or rolls back, which stands in for row locks.
type MockTransactionManager struct {
	store *Store
	txMu  sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	// CommitFunc, when set, is installed on every transaction begun.
	CommitFunc func(ctx context.Context) error
}

// NewMockTransactionManager creates a transaction manager over store.
func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.txMu.Lock()

	return &MockTransaction{
		store:      m.store,
		release:    m.txMu.Unlock,
		CommitFunc: m.CommitFunc,
	}, nil
}

// MockTransaction journals writes so Rollback can undo them.
type MockTransaction struct {
	store   *Store
	release func()
	journal []func()
	done    bool

	CommitFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}

	t.finish()
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	if t.store != nil {
		t.store.mu.Lock()
		for i := len(t.journal) - 1; i >= 0; i-- {
			t.journal[i]()
		}
		t.store.mu.Unlock()
	}

	t.finish()
	return nil
}

func (t *MockTransaction) finish() {
	t.done = true
	t.journal = nil
	if t.release != nil {
		t.release()
	}
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	store *Store

	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	NumberExistsFunc      func(ctx context.Context, tx usecase.Transaction, number string) (bool, error)
}

func NewMockAccountRepository(store *Store) *MockAccountRepository {
	return &MockAccountRepository{store: store}
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return m.store.mutate(tx, "accounts.Create", func() (func(), error) {
		for _, a := range m.store.accounts {
			if a.AccountNumber == account.AccountNumber {
				return nil, domain.ErrAccountNumberTaken
			}
			if a.UserID == account.UserID && a.Type == account.Type {
				return nil, domain.ErrDuplicateAccountType
			}
		}

		m.store.accounts[account.ID] = *account
		id := account.ID
		return func() { delete(m.store.accounts, id) }, nil
	})
}

func (m *MockAccountRepository) get(id string) (*domain.Account, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if a, ok := m.store.accounts[id]; ok {
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return m.get(id)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, a := range m.store.accounts {
		if a.AccountNumber == number {
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.get(id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if a, ok := m.store.accounts[id]; ok {
			accounts = append(accounts, &a)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) ListByUserTx(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.Account, error) {
	return m.List(ctx, usecase.AccountFilter{UserID: userID})
}

func (m *MockAccountRepository) List(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var accounts []*domain.Account
	for _, a := range m.store.accounts {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		a := a
		accounts = append(accounts, &a)
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	return page(accounts, filter.Limit, filter.Offset), nil
}

func (m *MockAccountRepository) NumberExists(ctx context.Context, tx usecase.Transaction, number string) (bool, error) {
	if m.NumberExistsFunc != nil {
		return m.NumberExistsFunc(ctx, tx, number)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.retiredNumbers[number]; ok {
		return true, nil
	}
	for _, a := range m.store.accounts {
		if a.AccountNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccountRepository) RetireNumber(ctx context.Context, tx usecase.Transaction, number string, retiredAt time.Time) error {
	return m.store.mutate(tx, "accounts.RetireNumber", func() (func(), error) {
		if _, ok := m.store.retiredNumbers[number]; ok {
			return nil, nil
		}
		m.store.retiredNumbers[number] = retiredAt
		return func() { delete(m.store.retiredNumbers, number) }, nil
	})
}

func (m *MockAccountRepository) update(tx usecase.Transaction, op, id string, apply func(*domain.Account) error) error {
	return m.store.mutate(tx, op, func() (func(), error) {
		prev, ok := m.store.accounts[id]
		if !ok {
			return nil, domain.ErrAccountNotFound
		}
		next := prev
		if err := apply(&next); err != nil {
			return nil, err
		}
		m.store.accounts[id] = next
		return func() { m.store.accounts[id] = prev }, nil
	})
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	return m.update(tx, "accounts.UpdateBalance", id, func(a *domain.Account) error {
		if balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}
		a.Balance = balance
		a.Version++
		a.UpdatedAt = updatedAt
		return nil
	})
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.AccountStatus, updatedAt time.Time) error {
	return m.update(tx, "accounts.UpdateStatus", id, func(a *domain.Account) error {
		a.Status = status
		a.Version++
		a.UpdatedAt = updatedAt
		return nil
	})
}

func (m *MockAccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return m.store.mutate(tx, "accounts.Delete", func() (func(), error) {
		prev, ok := m.store.accounts[id]
		if !ok {
			return nil, domain.ErrAccountNotFound
		}
		delete(m.store.accounts, id)
		return func() { m.store.accounts[id] = prev }, nil
	})
}

func (m *MockAccountRepository) SumBalanceByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	total := decimal.Zero
	for _, a := range m.store.accounts {
		if a.UserID == userID && a.Status != domain.AccountStatusClosed {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

func (m *MockAccountRepository) CountByUserAndStatus(ctx context.Context, userID string, status domain.AccountStatus) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	n := 0
	for _, a := range m.store.accounts {
		if a.UserID == userID && a.Status == status {
			n++
		}
	}
	return n, nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
}

func NewMockTransactionRepository(store *Store) *MockTransactionRepository {
	return &MockTransactionRepository{store: store}
}

// snapshot captures the transaction log for an undo closure.
func (m *MockTransactionRepository) snapshot() func() {
	saved := append([]domain.Transaction(nil), m.store.transactions...)
	return func() { m.store.transactions = saved }
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, txn); err != nil {
			return err
		}
	}
	return m.store.mutate(tx, "transactions.Create", func() (func(), error) {
		if _, ok := m.store.accounts[txn.AccountID]; !ok {
			return nil, domain.ErrAccountNotFound
		}
		undo := m.snapshot()
		m.store.transactions = append(m.store.transactions, *txn)
		return undo, nil
	})
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Transaction
	for i := len(m.store.transactions) - 1; i >= 0; i-- {
		t := m.store.transactions[i]
		if t.AccountID == accountID {
			out = append(out, &t)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockTransactionRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range m.store.transactions {
		if t.TransferID != nil && *t.TransferID == transferID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) GetBalanceAtTime(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.store.transactions {
		if t.AccountID == accountID && !t.CreatedAt.After(at) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (m *MockTransactionRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.store.transactions {
		if t.AccountID == accountID {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (m *MockTransactionRepository) CategoryIDsByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]string, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, t := range m.store.transactions {
		if t.AccountID == accountID && t.CategoryID != nil && !seen[*t.CategoryID] {
			seen[*t.CategoryID] = true
			ids = append(ids, *t.CategoryID)
		}
	}
	return ids, nil
}

func (m *MockTransactionRepository) DetachTransfers(ctx context.Context, tx usecase.Transaction, transferIDs []string, accountID string) (int64, error) {
	var n int64
	err := m.store.mutate(tx, "transactions.DetachTransfers", func() (func(), error) {
		ids := toSet(transferIDs)
		undo := m.snapshot()
		for i, t := range m.store.transactions {
			if t.TransferID != nil && ids[*t.TransferID] && t.AccountID != accountID {
				m.store.transactions[i].TransferID = nil
				n++
			}
		}
		return undo, nil
	})
	return n, err
}

func (m *MockTransactionRepository) DeleteByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	var n int64
	err := m.store.mutate(tx, "transactions.DeleteByAccount", func() (func(), error) {
		undo := m.snapshot()
		kept := m.store.transactions[:0:0]
		for _, t := range m.store.transactions {
			if t.AccountID == accountID {
				n++
				continue
			}
			kept = append(kept, t)
		}
		m.store.transactions = kept
		return undo, nil
	})
	return n, err
}

// MockTransferRepository is an in-memory TransferRepository.
type MockTransferRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
}

func NewMockTransferRepository(store *Store) *MockTransferRepository {
	return &MockTransferRepository{store: store}
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, transfer); err != nil {
			return err
		}
	}
	return m.store.mutate(tx, "transfers.Create", func() (func(), error) {
		stored := *transfer
		stored.Transactions = nil
		m.store.transfers[transfer.ID] = stored
		id := transfer.ID
		return func() { delete(m.store.transfers, id) }, nil
	})
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if t, ok := m.store.transfers[id]; ok {
		return &t, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Transfer
	for _, t := range m.store.transfers {
		if t.FromAccountID == accountID || t.ToAccountID == accountID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func (m *MockTransferRepository) ListIDsByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]string, error) {
	transfers, err := m.ListByAccount(ctx, accountID, 0, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(transfers))
	for _, t := range transfers {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (m *MockTransferRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) (int64, error) {
	var n int64
	err := m.store.mutate(tx, "transfers.DeleteByIDs", func() (func(), error) {
		removed := make(map[string]domain.Transfer)
		for _, id := range ids {
			if t, ok := m.store.transfers[id]; ok {
				for _, txn := range m.store.transactions {
					if txn.TransferID != nil && *txn.TransferID == id {
						return nil, fmt.Errorf("transfer %s is still referenced", id)
					}
				}
				removed[id] = t
			}
		}
		for id := range removed {
			delete(m.store.transfers, id)
		}
		n = int64(len(removed))
		return func() {
			for id, t := range removed {
				m.store.transfers[id] = t
			}
		}, nil
	})
	return n, err
}

// MockCategoryRepository is an in-memory CategoryRepository.
type MockCategoryRepository struct {
	store *Store

	GetByNameFunc func(ctx context.Context, name string) (*domain.Category, error)
}

func NewMockCategoryRepository(store *Store) *MockCategoryRepository {
	return &MockCategoryRepository{store: store}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return m.store.mutate(nil, "categories.Create", func() (func(), error) {
		if _, ok := m.store.categoryByName(category.Name); ok {
			return nil, domain.ErrDuplicateCategory
		}
		m.store.categories[category.ID] = *category
		return nil, nil
	})
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if c, ok := m.store.categories[id]; ok {
		return &c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if c, ok := m.store.categoryByName(name); ok {
		return &c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Category
	for _, c := range m.store.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsSystem != out[j].IsSystem {
			return out[i].IsSystem
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// removeCategory deletes a category and nulls references to it. Caller holds the lock.
func (m *MockCategoryRepository) removeCategory(id string) func() {
	prev := m.store.categories[id]
	saved := append([]domain.Transaction(nil), m.store.transactions...)

	delete(m.store.categories, id)
	for i, t := range m.store.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			m.store.transactions[i].CategoryID = nil
		}
	}

	return func() {
		m.store.categories[id] = prev
		m.store.transactions = saved
	}
}

func (m *MockCategoryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return m.store.mutate(tx, "categories.Delete", func() (func(), error) {
		if _, ok := m.store.categories[id]; !ok {
			return nil, domain.ErrCategoryNotFound
		}
		return m.removeCategory(id), nil
	})
}

func (m *MockCategoryRepository) DeleteOrphaned(ctx context.Context, tx usecase.Transaction, ids []string) ([]string, error) {
	var names []string
	err := m.store.mutate(tx, "categories.DeleteOrphaned", func() (func(), error) {
		referenced := make(map[string]bool)
		for _, t := range m.store.transactions {
			if t.CategoryID != nil {
				referenced[*t.CategoryID] = true
			}
		}

		var undos []func()
		for _, id := range ids {
			c, ok := m.store.categories[id]
			if !ok || c.IsSystem || referenced[id] {
				continue
			}
			undos = append(undos, m.removeCategory(id))
			names = append(names, c.Name)
		}

		return func() {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
		}, nil
	})
	return names, err
}

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	store *Store
}

func NewMockUserRepository(store *Store) *MockUserRepository {
	return &MockUserRepository{store: store}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.store.mutate(nil, "users.Create", func() (func(), error) {
		m.store.users[user.ID] = *user
		return nil, nil
	})
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if u, ok := m.store.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

// MockLedgerRepository computes ledger totals from the Store.
type MockLedgerRepository struct {
	store *Store
}

func NewMockLedgerRepository(store *Store) *MockLedgerRepository {
	return &MockLedgerRepository{store: store}
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	balances, amounts := decimal.Zero, decimal.Zero
	for _, a := range m.store.accounts {
		balances = balances.Add(a.Balance)
	}
	for _, t := range m.store.transactions {
		amounts = amounts.Add(t.Amount)
	}
	return balances, amounts, nil
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	store *Store
}

func NewMockOutboxRepository(store *Store) *MockOutboxRepository {
	return &MockOutboxRepository{store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return m.store.mutate(tx, "outbox.Create", func() (func(), error) {
		n := len(m.store.outbox)
		m.store.outbox = append(m.store.outbox, *event)
		return func() { m.store.outbox = m.store.outbox[:n] }, nil
	})
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.store.outbox {
		if !e.Published {
			e := e
			out = append(out, &e)
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.outbox {
		if m.store.outbox[i].ID == id {
			at := publishedAt
			m.store.outbox[i].Published = true
			m.store.outbox[i].PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	kept := m.store.outbox[:0:0]
	for _, e := range m.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.store.outbox = kept
	return nil
}

// MockAuditRepository is an in-memory AuditRepository.
type MockAuditRepository struct {
	store *Store
}

func NewMockAuditRepository(store *Store) *MockAuditRepository {
	return &MockAuditRepository{store: store}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.store.mutate(tx, "audit.Create", func() (func(), error) {
		n := len(m.store.audit)
		m.store.audit = append(m.store.audit, *log)
		return func() { m.store.audit = m.store.audit[:n] }, nil
	})
}

// MockIDGenerator returns sequential, sortable ids.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%06d", m.counter)
}

// MockNumberGenerator hands out queued account numbers first, then sequential ones.
type MockNumberGenerator struct {
	mu             sync.Mutex
	AccountNumbers []string
	next           int
	txCounter      int
}

func NewMockNumberGenerator(queued ...string) *MockNumberGenerator {
	return &MockNumberGenerator{AccountNumbers: queued, next: 10_000_000}
}

func (m *MockNumberGenerator) AccountNumber() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.AccountNumbers) > 0 {
		n := m.AccountNumbers[0]
		m.AccountNumbers = m.AccountNumbers[1:]
		return n
	}
	m.next++
	return fmt.Sprintf("%08d", m.next)
}

func (m *MockNumberGenerator) TransactionNumber() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCounter++
	return fmt.Sprintf("TXN%010d", m.txCounter)
}

func (m *MockNumberGenerator) CorrelationCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCounter++
	return fmt.Sprintf("corr-%06d", m.txCounter)
}

// MockRetrier repeats an operation while it returns a retryable domain error.
type MockRetrier struct {
	MaxAttempts int

	mu       sync.Mutex
	attempts int
}

func NewMockRetrier(maxAttempts int) *MockRetrier {
	return &MockRetrier{MaxAttempts: maxAttempts}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < m.MaxAttempts; i++ {
		m.mu.Lock()
		m.attempts++
		m.mu.Unlock()

		if err = operation(); err == nil || !domain.IsRetryable(err) {
			return err
		}
	}
	return err
}

// Attempts returns how many times operations were invoked.
func (m *MockRetrier) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, usecase.ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key is cached.
func (m *MockCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Value returns the stored value for key.
func (m *MockIdempotencyStore) Value(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
