package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts a new account within a transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries := generated.New(pgxTx(tx))

	_, err := queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		Type:          string(account.Type),
		Balance:       decimalToNumeric(account.Balance),
		Status:        string(account.Status),
		UserID:        account.UserID,
		Version:       account.Version,
		CreatedAt:     timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(account.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		return nil, accountLookupError(err)
	}

	return rowToAccount(row), nil
}

// GetByNumber retrieves an account by its 8-digit number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNumber(ctx, number)
	if err != nil {
		return nil, accountLookupError(err)
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries := generated.New(pgxTx(tx))

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		return nil, accountLookupError(err)
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate locks multiple accounts in ascending id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	queries := generated.New(pgxTx(tx))

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, translateError(err)
	}

	return rowsToAccounts(rows), nil
}

// ListByUserTx lists a user's accounts inside a transaction.
func (r *AccountRepository) ListByUserTx(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.Account, error) {
	queries := generated.New(pgxTx(tx))

	rows, err := queries.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, translateError(err)
	}

	return rowsToAccounts(rows), nil
}

// List lists accounts matching filter.
func (r *AccountRepository) List(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		UserID: filter.UserID,
		Type:   string(filter.Type),
		Status: string(filter.Status),
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows), nil
}

// NumberExists checks live and retired account numbers.
func (r *AccountRepository) NumberExists(ctx context.Context, tx usecase.Transaction, number string) (bool, error) {
	queries := generated.New(pgxTx(tx))

	exists, err := queries.AccountNumberExists(ctx, number)
	return exists, translateError(err)
}

// RetireNumber records a number so it is never issued again.
func (r *AccountRepository) RetireNumber(ctx context.Context, tx usecase.Transaction, number string, retiredAt time.Time) error {
	queries := generated.New(pgxTx(tx))

	return translateError(queries.RetireAccountNumber(ctx, generated.RetireAccountNumberParams{
		AccountNumber: number,
		RetiredAt:     timeToPgTimestamptz(retiredAt),
	}))
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries := generated.New(pgxTx(tx))

	return translateError(queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	}))
}

// UpdateStatus updates the status of an account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.AccountStatus, updatedAt time.Time) error {
	queries := generated.New(pgxTx(tx))

	return translateError(queries.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	}))
}

// Delete hard-deletes an account row.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries := generated.New(pgxTx(tx))

	n, err := queries.DeleteAccount(ctx, id)
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// SumBalanceByUser totals the balances of a user's non-closed accounts.
func (r *AccountRepository) SumBalanceByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	total, err := r.queries.SumBalanceByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// CountByUserAndStatus counts a user's accounts in the given status.
func (r *AccountRepository) CountByUserAndStatus(ctx context.Context, userID string, status domain.AccountStatus) (int, error) {
	count, err := r.queries.CountAccountsByUserAndStatus(ctx, generated.CountAccountsByUserAndStatusParams{
		UserID: userID,
		Status: string(status),
	})
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func accountLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}

	return translateError(err)
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		Type:          domain.AccountType(row.Type),
		Balance:       numericToDecimal(row.Balance),
		Status:        domain.AccountStatus(row.Status),
		UserID:        row.UserID,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
