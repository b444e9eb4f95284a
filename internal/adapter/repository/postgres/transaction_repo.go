package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create appends a transaction within a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	queries := generated.New(pgxTx(tx))

	return translateError(queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                txn.ID,
		TransactionNumber: txn.Number,
		AccountID:         txn.AccountID,
		Type:              string(txn.Type),
		Status:            string(txn.Status),
		Amount:            decimalToNumeric(txn.Amount),
		BalanceAfter:      decimalToNumeric(txn.BalanceAfter),
		Description:       txn.Description,
		CategoryID:        stringPtrToText(txn.CategoryID),
		TransferID:        stringPtrToText(txn.TransferID),
		CorrelationCode:   txn.CorrelationCode,
		Side:              string(txn.Side),
		CreatedAt:         timeToPgTimestamptz(txn.CreatedAt),
	}))
}

// ListByAccount returns an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// ListByTransfer returns the legs of a transfer.
func (r *TransactionRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByTransfer(ctx, pgtype.Text{String: transferID, Valid: true})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// GetBalanceAtTime returns the balance snapshot of the last transaction at or before at.
func (r *TransactionRepository) GetBalanceAtTime(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	balance, err := r.queries.GetBalanceAtTime(ctx, generated.GetBalanceAtTimeParams{
		AccountID: accountID,
		CreatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

// SumByAccount totals the signed amounts of an account's transactions.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	total, err := r.queries.SumTransactionsByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// CategoryIDsByAccount lists distinct categories referenced by an account's transactions.
func (r *TransactionRepository) CategoryIDsByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]string, error) {
	queries := generated.New(pgxTx(tx))

	ids, err := queries.ListCategoryIDsByAccount(ctx, accountID)
	return ids, translateError(err)
}

// DetachTransfers clears the transfer link on other accounts' legs.
func (r *TransactionRepository) DetachTransfers(ctx context.Context, tx usecase.Transaction, transferIDs []string, accountID string) (int64, error) {
	if len(transferIDs) == 0 {
		return 0, nil
	}

	queries := generated.New(pgxTx(tx))

	n, err := queries.DetachTransfersFromOtherAccounts(ctx, generated.DetachTransfersFromOtherAccountsParams{
		TransferIds: transferIDs,
		AccountID:   accountID,
	})
	return n, translateError(err)
}

// DeleteByAccount deletes every transaction of an account.
func (r *TransactionRepository) DeleteByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	queries := generated.New(pgxTx(tx))

	n, err := queries.DeleteTransactionsByAccount(ctx, accountID)
	return n, translateError(err)
}

func rowsToTransactions(rows []generated.Transaction) []*domain.Transaction {
	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, rowToTransaction(row))
	}

	return txns
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:              row.ID,
		Number:          row.TransactionNumber,
		AccountID:       row.AccountID,
		Type:            domain.TransactionType(row.Type),
		Status:          domain.TransactionStatus(row.Status),
		Amount:          numericToDecimal(row.Amount),
		BalanceAfter:    numericToDecimal(row.BalanceAfter),
		Description:     row.Description,
		CategoryID:      textToStringPtr(row.CategoryID),
		TransferID:      textToStringPtr(row.TransferID),
		CorrelationCode: row.CorrelationCode,
		Side:            domain.TransferSide(row.Side),
		CreatedAt:       row.CreatedAt.Time,
	}
}
