package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	queries *generated.Queries
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return newTransferRepository(pool)
}

func newTransferRepository(db generated.DBTX) *TransferRepository {
	return &TransferRepository{queries: generated.New(db)}
}

// Create creates a new transfer within a transaction.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	queries := generated.New(pgxTx(tx))

	return translateError(queries.CreateTransfer(ctx, generated.CreateTransferParams{
		ID:              transfer.ID,
		FromAccountID:   transfer.FromAccountID,
		ToAccountID:     transfer.ToAccountID,
		Amount:          decimalToNumeric(transfer.Amount),
		Description:     transfer.Description,
		CorrelationCode: transfer.CorrelationCode,
		Status:          string(transfer.Status),
		TransferredAt:   timeToPgTimestamptz(transfer.TransferredAt),
		CreatedAt:       timeToPgTimestamptz(transfer.CreatedAt),
	}))
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	row, err := r.queries.GetTransferByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, err
	}

	return rowToTransfer(row), nil
}

// ListByAccount lists transfers where the account is sender or receiver.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	rows, err := r.queries.ListTransfersByAccount(ctx, generated.ListTransfersByAccountParams{
		FromAccountID: accountID,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, err
	}

	transfers := make([]*domain.Transfer, 0, len(rows))
	for _, row := range rows {
		transfers = append(transfers, rowToTransfer(row))
	}

	return transfers, nil
}

// ListIDsByAccountTx lists ids of every transfer touching the account.
func (r *TransferRepository) ListIDsByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]string, error) {
	queries := generated.New(pgxTx(tx))

	ids, err := queries.ListTransferIDsByAccount(ctx, accountID)
	return ids, translateError(err)
}

// DeleteByIDs deletes transfers by id.
func (r *TransferRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	queries := generated.New(pgxTx(tx))

	n, err := queries.DeleteTransfersByIDs(ctx, ids)
	return n, translateError(err)
}

func rowToTransfer(row generated.Transfer) *domain.Transfer {
	return &domain.Transfer{
		ID:              row.ID,
		FromAccountID:   row.FromAccountID,
		ToAccountID:     row.ToAccountID,
		Amount:          numericToDecimal(row.Amount),
		Description:     row.Description,
		CorrelationCode: row.CorrelationCode,
		Status:          domain.TransferStatus(row.Status),
		TransferredAt:   row.TransferredAt.Time,
		CreatedAt:       row.CreatedAt.Time,
	}
}
