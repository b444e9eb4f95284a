package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns the sum of all balances and the sum of all transaction amounts.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance, totalAmount decimal.Decimal, err error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(result.TotalAccountBalance), numericToDecimal(result.TotalTransactionAmount), nil
}
