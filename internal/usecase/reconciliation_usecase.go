package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

const reconciliationBatchSize = 500

// ReconciliationUseCase checks that balances agree with transaction history.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	txRepo      TransactionRepository
	ledgerRepo  LedgerRepository
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	ledgerRepo LedgerRepository,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
		metrics:     metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	AccountNumber     string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount compares an account's balance with the sum of its transactions.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return uc.reconcile(ctx, account)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	calculated, err := uc.txRepo.SumByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	difference := account.Balance.Sub(calculated)
	result := &ReconciliationResult{
		AccountID:         account.ID,
		AccountNumber:     account.AccountNumber,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        difference,
		IsReconciled:      difference.IsZero(),
		LastChecked:       time.Now().UTC(),
	}

	if !result.IsReconciled {
		if uc.metrics != nil {
			uc.metrics.ReconciliationDrifts.Inc()
		}

		uc.logger.Error().
			Str("account_id", account.ID).
			Str("recorded", account.Balance.String()).
			Str("calculated", calculated.String()).
			Msg("balance drift detected")
	}

	return result, nil
}

// ReconcileAllAccounts reconciles every account, paging through them in batches.
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconciliationBatchSize {
		accounts, err := uc.accountRepo.List(ctx, AccountFilter{
			Limit:  reconciliationBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.reconcile(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < reconciliationBatchSize {
			return results, nil
		}
	}
}

// ConsistencyResult compares the ledger-wide totals.
type ConsistencyResult struct {
	TotalBalance     decimal.Decimal
	TotalTransaction decimal.Decimal
	Difference       decimal.Decimal
	Consistent       bool
	CheckedAt        time.Time
}

// CheckConsistency verifies that the sum of all balances equals the sum of all
// transaction amounts.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyResult, error) {
	totalBalance, totalAmount, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{
		TotalBalance:     totalBalance,
		TotalTransaction: totalAmount,
		Difference:       totalBalance.Sub(totalAmount),
		Consistent:       totalBalance.Equal(totalAmount),
		CheckedAt:        time.Now().UTC(),
	}

	if !result.Consistent {
		uc.logger.Error().
			Str("total_balance", totalBalance.String()).
			Str("total_transactions", totalAmount.String()).
			Msg("ledger inconsistency detected")
	}

	return result, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReport reconciles every account and checks ledger-wide consistency.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	consistency, err := uc.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: consistency.Consistent,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
