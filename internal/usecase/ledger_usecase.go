package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// LedgerUseCase posts deposits and withdrawals and serves balance reads.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	categories  CategoryResolver
	idGen       IDGenerator
	numbers     NumberGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	categories CategoryResolver,
	idGen IDGenerator,
	numbers NumberGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		categories:  categories,
		idGen:       idGen,
		numbers:     numbers,
		logger:      logger,
		metrics:     metrics,
	}
}

// PostingInput is the input for a deposit or a withdrawal.
// UserID, when set, must own the account. An empty Category falls back to
// the matching system category.
type PostingInput struct {
	AccountID   string
	UserID      string
	Amount      decimal.Decimal
	Description string
	Category    string
}

// DepositInput represents input for a deposit.
type DepositInput = PostingInput

// WithdrawInput represents input for a withdrawal.
type WithdrawInput = PostingInput

const (
	defaultDepositCategory    = "Deposit"
	defaultWithdrawalCategory = "Withdrawal"
)

// Deposit credits an account and appends a DEPOSIT transaction.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	return uc.post(ctx, "deposit", domain.TransactionTypeDeposit, input)
}

// Withdraw debits an account and appends a WITHDRAWAL transaction with a negative amount.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.Transaction, error) {
	return uc.post(ctx, "withdraw", domain.TransactionTypeWithdrawal, input)
}

func (uc *LedgerUseCase) post(
	ctx context.Context,
	operation string,
	txType domain.TransactionType,
	input PostingInput,
) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.postTx(ctx, txType, input)
	if err != nil {
		uc.metrics.ObserveError(operation, domain.KindOf(err).String())
		logger.FromContext(ctx, uc.logger).Warn().
			Err(err).
			Str("operation", operation).
			Str("account_id", input.AccountID).
			Str("amount", input.Amount.String()).
			Msg("posting rejected")
		return nil, err
	}

	if uc.metrics != nil {
		amount, _ := input.Amount.Float64()
		if txType == domain.TransactionTypeDeposit {
			uc.metrics.DepositsPosted.Inc()
		} else {
			uc.metrics.WithdrawalsPosted.Inc()
		}
		uc.metrics.PostingAmount.WithLabelValues(string(txType)).Observe(amount)
		uc.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}

	logger.FromContext(ctx, uc.logger).Info().
		Str("operation", operation).
		Str("account_id", txn.AccountID).
		Str("transaction", txn.Number).
		Str("amount", txn.Amount.String()).
		Str("balance_after", txn.BalanceAfter.String()).
		Msg("posting completed")

	return txn, nil
}

func (uc *LedgerUseCase) postTx(ctx context.Context, txType domain.TransactionType, input PostingInput) (*domain.Transaction, error) {
	if input.AccountID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	categoryName := strings.TrimSpace(input.Category)
	if categoryName == "" {
		categoryName = defaultDepositCategory
		if txType == domain.TransactionTypeWithdrawal {
			categoryName = defaultWithdrawalCategory
		}
	}

	// Resolved outside the transaction; a failure is reported only once the
	// account itself has been checked.
	category, categoryErr := uc.categories.Resolve(ctx, categoryName)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(input.UserID) {
		return nil, domain.ErrAccountNotFound
	}

	if err := account.EnsureActive(); err != nil {
		return nil, err
	}

	if categoryErr != nil {
		return nil, categoryErr
	}

	var (
		signed     decimal.Decimal
		newBalance decimal.Decimal
		eventType  string
	)

	switch txType {
	case domain.TransactionTypeWithdrawal:
		if err := account.ValidateDebit(input.Amount); err != nil {
			return nil, err
		}
		signed = input.Amount.Neg()
		newBalance = account.ApplyDebit(input.Amount)
		eventType = domain.EventTypeWithdrawalPosted
	default:
		signed = input.Amount
		newBalance = account.ApplyCredit(input.Amount)
		eventType = domain.EventTypeDepositPosted
	}

	now := time.Now().UTC()
	categoryID := category.ID

	txn := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		Number:       uc.numbers.TransactionNumber(),
		AccountID:    account.ID,
		Type:         txType,
		Status:       domain.TransactionStatusCompleted,
		Amount:       signed,
		BalanceAfter: newBalance,
		Description:  input.Description,
		CategoryID:   &categoryID,
		CreatedAt:    now,
	}

	if err := uc.txRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload: domain.MarshalState(domain.TransactionPostedEvent{
			TransactionID:     txn.ID,
			TransactionNumber: txn.Number,
			AccountID:         account.ID,
			Amount:            txn.Amount.String(),
			BalanceAfter:      txn.BalanceAfter.String(),
			Category:          category.Name,
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.Version++

	return txn, nil
}

// GetBalance returns the current balance of an account.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// GetHistoryInput represents input for listing an account's transactions.
type GetHistoryInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetHistory lists an account's transactions, newest first.
func (uc *LedgerUseCase) GetHistory(ctx context.Context, input GetHistoryInput) ([]*domain.Transaction, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// GetHistoricalBalance returns the balance at a specific point in time.
func (uc *LedgerUseCase) GetHistoricalBalance(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	return uc.txRepo.GetBalanceAtTime(ctx, accountID, at)
}
