package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransferUseCase handles transfer business logic.
type TransferUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	transferRepo TransferRepository
	txRepo       TransactionRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	numbers      NumberGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	numbers NumberGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		txRepo:       txRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		numbers:      numbers,
		logger:       logger,
		metrics:      metrics,
	}
}

// CreateTransferInput represents input for creating a transfer.
// UserID, when set, must own the sender account.
type CreateTransferInput struct {
	FromAccountID string
	ToAccountID   string
	UserID        string
	Amount        decimal.Decimal
	Description   string
}

// CreateTransferByNumberInput identifies both accounts by account number.
type CreateTransferByNumberInput struct {
	FromAccountNumber string
	ToAccountNumber   string
	UserID            string
	Amount            decimal.Decimal
	Description       string
}

// CreateTransfer moves money between two accounts atomically.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	start := time.Now()

	transfer, err := uc.createTransfer(ctx, input)
	if err != nil {
		uc.metrics.ObserveError("transfer", domain.KindOf(err).String())
		logger.FromContext(ctx, uc.logger).Warn().
			Err(err).
			Str("from_account_id", input.FromAccountID).
			Str("to_account_id", input.ToAccountID).
			Str("amount", input.Amount.String()).
			Msg("transfer rejected")
		return nil, err
	}

	if uc.metrics != nil {
		amount, _ := transfer.Amount.Float64()
		uc.metrics.TransfersCreated.Inc()
		uc.metrics.TransferAmount.Observe(amount)
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	logger.FromContext(ctx, uc.logger).Info().
		Str("transfer_id", transfer.ID).
		Str("correlation_code", transfer.CorrelationCode).
		Str("amount", transfer.Amount.String()).
		Msg("transfer completed")

	return transfer, nil
}

// CreateTransferByNumber resolves both account numbers and performs the transfer.
func (uc *TransferUseCase) CreateTransferByNumber(ctx context.Context, input CreateTransferByNumberInput) (*domain.Transfer, error) {
	if err := domain.ValidateAccountNumber(input.FromAccountNumber); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountNumber(input.ToAccountNumber); err != nil {
		return nil, err
	}

	from, err := uc.accountRepo.GetByNumber(ctx, input.FromAccountNumber)
	if err != nil {
		return nil, err
	}

	to, err := uc.accountRepo.GetByNumber(ctx, input.ToAccountNumber)
	if err != nil {
		return nil, err
	}

	return uc.CreateTransfer(ctx, CreateTransferInput{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		UserID:        input.UserID,
		Amount:        input.Amount,
		Description:   input.Description,
	})
}

func (uc *TransferUseCase) createTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	now := time.Now().UTC()

	transfer := &domain.Transfer{
		ID:              uc.idGen.Generate(),
		FromAccountID:   input.FromAccountID,
		ToAccountID:     input.ToAccountID,
		Amount:          input.Amount,
		Description:     input.Description,
		CorrelationCode: uc.numbers.CorrelationCode(),
		Status:          domain.TransferStatusCompleted,
		TransferredAt:   now,
		CreatedAt:       now,
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	// Lock in ascending id order so two opposing transfers cannot deadlock.
	accountIDs := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(accountIDs)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	accountMap := buildAccountMap(accounts)
	from := accountMap[input.FromAccountID]
	to := accountMap[input.ToAccountID]

	if from == nil || to == nil {
		return nil, domain.ErrAccountNotFound
	}

	if !from.OwnedBy(input.UserID) {
		return nil, domain.ErrAccountNotFound
	}

	if err := from.EnsureActive(); err != nil {
		return nil, err
	}

	if err := to.EnsureActive(); err != nil {
		return nil, err
	}

	if err := from.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Create(txCtx, tx, transfer); err != nil {
		return nil, err
	}

	fromBalance := from.ApplyDebit(input.Amount)
	toBalance := to.ApplyCredit(input.Amount)

	senderLeg := uc.newLeg(transfer, from, input.Amount.Neg(), fromBalance, domain.TransferSideSender,
		legDescription(input.Description, "Transfer to %s", to.AccountNumber), now)
	receiverLeg := uc.newLeg(transfer, to, input.Amount, toBalance, domain.TransferSideReceiver,
		legDescription(input.Description, "Transfer from %s", from.AccountNumber), now)

	for _, leg := range []*domain.Transaction{senderLeg, receiverLeg} {
		if err := uc.txRepo.Create(txCtx, tx, leg); err != nil {
			return nil, err
		}
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, from.ID, fromBalance, now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, to.ID, toBalance, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCreated,
		Payload: domain.MarshalState(domain.TransferCreatedEvent{
			TransferID:      transfer.ID,
			FromAccountID:   from.ID,
			ToAccountID:     to.ID,
			Amount:          transfer.Amount.String(),
			CorrelationCode: transfer.CorrelationCode,
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	from.Balance = fromBalance
	from.Version++
	to.Balance = toBalance
	to.Version++

	transfer.Transactions = []*domain.Transaction{senderLeg, receiverLeg}

	return transfer, nil
}

func (uc *TransferUseCase) newLeg(
	transfer *domain.Transfer,
	account *domain.Account,
	amount, balanceAfter decimal.Decimal,
	side domain.TransferSide,
	description string,
	now time.Time,
) *domain.Transaction {
	transferID := transfer.ID

	return &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Number:          uc.numbers.TransactionNumber(),
		AccountID:       account.ID,
		Type:            domain.TransactionTypeTransfer,
		Status:          domain.TransactionStatusCompleted,
		Amount:          amount,
		BalanceAfter:    balanceAfter,
		Description:     description,
		TransferID:      &transferID,
		CorrelationCode: transfer.CorrelationCode,
		Side:            side,
		CreatedAt:       now,
	}
}

func legDescription(description, format, accountNumber string) string {
	if description != "" {
		return description
	}
	return fmt.Sprintf(format, accountNumber)
}

// GetTransfer retrieves a transfer by ID together with its legs.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	legs, err := uc.txRepo.ListByTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	transfer.Transactions = legs

	return transfer, nil
}

// ListTransfersByAccountInput represents input for listing transfers.
type ListTransfersByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransfersByAccount lists transfers where the account is sender or receiver.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, input ListTransfersByAccountInput) ([]*domain.Transfer, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.transferRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

func buildAccountMap(accounts []*domain.Account) map[string]*domain.Account {
	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}

	return m
}
