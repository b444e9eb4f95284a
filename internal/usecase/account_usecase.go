package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AccountDeps groups the collaborators of AccountUseCase.
type AccountDeps struct {
	TxManager    TransactionManager
	AccountRepo  AccountRepository
	UserRepo     UserRepository
	TransferRepo TransferRepository
	TxRepo       TransactionRepository
	CategoryRepo CategoryRepository
	OutboxRepo   OutboxRepository
	AuditRepo    AuditRepository
	Categories   CategoryResolver
	IDGen        IDGenerator
	Numbers      NumberGenerator
	Retrier      Retrier

	// MaxAccountsPerUser defaults to DefaultMaxAccountsPerUser when zero.
	MaxAccountsPerUser int

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// AccountUseCase manages the account lifecycle: open, close, status changes and reads.
type AccountUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	userRepo     UserRepository
	transferRepo TransferRepository
	txRepo       TransactionRepository
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	categories   CategoryResolver
	idGen        IDGenerator
	numbers      NumberGenerator
	retrier      Retrier
	maxAccounts  int
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(deps AccountDeps) *AccountUseCase {
	maxAccounts := deps.MaxAccountsPerUser
	if maxAccounts <= 0 {
		maxAccounts = DefaultMaxAccountsPerUser
	}

	return &AccountUseCase{
		txManager:    deps.TxManager,
		accountRepo:  deps.AccountRepo,
		userRepo:     deps.UserRepo,
		transferRepo: deps.TransferRepo,
		txRepo:       deps.TxRepo,
		categoryRepo: deps.CategoryRepo,
		outboxRepo:   deps.OutboxRepo,
		auditRepo:    deps.AuditRepo,
		categories:   deps.Categories,
		idGen:        deps.IDGen,
		numbers:      deps.Numbers,
		retrier:      deps.Retrier,
		maxAccounts:  maxAccounts,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	UserID string
	Type   domain.AccountType
}

// OpenAccount creates an OPEN account with zero balance and a fresh 8-digit number.
// Account-number collisions are retried internally and never reach the caller.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.UserID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	if _, err := domain.ParseAccountType(string(input.Type)); err != nil {
		return nil, err
	}

	var account *domain.Account

	open := func() error {
		var err error
		account, err = uc.openAccount(ctx, input)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, open)
	} else {
		err = open()
	}

	if err != nil {
		uc.metrics.ObserveError("open_account", domain.KindOf(err).String())
		logger.FromContext(ctx, uc.logger).Warn().
			Err(err).
			Str("user_id", input.UserID).
			Str("type", string(input.Type)).
			Msg("open account rejected")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	logger.FromContext(ctx, uc.logger).Info().
		Str("account_id", account.ID).
		Str("account_number", account.AccountNumber).
		Str("type", string(account.Type)).
		Msg("account opened")

	return account, nil
}

func (uc *AccountUseCase) openAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// The user row lock serialises concurrent opens for the same user.
	user, err := uc.userRepo.GetByIDForUpdate(txCtx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrUserNotFound
	}

	existing, err := uc.accountRepo.ListByUserTx(txCtx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	held := 0
	for _, a := range existing {
		if a.Status == domain.AccountStatusClosed {
			continue
		}
		if a.Type == input.Type {
			return nil, domain.ErrDuplicateAccountType
		}
		held++
	}

	if held >= uc.maxAccounts {
		return nil, domain.ErrAccountLimitReached
	}

	number, err := uc.generateAccountNumber(txCtx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		AccountNumber: number,
		Type:          input.Type,
		Balance:       decimal.Zero,
		Status:        domain.AccountStatusOpen,
		UserID:        input.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountOpened,
		Payload: domain.MarshalState(domain.AccountOpenedEvent{
			AccountID:     account.ID,
			AccountNumber: account.AccountNumber,
			UserID:        account.UserID,
			Type:          string(account.Type),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, txCtx, tx, domain.AuditActionAccountOpen, account.ID, nil, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// generateAccountNumber draws numbers until one is neither live nor retired.
func (uc *AccountUseCase) generateAccountNumber(ctx context.Context, tx Transaction) (string, error) {
	for attempt := 0; attempt < MaxAccountNumberAttempts; attempt++ {
		number := uc.numbers.AccountNumber()

		exists, err := uc.accountRepo.NumberExists(ctx, tx, number)
		if err != nil {
			return "", err
		}

		if !exists {
			return number, nil
		}

		if uc.metrics != nil {
			uc.metrics.AccountNumberRetries.Inc()
		}
	}

	return "", domain.ErrAccountNumberTaken
}

// CloseAccountInput represents input for closing an account.
// AccountNumber and Type must both match the stored account.
type CloseAccountInput struct {
	AccountID     string
	UserID        string
	AccountNumber string
	Type          domain.AccountType
	Reason        string
}

// ClosedAccount reports what closing an account removed.
type ClosedAccount struct {
	Account              *domain.Account
	AlreadyClosed        bool
	DeletedTransfers     int64
	DeletedTransactions  int64
	DetachedTransactions int64
	DeletedCategories    []string
	ClosedAt             time.Time
}

// Signal returns ErrAccountAlreadyClosed when the account was CLOSED before the call.
// The closure itself still succeeded.
func (c *ClosedAccount) Signal() error {
	if c != nil && c.AlreadyClosed {
		return domain.ErrAccountAlreadyClosed
	}
	return nil
}

// CloseAccount closes a zero-balance account and removes it with its history.
// Counterparty legs of its transfers are kept and unlinked so the other
// account's balance still matches its transactions.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, input CloseAccountInput) (*ClosedAccount, error) {
	if input.AccountID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	result, err := uc.closeAccount(ctx, input)
	if err != nil {
		uc.metrics.ObserveError("close_account", domain.KindOf(err).String())
		logger.FromContext(ctx, uc.logger).Warn().
			Err(err).
			Str("account_id", input.AccountID).
			Msg("close account rejected")
		return nil, err
	}

	if len(result.DeletedCategories) > 0 && uc.categories != nil {
		uc.categories.Invalidate(ctx, result.DeletedCategories...)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
	}

	logger.FromContext(ctx, uc.logger).Info().
		Str("account_id", input.AccountID).
		Bool("already_closed", result.AlreadyClosed).
		Int64("deleted_transfers", result.DeletedTransfers).
		Int64("deleted_transactions", result.DeletedTransactions).
		Int64("detached_transactions", result.DetachedTransactions).
		Strs("deleted_categories", result.DeletedCategories).
		Msg("account closed")

	return result, nil
}

func (uc *AccountUseCase) closeAccount(ctx context.Context, input CloseAccountInput) (*ClosedAccount, error) {
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

	if err := account.ConfirmDetails(input.AccountNumber, input.Type); err != nil {
		return nil, err
	}

	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	if !account.Balance.IsZero() {
		return nil, domain.ErrNonZeroBalance
	}

	before := *account
	now := time.Now().UTC()

	result := &ClosedAccount{
		Account:       account,
		AlreadyClosed: account.Status == domain.AccountStatusClosed,
		ClosedAt:      now,
	}

	if !result.AlreadyClosed {
		if err := uc.accountRepo.UpdateStatus(txCtx, tx, account.ID, domain.AccountStatusClosed, now); err != nil {
			return nil, err
		}
		account.Status = domain.AccountStatusClosed
		account.UpdatedAt = now
	}

	transferIDs, err := uc.transferRepo.ListIDsByAccountTx(txCtx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	categoryIDs, err := uc.txRepo.CategoryIDsByAccount(txCtx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	if result.DetachedTransactions, err = uc.txRepo.DetachTransfers(txCtx, tx, transferIDs, account.ID); err != nil {
		return nil, err
	}

	if result.DeletedTransactions, err = uc.txRepo.DeleteByAccount(txCtx, tx, account.ID); err != nil {
		return nil, err
	}

	if result.DeletedTransfers, err = uc.transferRepo.DeleteByIDs(txCtx, tx, transferIDs); err != nil {
		return nil, err
	}

	if result.DeletedCategories, err = uc.categoryRepo.DeleteOrphaned(txCtx, tx, categoryIDs); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.RetireNumber(txCtx, tx, account.AccountNumber, now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Delete(txCtx, tx, account.ID); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountClosed,
		Payload: domain.MarshalState(domain.AccountClosedEvent{
			AccountID:           account.ID,
			AccountNumber:       account.AccountNumber,
			UserID:              account.UserID,
			Reason:              input.Reason,
			DeletedTransfers:    int(result.DeletedTransfers),
			DeletedTransactions: int(result.DeletedTransactions),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	after := domain.MarshalState(account)
	after["reason"] = input.Reason
	if err := uc.auditState(ctx, txCtx, tx, domain.AuditActionAccountClose, account.ID, domain.MarshalState(&before), after); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

// ChangeStatusInput represents input for freezing or unfreezing an account.
type ChangeStatusInput struct {
	AccountID string
	UserID    string
	Status    domain.AccountStatus
}

// ChangeStatus moves an account between OPEN and FROZEN.
func (uc *AccountUseCase) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*domain.Account, error) {
	if input.AccountID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	if _, err := domain.ParseAccountStatus(string(input.Status)); err != nil {
		return nil, err
	}

	account, changed, err := uc.changeStatus(ctx, input)
	if err != nil {
		uc.metrics.ObserveError("change_status", domain.KindOf(err).String())
		return nil, err
	}

	if changed {
		if uc.metrics != nil {
			uc.metrics.AccountStatusChanges.WithLabelValues(string(account.Status)).Inc()
		}

		logger.FromContext(ctx, uc.logger).Info().
			Str("account_id", account.ID).
			Str("status", string(account.Status)).
			Msg("account status changed")
	}

	return account, nil
}

func (uc *AccountUseCase) changeStatus(ctx context.Context, input ChangeStatusInput) (*domain.Account, bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, false, err
	}

	if !account.OwnedBy(input.UserID) {
		return nil, false, domain.ErrAccountNotFound
	}

	if err := account.CanTransitionTo(input.Status); err != nil {
		return nil, false, err
	}

	if account.Status == input.Status {
		return account, false, nil
	}

	before := *account
	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateStatus(txCtx, tx, account.ID, input.Status, now); err != nil {
		return nil, false, err
	}
	account.Status = input.Status
	account.UpdatedAt = now

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountStatusChange,
		Payload: domain.MarshalState(domain.AccountStatusChangedEvent{
			AccountID: account.ID,
			From:      string(before.Status),
			To:        string(account.Status),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, false, err
	}

	if err := uc.audit(ctx, txCtx, tx, domain.AuditActionAccountStatusChange, account.ID, &before, account); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, false, err
	}

	return account, true, nil
}

func (uc *AccountUseCase) audit(
	ctx, txCtx context.Context,
	tx Transaction,
	action domain.AuditAction,
	accountID string,
	before, after *domain.Account,
) error {
	var beforeState, afterState domain.JSON
	if before != nil {
		beforeState = domain.MarshalState(before)
	}
	if after != nil {
		afterState = domain.MarshalState(after)
	}

	return uc.auditState(ctx, txCtx, tx, action, accountID, beforeState, afterState)
}

func (uc *AccountUseCase) auditState(
	ctx, txCtx context.Context,
	tx Transaction,
	action domain.AuditAction,
	accountID string,
	before, after domain.JSON,
) error {
	if uc.auditRepo == nil {
		return nil
	}

	userID, ok := logger.UserID(ctx)
	if !ok {
		userID = systemActor
	}
	requestID, _ := logger.RequestID(ctx)

	return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   accountID,
		RequestID:    requestID,
		BeforeState:  before,
		AfterState:   after,
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	})
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its 8-digit number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	if err := domain.ValidateAccountNumber(number); err != nil {
		return nil, err
	}

	return uc.accountRepo.GetByNumber(ctx, number)
}

// ListUserAccountsInput represents input for listing a user's accounts.
type ListUserAccountsInput struct {
	UserID string
	Type   domain.AccountType
	Status domain.AccountStatus
	Limit  int
	Offset int
}

// ListUserAccounts lists a user's accounts with optional type and status filters.
func (uc *AccountUseCase) ListUserAccounts(ctx context.Context, input ListUserAccountsInput) ([]*domain.Account, error) {
	if input.UserID == "" {
		return nil, domain.ErrMissingRequiredIdentifier
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.List(ctx, AccountFilter{
		UserID: input.UserID,
		Type:   input.Type,
		Status: input.Status,
		Limit:  limit,
		Offset: offset,
	})
}

// GetTotalBalance sums the balances of a user's non-closed accounts.
func (uc *AccountUseCase) GetTotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, domain.ErrMissingRequiredIdentifier
	}

	return uc.accountRepo.SumBalanceByUser(ctx, userID)
}

// CountOpenAccounts counts a user's accounts with status OPEN.
func (uc *AccountUseCase) CountOpenAccounts(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrMissingRequiredIdentifier
	}

	return uc.accountRepo.CountByUserAndStatus(ctx, userID, domain.AccountStatusOpen)
}
