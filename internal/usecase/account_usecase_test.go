package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	b := newBank(t)
	ctx := logger.WithUserID(context.Background(), "user-1")

	account, err := b.accounts.OpenAccount(ctx, usecase.OpenAccountInput{UserID: "user-1", Type: domain.AccountTypeSavings})
	require.NoError(t, err)

	assert.Equal(t, domain.AccountStatusOpen, account.Status)
	assert.Equal(t, domain.AccountTypeSavings, account.Type)
	assert.True(t, account.Balance.IsZero())
	assert.NoError(t, domain.ValidateAccountNumber(account.AccountNumber))

	stored, ok := b.store.Account(account.ID)
	require.True(t, ok)
	assert.Equal(t, account.AccountNumber, stored.AccountNumber)

	events := b.store.OutboxEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTypeAccountOpened, events[len(events)-1].EventType)

	logs := b.store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionAccountOpen, logs[0].Action)
	assert.Equal(t, "user-1", logs[0].UserID)
	assert.Equal(t, account.ID, logs[0].ResourceID)
	assert.Nil(t, logs[0].BeforeState)

	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.AccountsOpened))
}

func TestAccountUseCase_OpenAccountRejections(t *testing.T) {
	b := newBank(t)
	b.store.SeedUser(domain.User{ID: "inactive", Email: "gone@example.com", Active: false})
	b.open(t, "user-1", domain.AccountTypeSavings)

	tests := []struct {
		name    string
		input   usecase.OpenAccountInput
		wantErr error
	}{
		{
			name:    "missing user",
			input:   usecase.OpenAccountInput{Type: domain.AccountTypeDebit},
			wantErr: domain.ErrMissingRequiredIdentifier,
		},
		{
			name:    "unknown type",
			input:   usecase.OpenAccountInput{UserID: "user-1", Type: "CHECKING"},
			wantErr: domain.ErrInvalidAccountType,
		},
		{
			name:    "unknown user",
			input:   usecase.OpenAccountInput{UserID: "nobody", Type: domain.AccountTypeDebit},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "inactive user",
			input:   usecase.OpenAccountInput{UserID: "inactive", Type: domain.AccountTypeDebit},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "duplicate type",
			input:   usecase.OpenAccountInput{UserID: "user-1", Type: domain.AccountTypeSavings},
			wantErr: domain.ErrDuplicateAccountType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := b.accounts.OpenAccount(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, account)
		})
	}

	assert.Len(t, b.store.Accounts(), 1)
}

func TestAccountUseCase_OpenAccountLimit(t *testing.T) {
	b := newBank(t, withMaxAccounts(2))

	b.open(t, "user-1", domain.AccountTypeSavings)
	debit := b.open(t, "user-1", domain.AccountTypeDebit)

	_, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: "user-1", Type: domain.AccountTypeCredit})
	require.ErrorIs(t, err, domain.ErrAccountLimitReached)
	assert.Equal(t, domain.KindPolicyViolation, domain.KindOf(err))

	// Other users are unaffected.
	b.open(t, "user-2", domain.AccountTypeCredit)

	// Closing an account frees a slot.
	_, err = b.accounts.CloseAccount(context.Background(), usecase.CloseAccountInput{
		AccountID:     debit.ID,
		AccountNumber: debit.AccountNumber,
		Type:          debit.Type,
		Reason:        "not needed",
	})
	require.NoError(t, err)

	b.open(t, "user-1", domain.AccountTypeCredit)
}

func TestAccountUseCase_OpenAccountRetriesNumberCollision(t *testing.T) {
	b := newBank(t)
	first := b.open(t, "user-1", domain.AccountTypeSavings)

	// A number that looked free when checked but was taken by the time it was inserted.
	b.accountRepo.NumberExistsFunc = func(ctx context.Context, tx usecase.Transaction, number string) (bool, error) {
		return false, nil
	}
	b.numbers.AccountNumbers = []string{first.AccountNumber, "20000000"}

	attempts := b.retrier.Attempts()

	account, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: "user-2", Type: domain.AccountTypeSavings})
	require.NoError(t, err)

	assert.Equal(t, "20000000", account.AccountNumber)
	assert.Equal(t, attempts+2, b.retrier.Attempts())
	assert.Len(t, b.store.Accounts(), 2)
}

func TestAccountUseCase_OpenAccountGivesUpOnExhaustedNumbers(t *testing.T) {
	b := newBank(t)
	b.accountRepo.NumberExistsFunc = func(ctx context.Context, tx usecase.Transaction, number string) (bool, error) {
		return true, nil
	}

	_, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: "user-1", Type: domain.AccountTypeDebit})
	require.ErrorIs(t, err, domain.ErrAccountNumberTaken)
	assert.Equal(t, 5, b.retrier.Attempts())
	assert.Empty(t, b.store.Accounts())
}

func TestAccountUseCase_RetiredNumbersAreNotReused(t *testing.T) {
	b := newBank(t)
	account := b.open(t, "user-1", domain.AccountTypeSavings)

	_, err := b.accounts.CloseAccount(context.Background(), usecase.CloseAccountInput{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Type:          account.Type,
		Reason:        "moving banks",
	})
	require.NoError(t, err)
	require.True(t, b.store.RetiredNumber(account.AccountNumber))

	b.numbers.AccountNumbers = []string{account.AccountNumber}

	reopened := b.open(t, "user-1", domain.AccountTypeSavings)
	assert.NotEqual(t, account.AccountNumber, reopened.AccountNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.AccountNumberRetries))
}

func TestAccountUseCase_ConcurrentOpensGetUniqueNumbers(t *testing.T) {
	b := newBank(t)

	const users = 10
	for i := 0; i < users; i++ {
		b.addUser(fmt.Sprintf("u-%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		numbers  = make(map[string]bool)
		failures []error
	)

	for i := 0; i < users; i++ {
		for _, accountType := range domain.AccountTypes {
			wg.Add(1)
			go func(userID string, accountType domain.AccountType) {
				defer wg.Done()
				account, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: userID, Type: accountType})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, err)
					return
				}
				numbers[account.AccountNumber] = true
			}(fmt.Sprintf("u-%d", i), accountType)
		}
	}

	wg.Wait()

	require.Empty(t, failures)
	assert.Len(t, numbers, users*len(domain.AccountTypes))
}

func TestAccountUseCase_CloseAccountWithHistory(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	closing := b.open(t, "user-1", domain.AccountTypeSavings)
	other := b.open(t, "user-2", domain.AccountTypeDebit)

	b.deposit(t, closing.ID, "100")
	_, err := b.transfers.CreateTransfer(ctx, usecase.CreateTransferInput{FromAccountID: closing.ID, ToAccountID: other.ID, Amount: dec("40")})
	require.NoError(t, err)
	_, err = b.ledger.Withdraw(ctx, usecase.WithdrawInput{AccountID: closing.ID, Amount: dec("60")})
	require.NoError(t, err)

	result, err := b.accounts.CloseAccount(logger.WithUserID(ctx, "user-1"), usecase.CloseAccountInput{
		AccountID:     closing.ID,
		UserID:        "user-1",
		AccountNumber: closing.AccountNumber,
		Type:          domain.AccountTypeSavings,
		Reason:        "consolidating accounts",
	})
	require.NoError(t, err)
	require.NoError(t, result.Signal())

	assert.False(t, result.AlreadyClosed)
	assert.Equal(t, domain.AccountStatusClosed, result.Account.Status)
	assert.Equal(t, int64(3), result.DeletedTransactions)
	assert.Equal(t, int64(1), result.DeletedTransfers)
	assert.Equal(t, int64(1), result.DetachedTransactions)
	assert.Empty(t, result.DeletedCategories, "system categories are never removed")

	_, ok := b.store.Account(closing.ID)
	assert.False(t, ok)
	assert.Empty(t, b.store.Transactions(closing.ID))
	assert.Zero(t, b.store.TransferCount())
	assert.True(t, b.store.RetiredNumber(closing.AccountNumber))

	// The counterparty keeps its money and its leg, now unlinked.
	assert.True(t, b.balance(t, other.ID).Equal(dec("40")))
	legs := b.store.Transactions(other.ID)
	require.Len(t, legs, 1)
	assert.Nil(t, legs[0].TransferID)
	assert.True(t, legs[0].Amount.Equal(dec("40")))

	events := b.store.OutboxEvents()
	closed := events[len(events)-1]
	assert.Equal(t, domain.EventTypeAccountClosed, closed.EventType)
	assert.Equal(t, "consolidating accounts", closed.Payload["reason"])

	logs := b.store.AuditLogs()
	closeLog := logs[len(logs)-1]
	assert.Equal(t, domain.AuditActionAccountClose, closeLog.Action)
	assert.Equal(t, "user-1", closeLog.UserID)
	assert.Equal(t, "consolidating accounts", closeLog.AfterState["reason"])
	assert.NotNil(t, closeLog.BeforeState)

	b.requireConsistent(t)

	consistency, err := b.recon.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, consistency.Consistent)

	_, err = b.accounts.CloseAccount(ctx, usecase.CloseAccountInput{
		AccountID:     closing.ID,
		AccountNumber: closing.AccountNumber,
		Type:          domain.AccountTypeSavings,
		Reason:        "again",
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountUseCase_CloseAccountGuards(t *testing.T) {
	b := newBank(t)
	empty := b.open(t, "user-1", domain.AccountTypeSavings)
	funded := b.open(t, "user-1", domain.AccountTypeDebit)
	b.deposit(t, funded.ID, "0.01")

	valid := func(a *domain.Account) usecase.CloseAccountInput {
		return usecase.CloseAccountInput{AccountID: a.ID, AccountNumber: a.AccountNumber, Type: a.Type, Reason: "done"}
	}

	tests := []struct {
		name    string
		input   func() usecase.CloseAccountInput
		wantErr error
	}{
		{
			name:    "non-zero balance",
			input:   func() usecase.CloseAccountInput { return valid(funded) },
			wantErr: domain.ErrNonZeroBalance,
		},
		{
			name: "wrong number",
			input: func() usecase.CloseAccountInput {
				in := valid(empty)
				in.AccountNumber = "00000001"
				return in
			},
			wantErr: domain.ErrMismatchedAccountDetails,
		},
		{
			name: "wrong type",
			input: func() usecase.CloseAccountInput {
				in := valid(empty)
				in.Type = domain.AccountTypeCredit
				return in
			},
			wantErr: domain.ErrMismatchedAccountDetails,
		},
		{
			name: "blank reason",
			input: func() usecase.CloseAccountInput {
				in := valid(empty)
				in.Reason = "   "
				return in
			},
			wantErr: domain.ErrReasonRequired,
		},
		{
			name: "not the owner",
			input: func() usecase.CloseAccountInput {
				in := valid(empty)
				in.UserID = "user-2"
				return in
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "missing id",
			input:   func() usecase.CloseAccountInput { return usecase.CloseAccountInput{Reason: "done"} },
			wantErr: domain.ErrMissingRequiredIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := b.accounts.CloseAccount(context.Background(), tt.input())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}

	for _, a := range []*domain.Account{empty, funded} {
		stored, ok := b.store.Account(a.ID)
		require.True(t, ok)
		assert.Equal(t, domain.AccountStatusOpen, stored.Status)
		assert.False(t, b.store.RetiredNumber(a.AccountNumber))
	}
}

func TestAccountUseCase_CloseAlreadyClosedAccount(t *testing.T) {
	b := newBank(t)
	b.store.SeedAccount(domain.Account{
		ID: "closed", AccountNumber: "66666666", Type: domain.AccountTypeCredit,
		Status: domain.AccountStatusClosed, UserID: "user-2",
	})

	result, err := b.accounts.CloseAccount(context.Background(), usecase.CloseAccountInput{
		AccountID:     "closed",
		AccountNumber: "66666666",
		Type:          domain.AccountTypeCredit,
		Reason:        "cleanup",
	})
	require.NoError(t, err)

	assert.True(t, result.AlreadyClosed)
	require.ErrorIs(t, result.Signal(), domain.ErrAccountAlreadyClosed)
	assert.Equal(t, domain.KindConflict, domain.KindOf(result.Signal()))

	_, ok := b.store.Account("closed")
	assert.False(t, ok)
	assert.True(t, b.store.RetiredNumber("66666666"))
}

func TestAccountUseCase_CloseAccountRemovesOrphanedCategories(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	_, err := b.categories.CreateCategory(ctx, usecase.CreateCategoryInput{Name: "Gifts", Type: domain.CategoryTypeIncome})
	require.NoError(t, err)
	_, err = b.categories.CreateCategory(ctx, usecase.CreateCategoryInput{Name: "Refunds", Type: domain.CategoryTypeIncome})
	require.NoError(t, err)

	closing := b.open(t, "user-1", domain.AccountTypeSavings)
	other := b.open(t, "user-2", domain.AccountTypeSavings)

	for _, in := range []usecase.DepositInput{
		{AccountID: closing.ID, Amount: dec("5"), Category: "gifts"},
		{AccountID: closing.ID, Amount: dec("5"), Category: "Refunds"},
		{AccountID: other.ID, Amount: dec("5"), Category: "Refunds"},
	} {
		_, err := b.ledger.Deposit(ctx, in)
		require.NoError(t, err)
	}
	require.True(t, b.cache.Has("category:gifts"))

	_, err = b.ledger.Withdraw(ctx, usecase.WithdrawInput{AccountID: closing.ID, Amount: dec("10")})
	require.NoError(t, err)

	result, err := b.accounts.CloseAccount(ctx, usecase.CloseAccountInput{
		AccountID:     closing.ID,
		AccountNumber: closing.AccountNumber,
		Type:          closing.Type,
		Reason:        "done",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Gifts"}, result.DeletedCategories)

	_, ok := b.store.CategoryByName("Gifts")
	assert.False(t, ok)
	_, ok = b.store.CategoryByName("Refunds")
	assert.True(t, ok, "still referenced by another account")
	assert.False(t, b.cache.Has("category:gifts"))

	_, err = b.ledger.Deposit(ctx, usecase.DepositInput{AccountID: other.ID, Amount: dec("1"), Category: "Gifts"})
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestAccountUseCase_CloseAccountRollsBack(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	closing := b.open(t, "user-1", domain.AccountTypeSavings)
	other := b.open(t, "user-2", domain.AccountTypeSavings)
	b.deposit(t, closing.ID, "10")
	_, err := b.transfers.CreateTransfer(ctx, usecase.CreateTransferInput{FromAccountID: closing.ID, ToAccountID: other.ID, Amount: dec("10")})
	require.NoError(t, err)

	b.store.FailFunc = func(op string) error {
		if op == "accounts.Delete" {
			return errInjected
		}
		return nil
	}

	_, err = b.accounts.CloseAccount(ctx, usecase.CloseAccountInput{
		AccountID:     closing.ID,
		AccountNumber: closing.AccountNumber,
		Type:          closing.Type,
		Reason:        "done",
	})
	require.ErrorIs(t, err, errInjected)
	b.store.FailFunc = nil

	stored, ok := b.store.Account(closing.ID)
	require.True(t, ok)
	assert.Equal(t, domain.AccountStatusOpen, stored.Status)
	assert.Len(t, b.store.Transactions(closing.ID), 2)
	assert.Equal(t, 1, b.store.TransferCount())
	assert.False(t, b.store.RetiredNumber(closing.AccountNumber))

	legs := b.store.Transactions(other.ID)
	require.Len(t, legs, 1)
	assert.NotNil(t, legs[0].TransferID, "counterparty leg stays linked")
	b.requireConsistent(t)
}

func TestAccountUseCase_ChangeStatus(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()
	account := b.open(t, "user-1", domain.AccountTypeSavings)

	frozen, err := b.accounts.ChangeStatus(ctx, usecase.ChangeStatusInput{AccountID: account.ID, Status: domain.AccountStatusFrozen})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusFrozen, frozen.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.AccountStatusChanges.WithLabelValues(string(domain.AccountStatusFrozen))))

	_, err = b.ledger.Deposit(ctx, usecase.DepositInput{AccountID: account.ID, Amount: dec("1")})
	require.ErrorIs(t, err, domain.ErrAccountFrozen)

	events := len(b.store.OutboxEvents())
	_, err = b.accounts.ChangeStatus(ctx, usecase.ChangeStatusInput{AccountID: account.ID, Status: domain.AccountStatusFrozen})
	require.NoError(t, err)
	assert.Len(t, b.store.OutboxEvents(), events, "same status is a no-op")

	reopened, err := b.accounts.ChangeStatus(ctx, usecase.ChangeStatusInput{AccountID: account.ID, UserID: "user-1", Status: domain.AccountStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusOpen, reopened.Status)
	b.deposit(t, account.ID, "1")

	last := b.store.AuditLogs()[len(b.store.AuditLogs())-1]
	assert.Equal(t, domain.AuditActionAccountStatusChange, last.Action)
	assert.Equal(t, "system", last.UserID)

	b.store.SeedAccount(domain.Account{
		ID: "closed", AccountNumber: "66666666", Type: domain.AccountTypeCredit,
		Status: domain.AccountStatusClosed, UserID: "user-1",
	})

	tests := []struct {
		name    string
		input   usecase.ChangeStatusInput
		wantErr error
	}{
		{"to closed", usecase.ChangeStatusInput{AccountID: account.ID, Status: domain.AccountStatusClosed}, domain.ErrInvalidStatusTransition},
		{"unknown status", usecase.ChangeStatusInput{AccountID: account.ID, Status: "DORMANT"}, domain.ErrInvalidAccountStatus},
		{"closed account", usecase.ChangeStatusInput{AccountID: "closed", Status: domain.AccountStatusOpen}, domain.ErrAccountClosed},
		{"other owner", usecase.ChangeStatusInput{AccountID: account.ID, UserID: "user-2", Status: domain.AccountStatusFrozen}, domain.ErrAccountNotFound},
		{"missing account", usecase.ChangeStatusInput{AccountID: "missing", Status: domain.AccountStatusFrozen}, domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.accounts.ChangeStatus(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccountUseCase_Reads(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	savings := b.open(t, "user-1", domain.AccountTypeSavings)
	debit := b.open(t, "user-1", domain.AccountTypeDebit)
	b.open(t, "user-2", domain.AccountTypeDebit)

	b.deposit(t, savings.ID, "10.50")
	b.deposit(t, debit.ID, "4.50")

	_, err := b.accounts.ChangeStatus(ctx, usecase.ChangeStatusInput{AccountID: debit.ID, Status: domain.AccountStatusFrozen})
	require.NoError(t, err)

	total, err := b.accounts.GetTotalBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("15")), "frozen accounts count towards the total, got %s", total)

	open, err := b.accounts.CountOpenAccounts(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, open)

	all, err := b.accounts.ListUserAccounts(ctx, usecase.ListUserAccountsInput{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyDebit, err := b.accounts.ListUserAccounts(ctx, usecase.ListUserAccountsInput{UserID: "user-1", Type: domain.AccountTypeDebit})
	require.NoError(t, err)
	require.Len(t, onlyDebit, 1)
	assert.Equal(t, debit.ID, onlyDebit[0].ID)

	onlyFrozen, err := b.accounts.ListUserAccounts(ctx, usecase.ListUserAccountsInput{UserID: "user-1", Status: domain.AccountStatusFrozen})
	require.NoError(t, err)
	require.Len(t, onlyFrozen, 1)

	byNumber, err := b.accounts.GetAccountByNumber(ctx, savings.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, savings.ID, byNumber.ID)

	_, err = b.accounts.GetAccountByNumber(ctx, "1234")
	require.ErrorIs(t, err, domain.ErrInvalidAccountNumber)

	_, err = b.accounts.GetAccount(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = b.accounts.ListUserAccounts(ctx, usecase.ListUserAccountsInput{})
	require.ErrorIs(t, err, domain.ErrMissingRequiredIdentifier)
}

var _ usecase.AccountRepository = (*mocks.MockAccountRepository)(nil)
