package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

var accountRowColumns = []string{
	"id", "account_number", "type", "balance", "status", "user_id", "version", "created_at", "updated_at",
}

func TestAccountRepositoryGetByIDsForUpdateLocksInIDOrder(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = ANY($1::text[]) ORDER BY id FOR UPDATE`)).
		WithArgs([]string{"acc-a", "acc-b"}).
		WillReturnRows(pgxmock.NewRows(accountRowColumns).
			AddRow("acc-a", "10000001", "SAVINGS", "1000.00", "OPEN", "user-1", int64(3), now, now).
			AddRow("acc-b", "10000002", "DEBIT", "500.00", "FROZEN", "user-2", int64(1), now, now))

	accounts, err := (&AccountRepository{}).GetByIDsForUpdate(context.Background(), tx, []string{"acc-a", "acc-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 2 || accounts[0].ID != "acc-a" || accounts[1].ID != "acc-b" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
	if !accounts[0].Balance.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected balance 1000, got %s", accounts[0].Balance)
	}
	if accounts[1].Status != domain.AccountStatusFrozen || accounts[1].Type != domain.AccountTypeDebit {
		t.Fatalf("unexpected second account: %+v", accounts[1])
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryGetByIDsForUpdateLockTimeout(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectQuery(`FOR UPDATE`).
		WithArgs([]string{"acc-a", "acc-b"}).
		WillReturnError(&pgconn.PgError{Code: pgErrLockNotAvailable, Message: "canceling statement due to lock timeout"})

	_, err := (&AccountRepository{}).GetByIDsForUpdate(context.Background(), tx, []string{"acc-a", "acc-b"})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := newAccountRepository(mockPool).GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryNumberExistsChecksRetired(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectQuery(`retired_account_numbers`).
		WithArgs("12345678").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := (&AccountRepository{}).NumberExists(context.Background(), tx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected retired number to be reported as taken")
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryRetireNumber(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO retired_account_numbers (account_number, retired_at) VALUES ($1, $2)`)).
		WithArgs("12345678", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := (&AccountRepository{}).RetireNumber(context.Background(), tx, "12345678", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryUpdateBalanceCheckViolation(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	balance := decimal.RequireFromString("-5.00")
	mockPool.ExpectExec(`UPDATE accounts`).
		WithArgs("acc-1", decimalToNumeric(balance), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: constraintBalanceNonNeg})

	err := (&AccountRepository{}).UpdateBalance(context.Background(), tx, "acc-1", balance, time.Now())
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryDeleteMissing(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := (&AccountRepository{}).Delete(context.Background(), tx, "acc-1")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}
