package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account products a user can hold.
type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeDebit   AccountType = "DEBIT"
	AccountTypeCredit  AccountType = "CREDIT"
)

// AccountTypes lists every valid account type.
var AccountTypes = []AccountType{AccountTypeSavings, AccountTypeDebit, AccountTypeCredit}

// ParseAccountType validates a boundary string.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountTypeSavings, AccountTypeDebit, AccountTypeCredit:
		return t, nil
	default:
		return "", ErrInvalidAccountType
	}
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusOpen   AccountStatus = "OPEN"
	AccountStatusClosed AccountStatus = "CLOSED"
	AccountStatusFrozen AccountStatus = "FROZEN"
)

// ParseAccountStatus validates a boundary string.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(s); st {
	case AccountStatusOpen, AccountStatusClosed, AccountStatusFrozen:
		return st, nil
	default:
		return "", ErrInvalidAccountStatus
	}
}

// Account represents a user's monetary container.
type Account struct {
	ID            string
	AccountNumber string
	Type          AccountType
	Balance       decimal.Decimal
	Status        AccountStatus
	UserID        string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EnsureActive rejects balance mutations on closed and frozen accounts.
func (a *Account) EnsureActive() error {
	switch a.Status {
	case AccountStatusOpen:
		return nil
	case AccountStatusFrozen:
		return ErrAccountFrozen
	default:
		return ErrAccountClosed
	}
}

// OwnedBy reports whether userID owns the account. An empty userID is not checked.
func (a *Account) OwnedBy(userID string) bool {
	return userID == "" || a.UserID == userID
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// ConfirmDetails checks that a caller-supplied number and type both match.
func (a *Account) ConfirmDetails(number string, accountType AccountType) error {
	if a.AccountNumber != number || a.Type != accountType {
		return ErrMismatchedAccountDetails
	}
	return nil
}

// CanTransitionTo reports whether ChangeStatus may move the account to target.
// CLOSED is reached only through account closure.
func (a *Account) CanTransitionTo(target AccountStatus) error {
	if a.Status == AccountStatusClosed {
		return ErrAccountClosed
	}
	switch target {
	case AccountStatusOpen, AccountStatusFrozen:
		return nil
	default:
		return ErrInvalidStatusTransition
	}
}
