package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance-affecting event.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus is carried for future pending flows; the ledger only writes COMPLETED.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// TransferSide tags which leg of a transfer a transaction represents.
type TransferSide string

const (
	TransferSideNone     TransferSide = ""
	TransferSideSender   TransferSide = "SENDER"
	TransferSideReceiver TransferSide = "RECEIVER"
)

// Transaction is an immutable record of one balance change on one account.
// Amount is signed: credits are positive, debits negative.
type Transaction struct {
	CreatedAt       time.Time
	ID              string
	Number          string
	AccountID       string
	Type            TransactionType
	Status          TransactionStatus
	Amount          decimal.Decimal
	BalanceAfter    decimal.Decimal
	Description     string
	CategoryID      *string
	TransferID      *string
	CorrelationCode string
	Side            TransferSide
}
