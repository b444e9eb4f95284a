package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus of a money movement between two accounts.
type TransferStatus string

const (
	TransferStatusCompleted TransferStatus = "COMPLETED"
)

// Transfer represents a money movement between two accounts.
type Transfer struct {
	CreatedAt       time.Time
	TransferredAt   time.Time
	ID              string
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	Description     string
	CorrelationCode string
	Status          TransferStatus
	Transactions    []*Transaction
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// Leg returns the transfer's transaction for the given side, if loaded.
func (t *Transfer) Leg(side TransferSide) *Transaction {
	for _, tx := range t.Transactions {
		if tx.Side == side {
			return tx
		}
	}
	return nil
}
