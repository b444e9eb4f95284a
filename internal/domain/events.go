package domain

import "time"

// Event types
const (
	EventTypeDepositPosted       = "deposit.posted"
	EventTypeWithdrawalPosted    = "withdrawal.posted"
	EventTypeTransferCreated     = "transfer.created"
	EventTypeAccountOpened       = "account.opened"
	EventTypeAccountClosed       = "account.closed"
	EventTypeAccountStatusChange = "account.status_changed"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionPostedEvent payload for deposits and withdrawals
type TransactionPostedEvent struct {
	TransactionID     string `json:"transaction_id"`
	TransactionNumber string `json:"transaction_number"`
	AccountID         string `json:"account_id"`
	Amount            string `json:"amount"`
	BalanceAfter      string `json:"balance_after"`
	Category          string `json:"category,omitempty"`
}

// TransferCreatedEvent payload
type TransferCreatedEvent struct {
	TransferID      string `json:"transfer_id"`
	FromAccountID   string `json:"from_account_id"`
	ToAccountID     string `json:"to_account_id"`
	Amount          string `json:"amount"`
	CorrelationCode string `json:"correlation_code"`
}

// AccountOpenedEvent payload
type AccountOpenedEvent struct {
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
	UserID        string `json:"user_id"`
	Type          string `json:"type"`
}

// AccountClosedEvent payload
type AccountClosedEvent struct {
	AccountID           string `json:"account_id"`
	AccountNumber       string `json:"account_number"`
	UserID              string `json:"user_id"`
	Reason              string `json:"reason"`
	DeletedTransfers    int    `json:"deleted_transfers"`
	DeletedTransactions int    `json:"deleted_transactions"`
}

// AccountStatusChangedEvent payload
type AccountStatusChangedEvent struct {
	AccountID string `json:"account_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}
