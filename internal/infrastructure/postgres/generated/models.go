package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID            string             `json:"id"`
	AccountNumber string             `json:"account_number"`
	Type          string             `json:"type"`
	Balance       pgtype.Numeric     `json:"balance"`
	Status        string             `json:"status"`
	UserID        string             `json:"user_id"`
	Version       int64              `json:"version"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type Transaction struct {
	Seq               int64              `json:"seq"`
	ID                string             `json:"id"`
	TransactionNumber string             `json:"transaction_number"`
	AccountID         string             `json:"account_id"`
	Type              string             `json:"type"`
	Status            string             `json:"status"`
	Amount            pgtype.Numeric     `json:"amount"`
	BalanceAfter      pgtype.Numeric     `json:"balance_after"`
	Description       string             `json:"description"`
	CategoryID        pgtype.Text        `json:"category_id"`
	TransferID        pgtype.Text        `json:"transfer_id"`
	CorrelationCode   string             `json:"correlation_code"`
	Side              string             `json:"side"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}

type Transfer struct {
	ID              string             `json:"id"`
	FromAccountID   string             `json:"from_account_id"`
	ToAccountID     string             `json:"to_account_id"`
	Amount          pgtype.Numeric     `json:"amount"`
	Description     string             `json:"description"`
	CorrelationCode string             `json:"correlation_code"`
	Status          string             `json:"status"`
	TransferredAt   pgtype.Timestamptz `json:"transferred_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}
