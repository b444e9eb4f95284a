package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	UserID        string          `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Type:          string(a.Type),
		Status:        string(a.Status),
		UserID:        a.UserID,
		Balance:       a.Balance,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransactionResponse represents one ledger entry.
type TransactionResponse struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	AccountID       string          `json:"account_id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Description     string          `json:"description,omitempty"`
	CategoryID      *string         `json:"category_id,omitempty"`
	TransferID      *string         `json:"transfer_id,omitempty"`
	CorrelationCode string          `json:"correlation_code,omitempty"`
	Side            string          `json:"side,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		Number:          t.Number,
		AccountID:       t.AccountID,
		Type:            string(t.Type),
		Status:          string(t.Status),
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
		Description:     t.Description,
		CategoryID:      t.CategoryID,
		TransferID:      t.TransferID,
		CorrelationCode: t.CorrelationCode,
		Side:            string(t.Side),
		CreatedAt:       t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID              string                 `json:"id"`
	FromAccountID   string                 `json:"from_account_id"`
	ToAccountID     string                 `json:"to_account_id"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description,omitempty"`
	CorrelationCode string                 `json:"correlation_code"`
	Status          string                 `json:"status"`
	TransferredAt   time.Time              `json:"transferred_at"`
	CreatedAt       time.Time              `json:"created_at"`
	Transactions    []*TransactionResponse `json:"transactions,omitempty"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	resp := &TransferResponse{
		ID:              t.ID,
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		Amount:          t.Amount,
		Description:     t.Description,
		CorrelationCode: t.CorrelationCode,
		Status:          string(t.Status),
		TransferredAt:   t.TransferredAt,
		CreatedAt:       t.CreatedAt,
	}
	if len(t.Transactions) > 0 {
		resp.Transactions = TransactionsFromDomain(t.Transactions)
	}
	return resp
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryFromDomain converts a domain category to response.
func CategoryFromDomain(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Type:        string(c.Type),
		IsSystem:    c.IsSystem,
		CreatedAt:   c.CreatedAt,
	}
}

// CategoriesFromDomain converts domain categories to responses.
func CategoriesFromDomain(categories []*domain.Category) []*CategoryResponse {
	result := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		result[i] = CategoryFromDomain(c)
	}
	return result
}

// BalanceResponse represents an account balance.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	At        *time.Time      `json:"at,omitempty"`
}

// UserBalanceResponse is the sum over a user's non-closed accounts.
type UserBalanceResponse struct {
	UserID       string          `json:"user_id"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// AccountCountResponse reports how many OPEN accounts a user holds.
type AccountCountResponse struct {
	UserID       string `json:"user_id"`
	OpenAccounts int    `json:"open_accounts"`
}

// ClosedAccountResponse reports what closing an account removed.
type ClosedAccountResponse struct {
	Account              *AccountResponse `json:"account"`
	AlreadyClosed        bool             `json:"already_closed"`
	DeletedTransfers     int64            `json:"deleted_transfers"`
	DeletedTransactions  int64            `json:"deleted_transactions"`
	DetachedTransactions int64            `json:"detached_transactions"`
	DeletedCategories    []string         `json:"deleted_categories,omitempty"`
	ClosedAt             time.Time        `json:"closed_at"`
}

// ClosedAccountFromUseCase converts a closure result to response.
func ClosedAccountFromUseCase(c *usecase.ClosedAccount) *ClosedAccountResponse {
	resp := &ClosedAccountResponse{
		AlreadyClosed:        c.AlreadyClosed,
		DeletedTransfers:     c.DeletedTransfers,
		DeletedTransactions:  c.DeletedTransactions,
		DetachedTransactions: c.DetachedTransactions,
		DeletedCategories:    c.DeletedCategories,
		ClosedAt:             c.ClosedAt,
	}
	if c.Account != nil {
		resp.Account = AccountFromDomain(c.Account)
	}
	return resp
}

// ReconciliationResponse compares an account's stored and derived balances.
type ReconciliationResponse struct {
	AccountID         string          `json:"account_id"`
	AccountNumber     string          `json:"account_number"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	LastChecked       time.Time       `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		AccountNumber:     r.AccountNumber,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ConsistencyResponse compares ledger-wide totals.
type ConsistencyResponse struct {
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalTransactions decimal.Decimal `json:"total_transactions"`
	Difference        decimal.Decimal `json:"difference"`
	Consistent        bool            `json:"consistent"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ConsistencyFromUseCase converts a consistency result to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyResult) *ConsistencyResponse {
	return &ConsistencyResponse{
		TotalBalance:      r.TotalBalance,
		TotalTransactions: r.TotalTransaction,
		Difference:        r.Difference,
		Consistent:        r.Consistent,
		CheckedAt:         r.CheckedAt,
	}
}

// ReportResponse summarises a full reconciliation run.
type ReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	LedgerConsistent   bool                      `json:"ledger_consistent"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReportFromUseCase converts a reconciliation report to response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
}
