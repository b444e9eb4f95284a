package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (
    id, transaction_number, account_id, type, status, amount, balance_after,
    description, category_id, transfer_id, correlation_code, side, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

type CreateTransactionParams struct {
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

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, createTransaction,
		arg.ID,
		arg.TransactionNumber,
		arg.AccountID,
		arg.Type,
		arg.Status,
		arg.Amount,
		arg.BalanceAfter,
		arg.Description,
		arg.CategoryID,
		arg.TransferID,
		arg.CorrelationCode,
		arg.Side,
		arg.CreatedAt,
	)
	return err
}

const deleteTransactionsByAccount = `-- name: DeleteTransactionsByAccount :execrows
DELETE FROM transactions WHERE account_id = $1
`

func (q *Queries) DeleteTransactionsByAccount(ctx context.Context, accountID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTransactionsByAccount, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const detachTransfersFromOtherAccounts = `-- name: DetachTransfersFromOtherAccounts :execrows
UPDATE transactions SET transfer_id = NULL
WHERE transfer_id = ANY($1::text[]) AND account_id <> $2
`

type DetachTransfersFromOtherAccountsParams struct {
	TransferIds []string `json:"transfer_ids"`
	AccountID   string   `json:"account_id"`
}

func (q *Queries) DetachTransfersFromOtherAccounts(ctx context.Context, arg DetachTransfersFromOtherAccountsParams) (int64, error) {
	result, err := q.db.Exec(ctx, detachTransfersFromOtherAccounts, arg.TransferIds, arg.AccountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getBalanceAtTime = `-- name: GetBalanceAtTime :one
SELECT balance_after FROM transactions
WHERE account_id = $1 AND created_at <= $2
ORDER BY seq DESC
LIMIT 1
`

type GetBalanceAtTimeParams struct {
	AccountID string             `json:"account_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) GetBalanceAtTime(ctx context.Context, arg GetBalanceAtTimeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getBalanceAtTime, arg.AccountID, arg.CreatedAt)
	var balance_after pgtype.Numeric
	err := row.Scan(&balance_after)
	return balance_after, err
}

const listCategoryIDsByAccount = `-- name: ListCategoryIDsByAccount :many
SELECT DISTINCT category_id::text FROM transactions
WHERE account_id = $1 AND category_id IS NOT NULL
`

func (q *Queries) ListCategoryIDsByAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := q.db.Query(ctx, listCategoryIDsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var category_id string
		if err := rows.Scan(&category_id); err != nil {
			return nil, err
		}
		items = append(items, category_id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactionsByAccount = `-- name: ListTransactionsByAccount :many
SELECT seq, id, transaction_number, account_id, type, status, amount, balance_after, description, category_id, transfer_id, correlation_code, side, created_at FROM transactions
WHERE account_id = $1
ORDER BY seq DESC
LIMIT $2 OFFSET $3
`

type ListTransactionsByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, arg ListTransactionsByAccountParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.TransactionNumber,
			&i.AccountID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.BalanceAfter,
			&i.Description,
			&i.CategoryID,
			&i.TransferID,
			&i.CorrelationCode,
			&i.Side,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactionsByTransfer = `-- name: ListTransactionsByTransfer :many
SELECT seq, id, transaction_number, account_id, type, status, amount, balance_after, description, category_id, transfer_id, correlation_code, side, created_at FROM transactions
WHERE transfer_id = $1
ORDER BY seq
`

func (q *Queries) ListTransactionsByTransfer(ctx context.Context, transferID pgtype.Text) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByTransfer, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.TransactionNumber,
			&i.AccountID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.BalanceAfter,
			&i.Description,
			&i.CategoryID,
			&i.TransferID,
			&i.CorrelationCode,
			&i.Side,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumTransactionsByAccount = `-- name: SumTransactionsByAccount :one
SELECT COALESCE(SUM(amount), 0)::numeric AS total FROM transactions WHERE account_id = $1
`

func (q *Queries) SumTransactionsByAccount(ctx context.Context, accountID string) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumTransactionsByAccount, accountID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}
