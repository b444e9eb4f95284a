package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransfer = `-- name: CreateTransfer :exec
INSERT INTO transfers (id, from_account_id, to_account_id, amount, description, correlation_code, status, transferred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateTransferParams struct {
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

func (q *Queries) CreateTransfer(ctx context.Context, arg CreateTransferParams) error {
	_, err := q.db.Exec(ctx, createTransfer,
		arg.ID,
		arg.FromAccountID,
		arg.ToAccountID,
		arg.Amount,
		arg.Description,
		arg.CorrelationCode,
		arg.Status,
		arg.TransferredAt,
		arg.CreatedAt,
	)
	return err
}

const deleteTransfersByIDs = `-- name: DeleteTransfersByIDs :execrows
DELETE FROM transfers WHERE id = ANY($1::text[])
`

func (q *Queries) DeleteTransfersByIDs(ctx context.Context, dollar_1 []string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTransfersByIDs, dollar_1)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getTransferByID = `-- name: GetTransferByID :one
SELECT id, from_account_id, to_account_id, amount, description, correlation_code, status, transferred_at, created_at FROM transfers WHERE id = $1
`

func (q *Queries) GetTransferByID(ctx context.Context, id string) (Transfer, error) {
	row := q.db.QueryRow(ctx, getTransferByID, id)
	var i Transfer
	err := row.Scan(
		&i.ID,
		&i.FromAccountID,
		&i.ToAccountID,
		&i.Amount,
		&i.Description,
		&i.CorrelationCode,
		&i.Status,
		&i.TransferredAt,
		&i.CreatedAt,
	)
	return i, err
}

const listTransferIDsByAccount = `-- name: ListTransferIDsByAccount :many
SELECT id FROM transfers WHERE from_account_id = $1 OR to_account_id = $1
`

func (q *Queries) ListTransferIDsByAccount(ctx context.Context, fromAccountID string) ([]string, error) {
	rows, err := q.db.Query(ctx, listTransferIDsByAccount, fromAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransfersByAccount = `-- name: ListTransfersByAccount :many
SELECT id, from_account_id, to_account_id, amount, description, correlation_code, status, transferred_at, created_at FROM transfers
WHERE from_account_id = $1 OR to_account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListTransfersByAccountParams struct {
	FromAccountID string `json:"from_account_id"`
	Limit         int32  `json:"limit"`
	Offset        int32  `json:"offset"`
}

func (q *Queries) ListTransfersByAccount(ctx context.Context, arg ListTransfersByAccountParams) ([]Transfer, error) {
	rows, err := q.db.Query(ctx, listTransfersByAccount, arg.FromAccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transfer
	for rows.Next() {
		var i Transfer
		if err := rows.Scan(
			&i.ID,
			&i.FromAccountID,
			&i.ToAccountID,
			&i.Amount,
			&i.Description,
			&i.CorrelationCode,
			&i.Status,
			&i.TransferredAt,
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
