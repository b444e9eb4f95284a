package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const accountNumberExists = `-- name: AccountNumberExists :one
SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)
    OR EXISTS (SELECT 1 FROM retired_account_numbers WHERE account_number = $1)
`

func (q *Queries) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	row := q.db.QueryRow(ctx, accountNumberExists, accountNumber)
	var column_1 bool
	err := row.Scan(&column_1)
	return column_1, err
}

const countAccountsByUserAndStatus = `-- name: CountAccountsByUserAndStatus :one
SELECT COUNT(*) FROM accounts WHERE user_id = $1 AND status = $2
`

type CountAccountsByUserAndStatusParams struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (q *Queries) CountAccountsByUserAndStatus(ctx context.Context, arg CountAccountsByUserAndStatusParams) (int64, error) {
	row := q.db.QueryRow(ctx, countAccountsByUserAndStatus, arg.UserID, arg.Status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, account_number, type, balance, status, user_id, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, account_number, type, balance, status, user_id, version, created_at, updated_at
`

type CreateAccountParams struct {
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

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.AccountNumber,
		arg.Type,
		arg.Balance,
		arg.Status,
		arg.UserID,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Type,
		&i.Balance,
		&i.Status,
		&i.UserID,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = $1
`

func (q *Queries) DeleteAccount(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Type,
		&i.Balance,
		&i.Status,
		&i.UserID,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Type,
		&i.Balance,
		&i.Status,
		&i.UserID,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByNumber = `-- name: GetAccountByNumber :one
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts WHERE account_number = $1
`

func (q *Queries) GetAccountByNumber(ctx context.Context, accountNumber string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByNumber, accountNumber)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.Type,
		&i.Balance,
		&i.Status,
		&i.UserID,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountsByIDsForUpdate = `-- name: GetAccountsByIDsForUpdate :many
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts WHERE id = ANY($1::text[]) ORDER BY id FOR UPDATE
`

func (q *Queries) GetAccountsByIDsForUpdate(ctx context.Context, dollar_1 []string) ([]Account, error) {
	rows, err := q.db.Query(ctx, getAccountsByIDsForUpdate, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.Type,
			&i.Balance,
			&i.Status,
			&i.UserID,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listAccounts = `-- name: ListAccounts :many
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts
WHERE ($1::text = '' OR user_id = $1::text)
  AND ($2::text = '' OR type = $2::text)
  AND ($3::text = '' OR status = $3::text)
ORDER BY created_at, id
LIMIT $4 OFFSET $5
`

type ListAccountsParams struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts,
		arg.UserID,
		arg.Type,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.Type,
			&i.Balance,
			&i.Status,
			&i.UserID,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listAccountsByUser = `-- name: ListAccountsByUser :many
SELECT id, account_number, type, balance, status, user_id, version, created_at, updated_at FROM accounts WHERE user_id = $1 ORDER BY created_at, id
`

func (q *Queries) ListAccountsByUser(ctx context.Context, userID string) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.Type,
			&i.Balance,
			&i.Status,
			&i.UserID,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const retireAccountNumber = `-- name: RetireAccountNumber :exec
INSERT INTO retired_account_numbers (account_number, retired_at) VALUES ($1, $2)
ON CONFLICT (account_number) DO NOTHING
`

type RetireAccountNumberParams struct {
	AccountNumber string             `json:"account_number"`
	RetiredAt     pgtype.Timestamptz `json:"retired_at"`
}

func (q *Queries) RetireAccountNumber(ctx context.Context, arg RetireAccountNumberParams) error {
	_, err := q.db.Exec(ctx, retireAccountNumber, arg.AccountNumber, arg.RetiredAt)
	return err
}

const sumBalanceByUser = `-- name: SumBalanceByUser :one
SELECT COALESCE(SUM(balance), 0)::numeric AS total FROM accounts WHERE user_id = $1 AND status <> 'CLOSED'
`

func (q *Queries) SumBalanceByUser(ctx context.Context, userID string) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumBalanceByUser, userID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const updateAccountBalance = `-- name: UpdateAccountBalance :exec
UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3 WHERE id = $1
`

type UpdateAccountBalanceParams struct {
	ID        string             `json:"id"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) error {
	_, err := q.db.Exec(ctx, updateAccountBalance, arg.ID, arg.Balance, arg.UpdatedAt)
	return err
}

const updateAccountStatus = `-- name: UpdateAccountStatus :exec
UPDATE accounts SET status = $2, version = version + 1, updated_at = $3 WHERE id = $1
`

type UpdateAccountStatusParams struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountStatus(ctx context.Context, arg UpdateAccountStatusParams) error {
	_, err := q.db.Exec(ctx, updateAccountStatus, arg.ID, arg.Status, arg.UpdatedAt)
	return err
}
