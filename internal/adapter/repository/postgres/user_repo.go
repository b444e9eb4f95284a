package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// UserRepository reads and seeds the users table.
type UserRepository struct {
	db generated.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db generated.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Active,
		user.CreatedAt,
	)

	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, name, active, created_at FROM users WHERE id = $1`

	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate locks the user row for the rest of the transaction.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	query := `SELECT id, email, name, active, created_at FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(pgxTx(tx).QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, translateError(err)
	}

	return user, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}
