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

const categoryColumns = `id, name, description, type, is_system, created_at`

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	db generated.DBTX
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return newCategoryRepository(pool)
}

func newCategoryRepository(db generated.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, description, type, is_system, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		string(category.Type),
		category.IsSystem,
		category.CreatedAt,
	)

	return translateError(err)
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	return scanCategory(r.db.QueryRow(ctx, query, id))
}

// GetByName retrieves a category by name, ignoring case.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE LOWER(name) = LOWER($1)`

	return scanCategory(r.db.QueryRow(ctx, query, name))
}

// List returns all categories, system categories first.
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY is_system DESC, name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// Delete removes a category; referencing transactions keep a NULL category.
func (r *CategoryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := pgxTx(tx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

// DeleteOrphaned removes non-system categories among ids no longer referenced
// by any transaction and returns the names it deleted.
func (r *CategoryRepository) DeleteOrphaned(ctx context.Context, tx usecase.Transaction, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		DELETE FROM categories c
		WHERE c.id = ANY($1::text[])
		  AND NOT c.is_system
		  AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.category_id = c.id)
		RETURNING c.name
	`

	rows, err := pgxTx(tx).Query(ctx, query, ids)
	if err != nil {
		return nil, translateError(err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateError(err)
	}

	return names, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category     domain.Category
		categoryType string
	)

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&categoryType,
		&category.IsSystem,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}

	category.Type = domain.CategoryType(categoryType)

	return &category, nil
}
