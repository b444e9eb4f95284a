package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

func TestCategoryUseCase_SeedSystemCategoriesIsIdempotent(t *testing.T) {
	b := newBank(t)

	for _, sc := range domain.SystemCategories {
		c, ok := b.store.CategoryByName(sc.Name)
		require.True(t, ok, sc.Name)
		assert.True(t, c.IsSystem)
	}

	created, err := b.categories.SeedSystemCategories(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)

	all, err := b.categories.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(domain.SystemCategories))
}

func TestCategoryUseCase_CreateCategory(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	category, err := b.categories.CreateCategory(ctx, usecase.CreateCategoryInput{
		Name:        "  Groceries ",
		Description: "food",
		Type:        domain.CategoryTypeExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", category.Name)
	assert.False(t, category.IsSystem)

	tests := []struct {
		name    string
		input   usecase.CreateCategoryInput
		wantErr error
	}{
		{"duplicate ignoring case", usecase.CreateCategoryInput{Name: "groceries", Type: domain.CategoryTypeExpense}, domain.ErrDuplicateCategory},
		{"blank name", usecase.CreateCategoryInput{Name: " ", Type: domain.CategoryTypeExpense}, domain.ErrInvalidCategoryName},
		{"unknown type", usecase.CreateCategoryInput{Name: "Travel", Type: "LEISURE"}, domain.ErrInvalidCategoryType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.categories.CreateCategory(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCategoryUseCase_ResolveUsesCache(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	first, err := b.categories.GetCategory(ctx, "SALARY")
	require.NoError(t, err)
	assert.Equal(t, "Salary", first.Name)
	assert.True(t, b.cache.Has("category:salary"))

	b.categoryRepo.GetByNameFunc = func(ctx context.Context, name string) (*domain.Category, error) {
		return nil, errors.New("database unavailable")
	}

	cached, err := b.categories.Resolve(ctx, "salary")
	require.NoError(t, err)
	assert.Equal(t, first.ID, cached.ID)

	_, err = b.categories.Resolve(ctx, "Bills")
	require.Error(t, err, "uncached names still reach the repository")

	_, err = b.categories.Resolve(ctx, "   ")
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCategoryUseCase_ResolveFallsBackWhenCacheFails(t *testing.T) {
	b := newBank(t)
	b.cache.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	category, err := b.categories.Resolve(context.Background(), "Shopping")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", category.Name)
}

func TestCategoryUseCase_DeleteCategory(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	_, err := b.categories.CreateCategory(ctx, usecase.CreateCategoryInput{Name: "Gifts", Type: domain.CategoryTypeIncome})
	require.NoError(t, err)

	account := b.open(t, "user-1", domain.AccountTypeSavings)
	txn, err := b.ledger.Deposit(ctx, usecase.DepositInput{AccountID: account.ID, Amount: dec("5"), Category: "Gifts"})
	require.NoError(t, err)
	require.NotNil(t, txn.CategoryID)
	require.True(t, b.cache.Has("category:gifts"))

	require.NoError(t, b.categories.DeleteCategory(ctx, "gifts", false))

	_, ok := b.store.CategoryByName("Gifts")
	assert.False(t, ok)
	assert.False(t, b.cache.Has("category:gifts"))

	history := b.store.Transactions(account.ID)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].CategoryID, "transactions outlive their category")

	logs := b.store.AuditLogs()
	last := logs[len(logs)-1]
	assert.Equal(t, domain.AuditActionCategoryDelete, last.Action)
	assert.Equal(t, "category", last.ResourceType)

	require.ErrorIs(t, b.categories.DeleteCategory(ctx, "gifts", false), domain.ErrCategoryNotFound)
}

func TestCategoryUseCase_DeleteSystemCategoryNeedsAdmin(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()

	err := b.categories.DeleteCategory(ctx, "Shopping", false)
	require.ErrorIs(t, err, domain.ErrSystemCategory)
	assert.Equal(t, domain.KindPolicyViolation, domain.KindOf(err))

	_, ok := b.store.CategoryByName("Shopping")
	require.True(t, ok)

	require.NoError(t, b.categories.DeleteCategory(ctx, "Shopping", true))
	_, ok = b.store.CategoryByName("Shopping")
	assert.False(t, ok)
}
