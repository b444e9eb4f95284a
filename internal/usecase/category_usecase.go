package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
)

const categoryCachePrefix = "category:"

// CategoryUseCase is the category registry. Name lookups are cached.
type CategoryUseCase struct {
	txManager    TransactionManager
	categoryRepo CategoryRepository
	auditRepo    AuditRepository
	cache        Cache
	idGen        IDGenerator
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewCategoryUseCase creates a new CategoryUseCase. cache may be nil.
func NewCategoryUseCase(
	txManager TransactionManager,
	categoryRepo CategoryRepository,
	auditRepo AuditRepository,
	cache Cache,
	idGen IDGenerator,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *CategoryUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCategoryCacheTTL
	}

	return &CategoryUseCase{
		txManager:    txManager,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		cache:        cache,
		idGen:        idGen,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// CreateCategoryInput represents input for creating a category.
type CreateCategoryInput struct {
	Name        string
	Description string
	Type        domain.CategoryType
	IsSystem    bool
}

// CreateCategory registers a new category. Names are unique ignoring case.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if err := domain.ValidateCategoryName(input.Name); err != nil {
		return nil, err
	}

	if _, err := domain.ParseCategoryType(string(input.Type)); err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:          uc.idGen.Generate(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Type:        input.Type,
		IsSystem:    input.IsSystem,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// GetCategory looks a category up by name, ignoring case.
func (uc *CategoryUseCase) GetCategory(ctx context.Context, name string) (*domain.Category, error) {
	return uc.Resolve(ctx, name)
}

// Resolve implements CategoryResolver.
func (uc *CategoryUseCase) Resolve(ctx context.Context, name string) (*domain.Category, error) {
	key := categoryCacheKey(name)
	if key == categoryCachePrefix {
		return nil, domain.ErrCategoryNotFound
	}

	if category, ok := uc.cached(ctx, key); ok {
		return category, nil
	}

	category, err := uc.categoryRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	uc.store(ctx, key, category)

	return category, nil
}

// Invalidate implements CategoryResolver.
func (uc *CategoryUseCase) Invalidate(ctx context.Context, names ...string) {
	if uc.cache == nil {
		return
	}

	for _, name := range names {
		if err := uc.cache.Delete(ctx, categoryCacheKey(name)); err != nil {
			logger.FromContext(ctx, uc.logger).Warn().Err(err).Str("category", name).Msg("category cache invalidation failed")
		}
	}
}

// ListCategories returns every category.
func (uc *CategoryUseCase) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return uc.categoryRepo.List(ctx)
}

// DeleteCategory removes a category. System categories require admin.
// Transactions that referenced it keep a NULL category.
func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, name string, admin bool) error {
	category, err := uc.categoryRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}

	if category.IsSystem && !admin {
		return domain.ErrSystemCategory
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.categoryRepo.Delete(txCtx, tx, category.ID); err != nil {
		return err
	}

	if uc.auditRepo != nil {
		userID, ok := logger.UserID(ctx)
		if !ok {
			userID = systemActor
		}
		requestID, _ := logger.RequestID(ctx)

		if err := uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
			UserID:       userID,
			Action:       domain.AuditActionCategoryDelete,
			ResourceType: "category",
			ResourceID:   category.ID,
			RequestID:    requestID,
			BeforeState:  domain.MarshalState(category),
			Status:       domain.AuditStatusSuccess,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	uc.Invalidate(ctx, category.Name)

	logger.FromContext(ctx, uc.logger).Info().
		Str("category", category.Name).
		Bool("system", category.IsSystem).
		Msg("category deleted")

	return nil
}

// SeedSystemCategories creates the built-in categories that are missing.
// It returns how many were created.
func (uc *CategoryUseCase) SeedSystemCategories(ctx context.Context) (int, error) {
	created := 0

	for _, sc := range domain.SystemCategories {
		_, err := uc.categoryRepo.GetByName(ctx, sc.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrCategoryNotFound) {
			return created, err
		}

		_, err = uc.CreateCategory(ctx, CreateCategoryInput{
			Name:        sc.Name,
			Description: sc.Description,
			Type:        sc.Type,
			IsSystem:    true,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicateCategory):
			// seeded concurrently by another instance
		default:
			return created, err
		}
	}

	if created > 0 {
		uc.logger.Info().Int("created", created).Msg("system categories seeded")
	}

	return created, nil
}

func (uc *CategoryUseCase) cached(ctx context.Context, key string) (*domain.Category, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromContext(ctx, uc.logger).Warn().Err(err).Str("key", key).Msg("category cache read failed")
		}
		return nil, false
	}

	var category domain.Category
	if err := json.Unmarshal(data, &category); err != nil {
		return nil, false
	}

	return &category, true
}

func (uc *CategoryUseCase) store(ctx context.Context, key string, category *domain.Category) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(category)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
		logger.FromContext(ctx, uc.logger).Warn().Err(err).Str("key", key).Msg("category cache write failed")
	}
}

func categoryCacheKey(name string) string {
	return categoryCachePrefix + domain.NormalizeCategoryName(name)
}
