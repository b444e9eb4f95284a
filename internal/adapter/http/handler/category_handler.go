package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AdminHeader marks a trusted administrative caller.
const AdminHeader = "X-Admin"

// CategoryService defines the behavior needed by CategoryHandler.
type CategoryService interface {
	CreateCategory(ctx context.Context, input usecase.CreateCategoryInput) (*domain.Category, error)
	GetCategory(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, name string, admin bool) error
}

// CategoryHandler manages transaction categories.
type CategoryHandler struct {
	categoryUC CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryUC CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryUC: categoryUC}
}

// Create registers a user category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	category, err := h.categoryUC.CreateCategory(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, "failed to create category", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CategoryFromDomain(category))
}

// List returns every category.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryUC.ListCategories(r.Context())
	if err != nil {
		respondError(w, "failed to list categories", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoriesFromDomain(categories))
}

// Get looks a category up by name, ignoring case.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := pathParam(w, r, "name")
	if !ok {
		return
	}

	category, err := h.categoryUC.GetCategory(r.Context(), name)
	if err != nil {
		respondError(w, "failed to get category", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryFromDomain(category))
}

// Delete removes a category. System categories need the admin header.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, ok := pathParam(w, r, "name")
	if !ok {
		return
	}

	admin := r.Header.Get(AdminHeader) == "true"
	if err := h.categoryUC.DeleteCategory(r.Context(), name, admin); err != nil {
		respondError(w, "failed to delete category", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
