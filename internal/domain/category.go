package domain

import (
	"strings"
	"time"
)

// CategoryType classifies what a category is used for.
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "INCOME"
	CategoryTypeExpense  CategoryType = "EXPENSE"
	CategoryTypeTransfer CategoryType = "TRANSFER"
)

// ParseCategoryType validates a boundary string.
func ParseCategoryType(s string) (CategoryType, error) {
	switch t := CategoryType(s); t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return t, nil
	default:
		return "", ErrInvalidCategoryType
	}
}

// Category is a named tag attached to transactions.
type Category struct {
	CreatedAt   time.Time
	ID          string
	Name        string
	Description string
	Type        CategoryType
	IsSystem    bool
}

// NormalizeCategoryName is the key used for uniqueness and lookup.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SystemCategories are seeded on startup.
var SystemCategories = []Category{
	{Name: "Salary", Description: "Salary and wages", Type: CategoryTypeIncome, IsSystem: true},
	{Name: "Deposit", Description: "Cash and check deposits", Type: CategoryTypeIncome, IsSystem: true},
	{Name: "Withdrawal", Description: "Cash withdrawals", Type: CategoryTypeExpense, IsSystem: true},
	{Name: "Transfer", Description: "Transfers between accounts", Type: CategoryTypeTransfer, IsSystem: true},
	{Name: "Shopping", Description: "Purchases", Type: CategoryTypeExpense, IsSystem: true},
	{Name: "Bills", Description: "Utilities and recurring bills", Type: CategoryTypeExpense, IsSystem: true},
}
