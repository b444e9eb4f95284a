package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	AccountNumberLength    = 8
	MaxDescriptionLength   = 255
	MaxCategoryNameLength  = 64
	MaxReasonLength        = 500
	MaxAmountDecimalPlaces = 2
	MaxTransactionAmount   = "1000000000000" // 1 trillion
	DefaultHistoryPageSize = 20
	MaxHistoryPageSize     = 100
)

var accountNumberRegex = regexp.MustCompile(`^[0-9]{8}$`)

// ValidateAmount validates an amount arriving at the API boundary.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Round(MaxAmountDecimalPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrAmountPrecision, MaxAmountDecimalPlaces)
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateAccountNumber checks the 8-digit format.
func ValidateAccountNumber(number string) error {
	if !accountNumberRegex.MatchString(number) {
		return ErrInvalidAccountNumber
	}
	return nil
}

// ValidateDescription bounds free-text descriptions.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

// ValidateCategoryName validates category name
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCategoryName)
	}

	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCategoryName, MaxCategoryNameLength)
	}

	return nil
}

// ValidateReason requires a non-blank closure reason.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return fmt.Errorf("%w: reason exceeds %d characters", ErrReasonRequired, MaxReasonLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}

	if limit > MaxHistoryPageSize {
		limit = MaxHistoryPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
