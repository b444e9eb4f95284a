package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Type string `json:"type" validate:"required,oneof=SAVINGS DEBIT CREDIT"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput(userID string) usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		UserID: userID,
		Type:   domain.AccountType(r.Type),
	}
}

// PostingRequest represents a deposit or withdrawal.
type PostingRequest struct {
	Amount      json.Number `json:"amount" validate:"required,positive_amount"`
	Description string      `json:"description" validate:"max=255"`
	Category    string      `json:"category" validate:"max=64"`
}

// ToUseCaseInput converts to use case input.
func (r *PostingRequest) ToUseCaseInput(accountID, userID string) (usecase.PostingInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.PostingInput{}, err
	}

	return usecase.PostingInput{
		AccountID:   accountID,
		UserID:      userID,
		Amount:      amount,
		Description: r.Description,
		Category:    r.Category,
	}, nil
}

// CreateTransferRequest represents a request to create a transfer.
// Accounts are addressed either by id or by account number.
type CreateTransferRequest struct {
	FromAccountID     string      `json:"from_account_id" validate:"required_without=FromAccountNumber"`
	ToAccountID       string      `json:"to_account_id" validate:"required_without=ToAccountNumber"`
	FromAccountNumber string      `json:"from_account_number" validate:"omitempty,len=8,numeric"`
	ToAccountNumber   string      `json:"to_account_number" validate:"omitempty,len=8,numeric"`
	Amount            json.Number `json:"amount" validate:"required,positive_amount"`
	Description       string      `json:"description" validate:"max=255"`
}

// ByNumber reports whether the request addresses accounts by number.
func (r *CreateTransferRequest) ByNumber() bool {
	return r.FromAccountID == "" && r.ToAccountID == ""
}

// ToUseCaseInput converts to use case input for id-addressed transfers.
func (r *CreateTransferRequest) ToUseCaseInput(userID string) (usecase.CreateTransferInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateTransferInput{}, err
	}

	return usecase.CreateTransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		UserID:        userID,
		Amount:        amount,
		Description:   r.Description,
	}, nil
}

// ToByNumberInput converts to use case input for number-addressed transfers.
func (r *CreateTransferRequest) ToByNumberInput(userID string) (usecase.CreateTransferByNumberInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateTransferByNumberInput{}, err
	}

	return usecase.CreateTransferByNumberInput{
		FromAccountNumber: r.FromAccountNumber,
		ToAccountNumber:   r.ToAccountNumber,
		UserID:            userID,
		Amount:            amount,
		Description:       r.Description,
	}, nil
}

// CloseAccountRequest carries the details the holder must confirm.
type CloseAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,len=8,numeric"`
	Type          string `json:"type" validate:"required,oneof=SAVINGS DEBIT CREDIT"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// ToUseCaseInput converts to use case input.
func (r *CloseAccountRequest) ToUseCaseInput(accountID, userID string) usecase.CloseAccountInput {
	return usecase.CloseAccountInput{
		AccountID:     accountID,
		UserID:        userID,
		AccountNumber: r.AccountNumber,
		Type:          domain.AccountType(r.Type),
		Reason:        r.Reason,
	}
}

// ChangeStatusRequest freezes or unfreezes an account.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN FROZEN CLOSED"`
}

// ToUseCaseInput converts to use case input.
func (r *ChangeStatusRequest) ToUseCaseInput(accountID, userID string) usecase.ChangeStatusInput {
	return usecase.ChangeStatusInput{
		AccountID: accountID,
		UserID:    userID,
		Status:    domain.AccountStatus(r.Status),
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
	Type        string `json:"type" validate:"required,oneof=INCOME EXPENSE TRANSFER"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCategoryRequest) ToUseCaseInput() usecase.CreateCategoryInput {
	return usecase.CreateCategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Type:        domain.CategoryType(r.Type),
	}
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}
