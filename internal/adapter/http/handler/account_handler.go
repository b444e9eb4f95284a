package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	CloseAccount(ctx context.Context, input usecase.CloseAccountInput) (*usecase.ClosedAccount, error)
	ChangeStatus(ctx context.Context, input usecase.ChangeStatusInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	ListUserAccounts(ctx context.Context, input usecase.ListUserAccountsInput) ([]*domain.Account, error)
	GetTotalBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	CountOpenAccounts(ctx context.Context, userID string) (int, error)
}

// AccountHandler handles account lifecycle requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Open opens a new account for the user in the path.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userID")
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput(userID))
	if err != nil {
		respondError(w, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// ListByUser lists a user's accounts, optionally filtered by type and status.
func (h *AccountHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userID")
	if !ok {
		return
	}

	input := usecase.ListUserAccountsInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", domain.DefaultHistoryPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if v := r.URL.Query().Get("type"); v != "" {
		t, err := domain.ParseAccountType(v)
		if err != nil {
			respondError(w, "invalid type filter", err)
			return
		}
		input.Type = t
	}

	if v := r.URL.Query().Get("status"); v != "" {
		s, err := domain.ParseAccountStatus(v)
		if err != nil {
			respondError(w, "invalid status filter", err)
			return
		}
		input.Status = s
	}

	accounts, err := h.accountUC.ListUserAccounts(r.Context(), input)
	if err != nil {
		respondError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// TotalBalance returns the sum of the user's non-closed account balances.
func (h *AccountHandler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userID")
	if !ok {
		return
	}

	total, err := h.accountUC.GetTotalBalance(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get total balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserBalanceResponse{UserID: userID, TotalBalance: total})
}

// CountOpen returns how many OPEN accounts the user holds.
func (h *AccountHandler) CountOpen(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "userID")
	if !ok {
		return
	}

	count, err := h.accountUC.CountOpenAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to count accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountCountResponse{UserID: userID, OpenAccounts: count})
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetByNumber retrieves an account by its 8-digit number.
func (h *AccountHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number, ok := pathParam(w, r, "number")
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccountByNumber(r.Context(), number)
	if err != nil {
		respondError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Close closes a zero-balance account. An account that was already closed
// still answers 200 with already_closed set.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.CloseAccountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	closed, err := h.accountUC.CloseAccount(r.Context(), req.ToUseCaseInput(id, callerID(r)))
	if err != nil {
		respondError(w, "failed to close account", err)
		return
	}

	if errors.Is(closed.Signal(), domain.ErrAccountAlreadyClosed) {
		w.Header().Set("X-Account-Already-Closed", "true")
	}

	writeJSON(w, http.StatusOK, dto.ClosedAccountFromUseCase(closed))
}

// ChangeStatus freezes or unfreezes an account.
func (h *AccountHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	account, err := h.accountUC.ChangeStatus(r.Context(), req.ToUseCaseInput(id, callerID(r)))
	if err != nil {
		respondError(w, "failed to change status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
