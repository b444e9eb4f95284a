package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Transaction, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.Transaction, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetHistoricalBalance(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.Transaction, error)
}

// LedgerHandler handles deposits, withdrawals and account history.
type LedgerHandler struct {
	ledgerUC LedgerService
	retrier  usecase.Retrier
}

// NewLedgerHandler creates a new LedgerHandler. retrier may be nil.
func NewLedgerHandler(ledgerUC LedgerService, retrier usecase.Retrier) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, retrier: retrier}
}

// Deposit credits an account.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledgerUC.Deposit, "failed to deposit")
}

// Withdraw debits an account.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledgerUC.Withdraw, "failed to withdraw")
}

func (h *LedgerHandler) post(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, usecase.PostingInput) (*domain.Transaction, error),
	failure string,
) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.PostingRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id, callerID(r))
	if err != nil {
		respondError(w, "invalid amount", err)
		return
	}

	var tx *domain.Transaction
	err = retry(r.Context(), h.retrier, func() error {
		var opErr error
		tx, opErr = op(r.Context(), input)
		return opErr
	})
	if err != nil {
		respondError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Balance returns the current balance, or the balance at ?at=RFC3339.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at parameter", err.Error())
			return
		}

		balance, err := h.ledgerUC.GetHistoricalBalance(r.Context(), id, at)
		if err != nil {
			respondError(w, "failed to get balance", err)
			return
		}

		writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance, At: &at})
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), id)
	if err != nil {
		respondError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance})
}

// History lists an account's transactions, newest first.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	txs, err := h.ledgerUC.GetHistory(r.Context(), usecase.GetHistoryInput{
		AccountID: id,
		Limit:     parseIntQuery(r, "limit", domain.DefaultHistoryPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, "failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}
