package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyResult, error)
	GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler exposes balance and ledger checks.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// ReconcileAccount compares one account's balance with its history.
func (h *ReconciliationHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.reconUC.ReconcileAccount(r.Context(), id)
	if err != nil {
		respondError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// CheckConsistency answers 200 when the ledger balances and 409 when it does not.
func (h *ReconciliationHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconUC.CheckConsistency(r.Context())
	if err != nil {
		respondError(w, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !result.Consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyFromUseCase(result))
}

// Report reconciles every account.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReport(r.Context())
	if err != nil {
		respondError(w, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
