package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error)
	CreateTransferByNumber(ctx context.Context, input usecase.CreateTransferByNumberInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, id string) (*domain.Transfer, error)
	ListTransfersByAccount(ctx context.Context, input usecase.ListTransfersByAccountInput) ([]*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	retrier    usecase.Retrier
}

// NewTransferHandler creates a new TransferHandler. retrier may be nil.
func NewTransferHandler(transferUC TransferService, retrier usecase.Retrier) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, retrier: retrier}
}

// Create moves money between two accounts addressed by id or by number.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	var op func() (*domain.Transfer, error)
	if req.ByNumber() {
		input, err := req.ToByNumberInput(callerID(r))
		if err != nil {
			respondError(w, "invalid amount", err)
			return
		}
		op = func() (*domain.Transfer, error) {
			return h.transferUC.CreateTransferByNumber(r.Context(), input)
		}
	} else {
		input, err := req.ToUseCaseInput(callerID(r))
		if err != nil {
			respondError(w, "invalid amount", err)
			return
		}
		op = func() (*domain.Transfer, error) {
			return h.transferUC.CreateTransfer(r.Context(), input)
		}
	}

	var transfer *domain.Transfer
	err := retry(r.Context(), h.retrier, func() error {
		var opErr error
		transfer, opErr = op()
		return opErr
	})
	if err != nil {
		respondError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer with its legs.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		respondError(w, "failed to get transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// ListByAccount lists transfers where the account is sender or receiver.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	transfers, err := h.transferUC.ListTransfersByAccount(r.Context(), usecase.ListTransfersByAccountInput{
		AccountID: id,
		Limit:     parseIntQuery(r, "limit", domain.DefaultHistoryPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, "failed to list transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}
