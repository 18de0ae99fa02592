package handlers

import (
	"net/http"
	"time"

	"github.com/stewardbooks/backend/internal/money"
	"github.com/stewardbooks/backend/internal/services"
)

type TransferHandler struct {
	orchestrator *services.TransferOrchestrator
	validator    *ValidationHelper
}

func NewTransferHandler(orchestrator *services.TransferOrchestrator) *TransferHandler {
	return &TransferHandler{orchestrator: orchestrator, validator: NewValidationHelper()}
}

type createTransferRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToAccountID   string `json:"toAccountId" validate:"required"`
	Amount        string `json:"amount" validate:"required"` // decimal text, e.g. "30.00"
	Date          string `json:"date" validate:"required"`
	Description   string `json:"description" validate:"max=200"`
}

// CreateTransfer moves funds between two accounts
// @Summary Transfer between accounts
// @Description Creates a matched pair of transactions after a sufficiency check on the source account
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body createTransferRequest true "Transfer data"
// @Success 201 {object} services.TransferResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transfers [post]
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	var req createTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		SendErrorResponse(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}
	cents, err := money.Parse(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.orchestrator.Transfer(r.Context(), session.OrgID, session.UserID, services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		AmountCents:   cents,
		Date:          date,
		Description:   req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
