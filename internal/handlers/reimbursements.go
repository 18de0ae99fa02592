package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
	"github.com/stewardbooks/backend/internal/services"
)

type ReimbursementHandler struct {
	store     *services.LedgerStore
	workflow  *services.ReimbursementWorkflow
	validator *ValidationHelper
}

func NewReimbursementHandler(store *services.LedgerStore, workflow *services.ReimbursementWorkflow) *ReimbursementHandler {
	return &ReimbursementHandler{store: store, workflow: workflow, validator: NewValidationHelper()}
}

type submitReimbursementRequest struct {
	Amount      string   `json:"amount" validate:"required"` // decimal text, e.g. "40.00"
	MethodID    string   `json:"methodId" validate:"required"`
	Vendor      string   `json:"vendor" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	ReceiptIDs  []string `json:"receiptIds" validate:"omitempty,dive,required"`
}

// SubmitRequest files a reimbursement request
// @Summary Submit a reimbursement request
// @Description Creates a PENDING request with optional receipt links; no ledger effect
// @Tags reimbursements
// @Accept json
// @Produce json
// @Param request body submitReimbursementRequest true "Request data"
// @Success 201 {object} models.ReimbursementRequest
// @Failure 400 {object} ErrorResponse
// @Router /reimbursements [post]
func (h *ReimbursementHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	var req submitReimbursementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	cents, err := money.Parse(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	request, err := h.workflow.Submit(r.Context(), session.OrgID, session.UserID, services.SubmitInput{
		AmountCents:    cents,
		MethodID:       req.MethodID,
		Vendor:         req.Vendor,
		Description:    req.Description,
		ReceiptIDs:     req.ReceiptIDs,
		RequesterEmail: session.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// ListRequests lists reimbursement requests
// @Summary List reimbursement requests
// @Description Admins see the whole organization; other callers see their own requests
// @Tags reimbursements
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Max rows (default 50, max 200)"
// @Success 200 {object} object{requests=[]models.ReimbursementRequest,count=int}
// @Router /reimbursements [get]
func (h *ReimbursementHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	userID := session.UserID
	if session.Role == "ADMIN" {
		userID = ""
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	status := models.ReimbursementStatus(r.URL.Query().Get("status"))
	requests, err := h.store.ListReimbursementRequests(r.Context(), session.OrgID, userID, status, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetRequest returns one request with its receipts
// @Summary Get reimbursement request
// @Tags reimbursements
// @Produce json
// @Param requestId path string true "Request ID"
// @Success 200 {object} object{request=models.ReimbursementRequest,receipts=[]models.Receipt}
// @Failure 404 {object} ErrorResponse
// @Router /reimbursements/{requestId} [get]
func (h *ReimbursementHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	requestID := chi.URLParam(r, "requestId")

	request, err := h.store.GetReimbursementRequest(r.Context(), session.OrgID, requestID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	receipts, err := h.store.FindRequestReceipts(r.Context(), session.OrgID, requestID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request":  request,
		"receipts": receipts,
	})
}

type decisionRequest struct {
	Action    string  `json:"_action" validate:"required,oneof=APPROVED REJECTED VOID REOPEN"`
	AccountID string  `json:"accountId" validate:"required_if=Action APPROVED"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

// DecideRequest applies an approval decision
// @Summary Approve, reject, void or reopen a request
// @Description APPROVED requires a source account and runs the funds check; the ledger pair and status change commit atomically
// @Tags reimbursements
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param decision body decisionRequest true "Decision"
// @Success 200 {object} models.ReimbursementRequest
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /reimbursements/{requestId}/decision [post]
func (h *ReimbursementHandler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	requestID := chi.URLParam(r, "requestId")

	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := h.workflow.Decide(r.Context(), session.OrgID, session.UserID, services.DecisionInput{
		RequestID:       requestID,
		Action:          req.Action,
		SourceAccountID: req.AccountID,
		Note:            req.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}
