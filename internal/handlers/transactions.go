package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
	"github.com/stewardbooks/backend/internal/services"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	store     *services.LedgerStore
	builder   *services.TransactionBuilder
	validator *ValidationHelper
}

func NewTransactionHandler(store *services.LedgerStore, builder *services.TransactionBuilder) *TransactionHandler {
	return &TransactionHandler{store: store, builder: builder, validator: NewValidationHelper()}
}

type transactionItemRequest struct {
	TypeID      string `json:"typeId" validate:"required"`
	MethodID    string `json:"methodId" validate:"required"`
	Amount      string `json:"amount" validate:"required"` // unsigned decimal text, e.g. "50.00"
	Description string `json:"description" validate:"max=200"`
}

type createTransactionRequest struct {
	AccountID   string                   `json:"accountId" validate:"required"`
	Date        string                   `json:"date" validate:"required"`
	Description string                   `json:"description" validate:"max=200"`
	ContactID   *string                  `json:"contactId"`
	CategoryID  *string                  `json:"categoryId"`
	Notify      bool                     `json:"notify"`
	Items       []transactionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateTransaction records income or expense line items as one transaction
// @Summary Create a transaction
// @Description Record a set of line items; signs are derived from each item type's direction
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body createTransactionRequest true "Transaction data"
// @Success 201 {object} models.TransactionWithItems
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
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

	items := make([]services.BuildItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		cents, err := money.Parse(it.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		items = append(items, services.BuildItemInput{
			TypeID:      it.TypeID,
			MethodID:    it.MethodID,
			AmountCents: cents,
			Description: it.Description,
		})
	}

	result, err := h.builder.Build(r.Context(), session.OrgID, session.UserID, services.BuildInput{
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
		ContactID:   req.ContactID,
		CategoryID:  req.CategoryID,
		Notify:      req.Notify,
		NotifyEmail: session.Email,
		Items:       items,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListTransactions lists an account's transactions
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param accountId query string true "Account ID"
// @Param limit query int false "Max rows (default 50, max 200)"
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		SendErrorResponse(w, "accountId is required", http.StatusBadRequest, nil)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	transactions, err := h.store.FindAccountTransactions(r.Context(), session.OrgID, accountID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetTransaction returns a transaction with its items
// @Summary Get transaction by ID
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.TransactionWithItems
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	txID := chi.URLParam(r, "txId")

	txn, err := h.store.GetTransaction(r.Context(), session.OrgID, txID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items, err := h.store.FindTransactionItems(r.Context(), txn.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TransactionWithItems{Transaction: *txn, Items: items})
}

type updateTransactionRequest struct {
	Date        string  `json:"date" validate:"required"`
	Description string  `json:"description" validate:"max=200"`
	ContactID   *string `json:"contactId"`
	CategoryID  *string `json:"categoryId"`
}

// UpdateTransaction edits non-monetary transaction fields
// @Summary Update transaction details
// @Description Amounts and items are append-only; only date, description, contact and category can change
// @Tags transactions
// @Accept json
// @Produce json
// @Param txId path string true "Transaction ID"
// @Param transaction body updateTransactionRequest true "Fields to update"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [patch]
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	txID := chi.URLParam(r, "txId")

	var req updateTransactionRequest
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

	if err := h.store.UpdateTransactionDetails(r.Context(), session.OrgID, txID, date, req.Description, req.ContactID, req.CategoryID); err != nil {
		writeServiceError(w, err)
		return
	}

	txn, err := h.store.GetTransaction(r.Context(), session.OrgID, txID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}
