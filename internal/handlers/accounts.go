package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/services"
)

type AccountHandler struct {
	store     *services.LedgerStore
	validator *ValidationHelper
}

func NewAccountHandler(store *services.LedgerStore) *AccountHandler {
	return &AccountHandler{store: store, validator: NewValidationHelper()}
}

type createAccountRequest struct {
	Code        string  `json:"code" validate:"required,max=20"`
	Description string  `json:"description" validate:"required,max=200"`
	TypeID      string  `json:"typeId" validate:"required"`
	UserID      *string `json:"userId"`
}

// CreateAccount creates a fund account
// @Summary Create an account
// @Description Create a fund account within the caller's organization
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body createAccountRequest true "Account data"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account := &models.Account{
		OrgID:       session.OrgID,
		Code:        req.Code,
		Description: req.Description,
		TypeID:      req.TypeID,
		UserID:      req.UserID,
	}
	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// ListAccounts lists the organization's accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} object{accounts=[]models.Account,count=int}
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), session.OrgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// GetAccount returns an account with its derived balance
// @Summary Get account with balance
// @Tags accounts
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.AccountWithBalance
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountId")

	account, err := h.store.GetAccount(r.Context(), session.OrgID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	balance, err := h.store.BalanceOf(r.Context(), session.OrgID, accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AccountWithBalance{
		Account:      *account,
		BalanceCents: balance,
	})
}

// DeleteAccount removes an account that has no transactions
// @Summary Delete an account
// @Tags accounts
// @Param accountId path string true "Account ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /accounts/{accountId} [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountId")

	if err := h.store.DeleteAccount(r.Context(), session.OrgID, accountID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
