package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/stewardbooks/backend/internal/logger"
	"github.com/stewardbooks/backend/internal/middleware"
	"github.com/stewardbooks/backend/internal/money"
	"github.com/stewardbooks/backend/internal/services"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{validator: validator.New()}
}

func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response with optional field details.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// decodeJSON enforces the strict request shape used everywhere: bounded body,
// no unknown fields, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must only contain a single JSON object")
	}
	return nil
}

func sessionOrAbort(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
	}
	return session, ok
}

// writeServiceError maps core errors onto the HTTP taxonomy: business-rule
// failures get a specific code the UI can branch on, store failures stay
// opaque.
func writeServiceError(w http.ResponseWriter, err error) {
	var insufficient *services.InsufficientFundsError
	var transition *services.InvalidTransitionError

	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":            "insufficient_funds",
			"message":          insufficient.Error(),
			"shortfallInCents": int64(insufficient.Shortfall()),
		})
	case errors.As(err, &transition):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_transition",
			Message: transition.Error(),
		})
	case errors.Is(err, services.ErrSameAccountTransfer):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "same_account_transfer", Message: err.Error()})
	case errors.Is(err, services.ErrZeroOrNegativeAmount),
		errors.Is(err, services.ErrNoItems),
		errors.Is(err, services.ErrNoRequesterAccount),
		errors.Is(err, money.ErrAmountOutOfRange),
		errors.Is(err, money.ErrInvalidAmount):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid_amount", Message: err.Error()})
	case errors.Is(err, services.ErrAccountInUse):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "account_in_use", Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found"})
	default:
		logger.Log.Errorf("operation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "operation_failed"})
	}
}
