package services

import (
	"errors"
	"fmt"

	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
)

// Business-rule errors. These are rejected after a fresh state read, leave no
// partial write, and carry enough detail for a specific user-facing message.
var (
	ErrSameAccountTransfer  = errors.New("cannot transfer between the same account")
	ErrZeroOrNegativeAmount = errors.New("amount must be greater than zero")
	ErrNotFound             = errors.New("record not found")
	ErrAccountInUse         = errors.New("account has transactions and cannot be deleted")
	ErrNoRequesterAccount   = errors.New("requester has no associated account")
	ErrNoItems              = errors.New("transaction requires at least one item")
)

// InsufficientFundsError reports a failed sufficiency check together with the
// shortfall so the approver can be told exactly how much is missing.
type InsufficientFundsError struct {
	AccountID string
	Balance   money.Cents
	Requested money.Cents
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, requested %s (short %s)",
		e.AccountID, e.Balance, e.Requested, e.Shortfall())
}

func (e *InsufficientFundsError) Shortfall() money.Cents {
	return e.Requested - e.Balance
}

// InvalidTransitionError reports a reimbursement action applied to a request
// whose current status does not permit it.
type InvalidTransitionError struct {
	From   models.ReimbursementStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to a request in status %s", e.Action, e.From)
}
