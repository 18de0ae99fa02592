package models

import (
	"time"

	"github.com/stewardbooks/backend/internal/money"
)

// ReimbursementStatus is the request's position in the approval state machine.
type ReimbursementStatus string

const (
	ReimbursementPending  ReimbursementStatus = "PENDING"
	ReimbursementApproved ReimbursementStatus = "APPROVED"
	ReimbursementRejected ReimbursementStatus = "REJECTED"
	ReimbursementVoid     ReimbursementStatus = "VOID"
)

// Decision actions accepted by the workflow endpoint.
const (
	ActionApprove = "APPROVED"
	ActionReject  = "REJECTED"
	ActionVoid    = "VOID"
	ActionReopen  = "REOPEN"
)

// ReimbursementRequest is a staff reimbursement claim. AccountID is the
// account money is paid from; it is nil until an approver selects it.
// AmountCents is the positive requested amount. UserEmail is captured at
// submission so status notifications reach the requester.
type ReimbursementRequest struct {
	ID          string              `json:"id" db:"id"`
	OrgID       string              `json:"orgId" db:"org_id"`
	UserID      string              `json:"userId" db:"user_id"`
	UserEmail   string              `json:"userEmail,omitempty" db:"user_email"`
	AccountID   *string             `json:"accountId,omitempty" db:"account_id"`
	AmountCents money.Cents         `json:"amountInCents" db:"amount_cents"`
	MethodID    string              `json:"methodId" db:"method_id"`
	Status      ReimbursementStatus `json:"status" db:"status"`
	Vendor      string              `json:"vendor" db:"vendor"`
	Description string              `json:"description" db:"description"`
	Note        *string             `json:"note,omitempty" db:"note"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" db:"updated_at"`
}

// Receipt is uploaded-file metadata supplied by the receipt collaborator.
// The core stores only the association, never file bytes or URLs.
type Receipt struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"orgId" db:"org_id"`
	Title string `json:"title" db:"title"`
}
