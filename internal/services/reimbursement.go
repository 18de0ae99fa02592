package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stewardbooks/backend/internal/audit"
	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
)

type SubmitInput struct {
	AmountCents    money.Cents
	MethodID       string
	Vendor         string
	Description    string
	ReceiptIDs     []string
	RequesterEmail string // notification address, captured from the session
}

type DecisionInput struct {
	RequestID       string
	Action          string
	SourceAccountID string // required for APPROVED
	Note            *string
}

// ReimbursementWorkflow governs a request from submission through
// approval/rejection/void/reopen, including the funds check and the ledger
// entries an approval creates.
type ReimbursementWorkflow struct {
	store    *LedgerStore
	notifier Notifier
	audit    *audit.Logger
}

func NewReimbursementWorkflow(store *LedgerStore, notifier Notifier, auditLog *audit.Logger) *ReimbursementWorkflow {
	return &ReimbursementWorkflow{store: store, notifier: notifier, audit: auditLog}
}

// canTransition is the whole state machine: decisions apply only to PENDING
// requests, REOPEN only to terminal ones.
func canTransition(from models.ReimbursementStatus, action string) bool {
	switch action {
	case models.ActionApprove, models.ActionReject, models.ActionVoid:
		return from == models.ReimbursementPending
	case models.ActionReopen:
		return from != models.ReimbursementPending
	default:
		return false
	}
}

// Submit creates a PENDING request and its receipt links. No ledger effect.
func (w *ReimbursementWorkflow) Submit(ctx context.Context, orgID, userID string, in SubmitInput) (*models.ReimbursementRequest, error) {
	if in.AmountCents <= 0 {
		return nil, ErrZeroOrNegativeAmount
	}
	if in.AmountCents > money.MaxItemCents {
		return nil, money.ErrAmountOutOfRange
	}

	req := &models.ReimbursementRequest{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		UserID:      userID,
		UserEmail:   in.RequesterEmail,
		AmountCents: in.AmountCents,
		MethodID:    in.MethodID,
		Vendor:      in.Vendor,
		Description: in.Description,
	}

	err := w.store.WithinTx(ctx, func(tx *sql.Tx, _ *PostCommit) error {
		if _, err := w.store.getMethodTx(tx, orgID, in.MethodID); err != nil {
			return fmt.Errorf("resolve method %s: %w", in.MethodID, err)
		}
		if err := w.store.insertReimbursementTx(tx, req); err != nil {
			return err
		}
		for _, receiptID := range in.ReceiptIDs {
			if err := w.store.attachReceiptTx(tx, req.ID, receiptID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Decide applies an approver's action to a request.
func (w *ReimbursementWorkflow) Decide(ctx context.Context, orgID, callerID string, in DecisionInput) (*models.ReimbursementRequest, error) {
	switch in.Action {
	case models.ActionApprove:
		return w.approve(ctx, orgID, callerID, in)
	case models.ActionReject, models.ActionVoid, models.ActionReopen:
		return w.updateStatus(ctx, orgID, callerID, in)
	default:
		return nil, &InvalidTransitionError{Action: in.Action}
	}
}

// approve runs the funds check and posts the ledger pair in one atomic unit:
// an Other_Incoming entry on the requester's account and an Other_Outgoing
// entry on the chosen source account. On InsufficientFunds the request stays
// PENDING and nothing is written.
func (w *ReimbursementWorkflow) approve(ctx context.Context, orgID, callerID string, in DecisionInput) (*models.ReimbursementRequest, error) {
	if in.SourceAccountID == "" {
		return nil, fmt.Errorf("approval requires a source account: %w", ErrNotFound)
	}

	var req *models.ReimbursementRequest
	err := w.store.WithinTx(ctx, func(tx *sql.Tx, after *PostCommit) error {
		var err error
		req, err = w.store.getReimbursementForUpdateTx(tx, orgID, in.RequestID)
		if err != nil {
			return err
		}
		if !canTransition(req.Status, models.ActionApprove) {
			return &InvalidTransitionError{From: req.Status, Action: models.ActionApprove}
		}

		requesterAccount, err := w.store.getAccountByUserTx(tx, orgID, req.UserID)
		if err != nil {
			return err
		}

		if err := w.store.lockAccountTx(tx, orgID, in.SourceAccountID); err != nil {
			return err
		}
		balance, err := w.store.balanceOfTx(tx, orgID, in.SourceAccountID)
		if err != nil {
			return err
		}
		if balance < req.AmountCents {
			return &InsufficientFundsError{
				AccountID: in.SourceAccountID,
				Balance:   balance,
				Requested: req.AmountCents,
			}
		}

		incomingType, err := w.store.getItemTypeByNameTx(tx, orgID, models.TypeOtherIncoming)
		if err != nil {
			return fmt.Errorf("resolve %s type: %w", models.TypeOtherIncoming, err)
		}
		outgoingType, err := w.store.getItemTypeByNameTx(tx, orgID, models.TypeOtherOutgoing)
		if err != nil {
			return fmt.Errorf("resolve %s type: %w", models.TypeOtherOutgoing, err)
		}

		description := fmt.Sprintf("Reimbursement: %s", req.Vendor)

		// The requester's account absorbs an incoming correcting entry while
		// the paying account is debited; the asymmetry is intentional.
		incoming := models.Transaction{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			AccountID:   requesterAccount.ID,
			Date:        req.CreatedAt,
			Description: description,
			AmountCents: req.AmountCents,
		}
		outgoing := models.Transaction{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			AccountID:   in.SourceAccountID,
			Date:        req.CreatedAt,
			Description: description,
			AmountCents: -req.AmountCents,
		}

		if err := w.store.insertTransactionTx(tx, &incoming); err != nil {
			return err
		}
		if err := w.store.insertTransactionItemTx(tx, &models.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: incoming.ID,
			TypeID:        incomingType.ID,
			AmountCents:   req.AmountCents,
			Description:   description,
		}); err != nil {
			return err
		}
		if err := w.store.insertTransactionTx(tx, &outgoing); err != nil {
			return err
		}
		methodID := req.MethodID
		if err := w.store.insertTransactionItemTx(tx, &models.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: outgoing.ID,
			TypeID:        outgoingType.ID,
			MethodID:      &methodID,
			AmountCents:   -req.AmountCents,
			Description:   description,
		}); err != nil {
			return err
		}

		sourceID := in.SourceAccountID
		if err := w.store.updateReimbursementStatusTx(tx, orgID, req.ID, models.ReimbursementApproved, in.Note, &sourceID); err != nil {
			return err
		}
		req.Status = models.ReimbursementApproved
		req.Note = in.Note
		req.AccountID = &sourceID

		n := w.statusNotification(NotifyReimbursementApproved, req)
		after.Add(func() { dispatch(ctx, w.notifier, n) })
		return nil
	})
	if err != nil {
		w.audit.LogError(orgID, callerID, in.RequestID, err)
		return nil, err
	}

	w.audit.LogDecision(orgID, callerID, req.ID, models.ActionApprove, req.AmountCents)
	return req, nil
}

// updateStatus handles REJECTED, VOID and REOPEN: pure status updates with an
// optional note, no ledger effect. REOPEN never reverses ledger entries a
// prior approval created.
func (w *ReimbursementWorkflow) updateStatus(ctx context.Context, orgID, callerID string, in DecisionInput) (*models.ReimbursementRequest, error) {
	target := map[string]models.ReimbursementStatus{
		models.ActionReject: models.ReimbursementRejected,
		models.ActionVoid:   models.ReimbursementVoid,
		models.ActionReopen: models.ReimbursementPending,
	}[in.Action]

	var req *models.ReimbursementRequest
	err := w.store.WithinTx(ctx, func(tx *sql.Tx, after *PostCommit) error {
		var err error
		req, err = w.store.getReimbursementForUpdateTx(tx, orgID, in.RequestID)
		if err != nil {
			return err
		}
		if !canTransition(req.Status, in.Action) {
			return &InvalidTransitionError{From: req.Status, Action: in.Action}
		}

		note := in.Note
		if note == nil {
			note = req.Note
		}
		if err := w.store.updateReimbursementStatusTx(tx, orgID, req.ID, target, note, req.AccountID); err != nil {
			return err
		}
		req.Status = target
		req.Note = note

		n := w.statusNotification(notificationKindFor(in.Action), req)
		after.Add(func() { dispatch(ctx, w.notifier, n) })
		return nil
	})
	if err != nil {
		w.audit.LogError(orgID, callerID, in.RequestID, err)
		return nil, err
	}

	w.audit.LogDecision(orgID, callerID, req.ID, in.Action, req.AmountCents)
	return req, nil
}

func notificationKindFor(action string) string {
	switch action {
	case models.ActionReject:
		return NotifyReimbursementRejected
	case models.ActionVoid:
		return NotifyReimbursementVoided
	default:
		return NotifyReimbursementReopened
	}
}

func (w *ReimbursementWorkflow) statusNotification(kind string, req *models.ReimbursementRequest) Notification {
	note := ""
	if req.Note != nil {
		note = *req.Note
	}
	return Notification{
		Kind:      kind,
		OrgID:     req.OrgID,
		Recipient: req.UserEmail,
		Subject:   fmt.Sprintf("Reimbursement request %s", req.Status),
		Body: fmt.Sprintf("Your reimbursement request for %s (%s) is now %s. %s",
			req.AmountCents, req.Vendor, req.Status, note),
		Data: map[string]any{
			"requestId":     req.ID,
			"userId":        req.UserID,
			"amountInCents": int64(req.AmountCents),
			"status":        string(req.Status),
		},
	}
}
