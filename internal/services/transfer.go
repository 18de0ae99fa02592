package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/backend/internal/audit"
	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
)

type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	AmountCents   money.Cents
	Date          time.Time
	Description   string
}

// TransferResult holds the matched pair of transactions a transfer creates.
// Their amounts are exact negatives of each other.
type TransferResult struct {
	Outgoing models.Transaction `json:"outgoing"`
	Incoming models.Transaction `json:"incoming"`
}

// TransferOrchestrator moves funds between two accounts of the same
// organization by creating a matched pair of transactions.
type TransferOrchestrator struct {
	store *LedgerStore
	audit *audit.Logger
}

func NewTransferOrchestrator(store *LedgerStore, auditLog *audit.Logger) *TransferOrchestrator {
	return &TransferOrchestrator{store: store, audit: auditLog}
}

// Transfer debits the source and credits the destination atomically. The
// source account row is locked before the balance read, so two concurrent
// transfers cannot both pass the sufficiency check on the same funds.
func (o *TransferOrchestrator) Transfer(ctx context.Context, orgID, callerID string, in TransferInput) (*TransferResult, error) {
	if in.FromAccountID == in.ToAccountID {
		return nil, ErrSameAccountTransfer
	}
	if in.AmountCents <= 0 {
		return nil, ErrZeroOrNegativeAmount
	}

	var result *TransferResult
	err := o.store.WithinTx(ctx, func(tx *sql.Tx, _ *PostCommit) error {
		if err := o.store.lockAccountTx(tx, orgID, in.FromAccountID); err != nil {
			return err
		}
		toAccount, err := o.store.getAccountTx(tx, orgID, in.ToAccountID)
		if err != nil {
			return err
		}

		balance, err := o.store.balanceOfTx(tx, orgID, in.FromAccountID)
		if err != nil {
			return err
		}
		if balance < in.AmountCents {
			return &InsufficientFundsError{
				AccountID: in.FromAccountID,
				Balance:   balance,
				Requested: in.AmountCents,
			}
		}

		outType, err := o.store.getItemTypeByNameTx(tx, orgID, models.TypeTransferOut)
		if err != nil {
			return fmt.Errorf("resolve %s type: %w", models.TypeTransferOut, err)
		}
		inType, err := o.store.getItemTypeByNameTx(tx, orgID, models.TypeTransferIn)
		if err != nil {
			return fmt.Errorf("resolve %s type: %w", models.TypeTransferIn, err)
		}

		outgoing := models.Transaction{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			AccountID:   in.FromAccountID,
			Date:        in.Date,
			Description: in.Description,
			AmountCents: -in.AmountCents,
		}
		incoming := models.Transaction{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			AccountID:   toAccount.ID,
			Date:        in.Date,
			Description: in.Description,
			AmountCents: in.AmountCents,
		}

		if err := o.store.insertTransactionTx(tx, &outgoing); err != nil {
			return err
		}
		if err := o.store.insertTransactionItemTx(tx, &models.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: outgoing.ID,
			TypeID:        outType.ID,
			AmountCents:   -in.AmountCents,
			Description:   in.Description,
		}); err != nil {
			return err
		}
		if err := o.store.insertTransactionTx(tx, &incoming); err != nil {
			return err
		}
		if err := o.store.insertTransactionItemTx(tx, &models.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: incoming.ID,
			TypeID:        inType.ID,
			AmountCents:   in.AmountCents,
			Description:   in.Description,
		}); err != nil {
			return err
		}

		result = &TransferResult{Outgoing: outgoing, Incoming: incoming}
		return nil
	})
	if err != nil {
		o.audit.LogError(orgID, callerID, in.FromAccountID, err)
		return nil, err
	}

	o.audit.LogTransfer(orgID, callerID, in.FromAccountID, in.ToAccountID, in.AmountCents, "SUCCESS")
	return result, nil
}
