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

// BuildItemInput is one user-entered line item. AmountCents is unsigned as
// entered; the builder applies the sign from the item type's direction.
type BuildItemInput struct {
	TypeID      string
	MethodID    string
	AmountCents money.Cents
	Description string
}

type BuildInput struct {
	AccountID   string
	Date        time.Time
	Description string
	ContactID   *string
	CategoryID  *string
	Notify      bool
	NotifyEmail string // recipient when Notify is set; the caller's address
	Items       []BuildItemInput
}

// TransactionBuilder turns unsigned line items into a signed transaction.
// This is the single place where user-entered amounts become signed ledger
// entries; callers never pre-sign amounts.
type TransactionBuilder struct {
	store    *LedgerStore
	notifier Notifier
	audit    *audit.Logger
}

func NewTransactionBuilder(store *LedgerStore, notifier Notifier, auditLog *audit.Logger) *TransactionBuilder {
	return &TransactionBuilder{store: store, notifier: notifier, audit: auditLog}
}

// Build persists the transaction and its items as one atomic unit. The net
// amount is the sum of the signed items (IN positive, OUT negative). When
// Notify is set, the notification runs only after a successful commit.
func (b *TransactionBuilder) Build(ctx context.Context, orgID, callerID string, in BuildInput) (*models.TransactionWithItems, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range in.Items {
		if it.AmountCents <= 0 {
			return nil, ErrZeroOrNegativeAmount
		}
		if it.AmountCents > money.MaxItemCents {
			return nil, money.ErrAmountOutOfRange
		}
	}

	var result *models.TransactionWithItems
	err := b.store.WithinTx(ctx, func(tx *sql.Tx, after *PostCommit) error {
		account, err := b.store.getAccountTx(tx, orgID, in.AccountID)
		if err != nil {
			return err
		}

		txnID := uuid.NewString()
		items := make([]models.TransactionItem, 0, len(in.Items))
		var net money.Cents

		for _, it := range in.Items {
			itemType, err := b.store.getItemTypeTx(tx, orgID, it.TypeID)
			if err != nil {
				return fmt.Errorf("resolve item type %s: %w", it.TypeID, err)
			}
			if _, err := b.store.getMethodTx(tx, orgID, it.MethodID); err != nil {
				return fmt.Errorf("resolve method %s: %w", it.MethodID, err)
			}

			signed := it.AmountCents
			if itemType.Direction == models.DirectionOut {
				signed = -signed
			}
			net += signed

			methodID := it.MethodID
			items = append(items, models.TransactionItem{
				ID:            uuid.NewString(),
				TransactionID: txnID,
				TypeID:        itemType.ID,
				MethodID:      &methodID,
				AmountCents:   signed,
				Description:   it.Description,
			})
		}

		txn := models.Transaction{
			ID:          txnID,
			OrgID:       orgID,
			AccountID:   account.ID,
			Date:        in.Date,
			Description: in.Description,
			AmountCents: net,
			ContactID:   in.ContactID,
			CategoryID:  in.CategoryID,
		}
		if err := b.store.insertTransactionTx(tx, &txn); err != nil {
			return err
		}
		for i := range items {
			if err := b.store.insertTransactionItemTx(tx, &items[i]); err != nil {
				return err
			}
		}

		result = &models.TransactionWithItems{Transaction: txn, Items: items}

		if in.Notify {
			n := Notification{
				Kind:      NotifyIncomeRecorded,
				OrgID:     orgID,
				Recipient: in.NotifyEmail,
				Subject:   "New transaction recorded",
				Body: fmt.Sprintf("A transaction of %s was recorded on account %s.",
					net.Abs(), account.Code),
				Data: map[string]any{
					"transactionId": txnID,
					"accountId":     account.ID,
					"amountInCents": int64(net),
				},
			}
			after.Add(func() { dispatch(ctx, b.notifier, n) })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.audit.LogTransaction(orgID, callerID, result.ID, result.AccountID, result.AmountCents)
	return result, nil
}
