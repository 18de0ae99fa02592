package models

import (
	"time"

	"github.com/stewardbooks/backend/internal/money"
)

// Transaction is a net signed ledger entry owned by exactly one account.
// AmountCents always equals the sum of its items' signed amounts.
type Transaction struct {
	ID          string      `json:"id" db:"id"`
	OrgID       string      `json:"orgId" db:"org_id"`
	AccountID   string      `json:"accountId" db:"account_id"`
	Date        time.Time   `json:"date" db:"date"`
	Description string      `json:"description" db:"description"`
	AmountCents money.Cents `json:"amountInCents" db:"amount_cents"`
	ContactID   *string     `json:"contactId,omitempty" db:"contact_id"`
	CategoryID  *string     `json:"categoryId,omitempty" db:"category_id"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}

// TransactionItem is one signed line of a transaction. Its sign is applied by
// the transaction builder from the item type's direction, never by callers.
type TransactionItem struct {
	ID            string      `json:"id" db:"id"`
	TransactionID string      `json:"transactionId" db:"transaction_id"`
	TypeID        string      `json:"typeId" db:"type_id"`
	MethodID      *string     `json:"methodId,omitempty" db:"method_id"` // nil for system-generated legs
	AmountCents   money.Cents `json:"amountInCents" db:"amount_cents"`
	Description   string      `json:"description" db:"description"`
}

// TransactionWithItems is the read shape for transaction detail endpoints.
type TransactionWithItems struct {
	Transaction
	Items []TransactionItem `json:"items"`
}
