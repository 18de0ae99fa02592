package models

import (
	"time"

	"github.com/stewardbooks/backend/internal/money"
)

// Account is a fund bucket scoped to one organization. Its balance is never
// stored; it is always derived from the transaction history.
type Account struct {
	ID          string    `json:"id" db:"id"`
	OrgID       string    `json:"orgId" db:"org_id"`
	Code        string    `json:"code" db:"code"` // unique per org
	Description string    `json:"description" db:"description"`
	TypeID      string    `json:"typeId" db:"type_id"` // Operating, Benevolence, Ministry
	UserID      *string   `json:"userId,omitempty" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// AccountType is a catalog row (Operating, Benevolence, Ministry).
type AccountType struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// AccountWithBalance pairs an account with its derived balance for read APIs.
type AccountWithBalance struct {
	Account
	BalanceCents money.Cents `json:"balanceInCents"`
}
