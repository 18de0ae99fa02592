package models

// Direction determines the sign applied to a line item's amount when it is
// summed into its parent transaction.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Well-known item type names seeded for every organization.
const (
	TypeDonation      = "Donation"
	TypeExpense       = "Expense"
	TypeTransferIn    = "Transfer_In"
	TypeTransferOut   = "Transfer_Out"
	TypeOtherIncoming = "Other_Incoming"
	TypeOtherOutgoing = "Other_Outgoing"
)

// TransactionItemType is the sole source of sign truth for money movement.
type TransactionItemType struct {
	ID        string    `json:"id" db:"id"`
	OrgID     string    `json:"orgId" db:"org_id"`
	Name      string    `json:"name" db:"name"`
	Direction Direction `json:"direction" db:"direction"`
}

// TransactionItemMethod catalogs payment rails (Check, ACH, Card). Descriptive
// only; it carries no monetary effect.
type TransactionItemMethod struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"orgId" db:"org_id"`
	Name  string `json:"name" db:"name"`
}
