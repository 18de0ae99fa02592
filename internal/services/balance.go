package services

import (
	"context"
	"database/sql"

	"github.com/stewardbooks/backend/internal/money"
)

// Balances are always derived from transaction history, never materialized.
// Sufficiency decisions must use balanceOfTx after lockAccountTx so the read
// and the resulting writes are covered by the same row lock.

const balanceQuery = `
	SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
	WHERE account_id = $1 AND org_id = $2`

// BalanceOf recomputes the account's balance from its full transaction
// history. No caching across requests.
func (s *LedgerStore) BalanceOf(ctx context.Context, orgID, accountID string) (money.Cents, error) {
	var balance money.Cents
	err := s.db.QueryRowContext(ctx, balanceQuery, accountID, orgID).Scan(&balance)
	return balance, err
}

func (s *LedgerStore) balanceOfTx(tx *sql.Tx, orgID, accountID string) (money.Cents, error) {
	var balance money.Cents
	err := tx.QueryRow(balanceQuery, accountID, orgID).Scan(&balance)
	return balance, err
}

// AvailableForReimbursement is the source account's full historical balance,
// not a budget or ceiling.
func (s *LedgerStore) AvailableForReimbursement(ctx context.Context, orgID, accountID string) (money.Cents, error) {
	return s.BalanceOf(ctx, orgID, accountID)
}
