package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stewardbooks/backend/internal/models"
)

// LedgerStore is the persistence boundary for accounts, transactions, catalog
// rows and reimbursement requests. Every statement is scoped by org_id; every
// money-moving operation runs through WithinTx so related writes commit or
// roll back as one unit.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// PostCommit collects side effects (notifications, cleanup) deferred until the
// store transaction commits. Nothing on the list runs on rollback.
type PostCommit struct {
	hooks []func()
}

func (p *PostCommit) Add(fn func()) {
	p.hooks = append(p.hooks, fn)
}

func (p *PostCommit) run() {
	for _, fn := range p.hooks {
		fn()
	}
}

// WithinTx runs fn inside a store transaction. Post-commit hooks registered by
// fn execute only after a successful commit.
func (s *LedgerStore) WithinTx(ctx context.Context, fn func(tx *sql.Tx, after *PostCommit) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	after := &PostCommit{}
	if err := fn(tx, after); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	after.run()
	return nil
}

// lockAccountTx takes a row lock on the account, serializing concurrent
// operations that debit it. Check-then-act balance decisions must hold this
// lock before reading the balance.
func (s *LedgerStore) lockAccountTx(tx *sql.Tx, orgID, accountID string) error {
	var id string
	err := tx.QueryRow(`
		SELECT id FROM accounts
		WHERE id = $1 AND org_id = $2
		FOR UPDATE`, accountID, orgID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// Accounts

func (s *LedgerStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, org_id, code, description, type_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.OrgID, account.Code, account.Description,
		account.TypeID, account.UserID, account.CreatedAt, account.UpdatedAt)
	return err
}

const accountColumns = `id, org_id, code, description, type_id, user_id, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OrgID, &a.Code, &a.Description, &a.TypeID, &a.UserID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *LedgerStore) GetAccount(ctx context.Context, orgID, accountID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = $1 AND org_id = $2`, accountID, orgID)
	return scanAccount(row)
}

func (s *LedgerStore) getAccountTx(tx *sql.Tx, orgID, accountID string) (*models.Account, error) {
	row := tx.QueryRow(`
		SELECT `+accountColumns+` FROM accounts
		WHERE id = $1 AND org_id = $2`, accountID, orgID)
	return scanAccount(row)
}

// getAccountByUserTx resolves the account linked to a user, used to find the
// requester's account when approving a reimbursement.
func (s *LedgerStore) getAccountByUserTx(tx *sql.Tx, orgID, userID string) (*models.Account, error) {
	row := tx.QueryRow(`
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND org_id = $2
		LIMIT 1`, userID, orgID)
	account, err := scanAccount(row)
	if err == ErrNotFound {
		return nil, ErrNoRequesterAccount
	}
	return account, err
}

func (s *LedgerStore) ListAccounts(ctx context.Context, orgID string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE org_id = $1
		ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Code, &a.Description, &a.TypeID, &a.UserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account. Deletion is blocked while any transaction
// still references it.
func (s *LedgerStore) DeleteAccount(ctx context.Context, orgID, accountID string) error {
	return s.WithinTx(ctx, func(tx *sql.Tx, _ *PostCommit) error {
		var inUse bool
		err := tx.QueryRow(`
			SELECT EXISTS(
				SELECT 1 FROM transactions
				WHERE account_id = $1 AND org_id = $2
			)`, accountID, orgID).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return ErrAccountInUse
		}

		result, err := tx.Exec(`
			DELETE FROM accounts
			WHERE id = $1 AND org_id = $2`, accountID, orgID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Transactions

func (s *LedgerStore) insertTransactionTx(tx *sql.Tx, txn *models.Transaction) error {
	txn.CreatedAt = time.Now()
	_, err := tx.Exec(`
		INSERT INTO transactions (id, org_id, account_id, date, description, amount_cents, contact_id, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.OrgID, txn.AccountID, txn.Date, txn.Description,
		txn.AmountCents, txn.ContactID, txn.CategoryID, txn.CreatedAt)
	return err
}

func (s *LedgerStore) insertTransactionItemTx(tx *sql.Tx, item *models.TransactionItem) error {
	_, err := tx.Exec(`
		INSERT INTO transaction_items (id, transaction_id, type_id, method_id, amount_cents, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.TransactionID, item.TypeID, item.MethodID, item.AmountCents, item.Description)
	return err
}

// CreateTransactionWithItems persists a transaction and its items as one
// atomic unit. Callers that compose larger units (transfers, approvals) use
// the tx-level inserts inside their own WithinTx instead.
func (s *LedgerStore) CreateTransactionWithItems(ctx context.Context, txn *models.Transaction, items []models.TransactionItem) error {
	return s.WithinTx(ctx, func(tx *sql.Tx, _ *PostCommit) error {
		if err := s.insertTransactionTx(tx, txn); err != nil {
			return err
		}
		for i := range items {
			if err := s.insertTransactionItemTx(tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

const transactionColumns = `id, org_id, account_id, date, description, amount_cents, contact_id, category_id, created_at`

func (s *LedgerStore) GetTransaction(ctx context.Context, orgID, transactionID string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE id = $1 AND org_id = $2`, transactionID, orgID).
		Scan(&t.ID, &t.OrgID, &t.AccountID, &t.Date, &t.Description, &t.AmountCents, &t.ContactID, &t.CategoryID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *LedgerStore) FindAccountTransactions(ctx context.Context, orgID, accountID string, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 AND org_id = $2
		ORDER BY date DESC, created_at DESC
		LIMIT $3`, accountID, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.OrgID, &t.AccountID, &t.Date, &t.Description, &t.AmountCents, &t.ContactID, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *LedgerStore) FindTransactionItems(ctx context.Context, transactionID string) ([]models.TransactionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, type_id, method_id, amount_cents, description
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.TransactionItem{}
	for rows.Next() {
		var it models.TransactionItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.TypeID, &it.MethodID, &it.AmountCents, &it.Description); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateTransactionDetails edits the non-monetary fields of a transaction.
// Amounts and items are append-only and cannot be changed here.
func (s *LedgerStore) UpdateTransactionDetails(ctx context.Context, orgID, transactionID string, date time.Time, description string, contactID, categoryID *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = $1, description = $2, contact_id = $3, category_id = $4
		WHERE id = $5 AND org_id = $6`,
		date, description, contactID, categoryID, transactionID, orgID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Catalog

func scanItemType(row *sql.Row) (*models.TransactionItemType, error) {
	var t models.TransactionItemType
	err := row.Scan(&t.ID, &t.OrgID, &t.Name, &t.Direction)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *LedgerStore) getItemTypeTx(tx *sql.Tx, orgID, typeID string) (*models.TransactionItemType, error) {
	return scanItemType(tx.QueryRow(`
		SELECT id, org_id, name, direction FROM transaction_item_types
		WHERE id = $1 AND org_id = $2`, typeID, orgID))
}

func (s *LedgerStore) getItemTypeByNameTx(tx *sql.Tx, orgID, name string) (*models.TransactionItemType, error) {
	return scanItemType(tx.QueryRow(`
		SELECT id, org_id, name, direction FROM transaction_item_types
		WHERE name = $1 AND org_id = $2`, name, orgID))
}

func (s *LedgerStore) ListItemTypes(ctx context.Context, orgID string) ([]models.TransactionItemType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, direction FROM transaction_item_types
		WHERE org_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []models.TransactionItemType{}
	for rows.Next() {
		var t models.TransactionItemType
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Direction); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *LedgerStore) ListMethods(ctx context.Context, orgID string) ([]models.TransactionItemMethod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name FROM transaction_item_methods
		WHERE org_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []models.TransactionItemMethod{}
	for rows.Next() {
		var m models.TransactionItemMethod
		if err := rows.Scan(&m.ID, &m.OrgID, &m.Name); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *LedgerStore) getMethodTx(tx *sql.Tx, orgID, methodID string) (*models.TransactionItemMethod, error) {
	var m models.TransactionItemMethod
	err := tx.QueryRow(`
		SELECT id, org_id, name FROM transaction_item_methods
		WHERE id = $1 AND org_id = $2`, methodID, orgID).Scan(&m.ID, &m.OrgID, &m.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Reimbursement requests

const reimbursementColumns = `id, org_id, user_id, user_email, account_id, amount_cents, method_id, status, vendor, description, note, created_at, updated_at`

func scanReimbursement(scan func(dest ...any) error) (*models.ReimbursementRequest, error) {
	var r models.ReimbursementRequest
	err := scan(&r.ID, &r.OrgID, &r.UserID, &r.UserEmail, &r.AccountID, &r.AmountCents, &r.MethodID,
		&r.Status, &r.Vendor, &r.Description, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *LedgerStore) insertReimbursementTx(tx *sql.Tx, req *models.ReimbursementRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Status = models.ReimbursementPending
	_, err := tx.Exec(`
		INSERT INTO reimbursement_requests (id, org_id, user_id, user_email, amount_cents, method_id, status, vendor, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.OrgID, req.UserID, req.UserEmail, req.AmountCents, req.MethodID,
		req.Status, req.Vendor, req.Description, req.CreatedAt, req.UpdatedAt)
	return err
}

func (s *LedgerStore) attachReceiptTx(tx *sql.Tx, requestID, receiptID string) error {
	_, err := tx.Exec(`
		INSERT INTO reimbursement_receipts (request_id, receipt_id)
		VALUES ($1, $2)`, requestID, receiptID)
	return err
}

func (s *LedgerStore) GetReimbursementRequest(ctx context.Context, orgID, requestID string) (*models.ReimbursementRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reimbursementColumns+` FROM reimbursement_requests
		WHERE id = $1 AND org_id = $2`, requestID, orgID)
	return scanReimbursement(row.Scan)
}

// getReimbursementForUpdateTx locks the request row so concurrent decisions on
// the same request serialize; the status re-check after the lock makes
// double-approval impossible.
func (s *LedgerStore) getReimbursementForUpdateTx(tx *sql.Tx, orgID, requestID string) (*models.ReimbursementRequest, error) {
	row := tx.QueryRow(`
		SELECT `+reimbursementColumns+` FROM reimbursement_requests
		WHERE id = $1 AND org_id = $2
		FOR UPDATE`, requestID, orgID)
	return scanReimbursement(row.Scan)
}

func (s *LedgerStore) updateReimbursementStatusTx(tx *sql.Tx, orgID, requestID string, status models.ReimbursementStatus, note *string, accountID *string) error {
	result, err := tx.Exec(`
		UPDATE reimbursement_requests
		SET status = $1, note = $2, account_id = $3, updated_at = $4
		WHERE id = $5 AND org_id = $6`,
		status, note, accountID, time.Now(), requestID, orgID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReimbursementRequests returns requests for the org, optionally filtered
// by requester and status, newest first.
func (s *LedgerStore) ListReimbursementRequests(ctx context.Context, orgID string, userID string, status models.ReimbursementStatus, limit int) ([]models.ReimbursementRequest, error) {
	query := `SELECT ` + reimbursementColumns + ` FROM reimbursement_requests WHERE org_id = $1`
	args := []any{orgID}

	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.ReimbursementRequest{}
	for rows.Next() {
		req, err := scanReimbursement(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (s *LedgerStore) FindRequestReceipts(ctx context.Context, orgID, requestID string) ([]models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.org_id, r.title
		FROM receipts r
		INNER JOIN reimbursement_receipts rr ON rr.receipt_id = r.id
		WHERE rr.request_id = $1 AND r.org_id = $2
		ORDER BY r.title`, requestID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		var r models.Receipt
		if err := rows.Scan(&r.ID, &r.OrgID, &r.Title); err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
