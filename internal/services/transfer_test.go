package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/stewardbooks/backend/internal/audit"
	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
)

func TestTransfer(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	input := TransferInput{
		FromAccountID: "acct-from",
		ToAccountID:   "acct-to",
		AmountCents:   2500,
		Date:          date,
		Description:   "Move funds to youth ministry",
	}

	t.Run("creates a matched pair summing to zero", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id FROM accounts").
			WithArgs("acct-from", testOrgID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acct-from"))
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WithArgs("acct-to", testOrgID).
			WillReturnRows(accountRows("acct-to", testOrgID))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_cents\), 0\) FROM transactions`).
			WithArgs("acct-from", testOrgID).
			WillReturnRows(balanceRows(10000))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WithArgs(models.TypeTransferOut, testOrgID).
			WillReturnRows(itemTypeRows("type-transfer-out", models.TypeTransferOut, models.DirectionOut))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WithArgs(models.TypeTransferIn, testOrgID).
			WillReturnRows(itemTypeRows("type-transfer-in", models.TypeTransferIn, models.DirectionIn))
		dbMock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), testOrgID, "acct-from", sqlmock.AnyArg(), input.Description, int64(-2500), nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "type-transfer-out", nil, int64(-2500), input.Description).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), testOrgID, "acct-to", sqlmock.AnyArg(), input.Description, int64(2500), nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "type-transfer-in", nil, int64(2500), input.Description).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		result, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, input)
		assert.NoError(t, err)
		assert.Equal(t, money.Cents(-2500), result.Outgoing.AmountCents)
		assert.Equal(t, money.Cents(2500), result.Incoming.AmountCents)
		assert.Equal(t, money.Cents(0), result.Outgoing.AmountCents+result.Incoming.AmountCents)
		assert.Equal(t, "acct-from", result.Outgoing.AccountID)
		assert.Equal(t, "acct-to", result.Incoming.AccountID)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insufficient funds rolls back and reports the shortfall", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id FROM accounts").
			WithArgs("acct-from", testOrgID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acct-from"))
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WithArgs("acct-to", testOrgID).
			WillReturnRows(accountRows("acct-to", testOrgID))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_cents\), 0\) FROM transactions`).
			WithArgs("acct-from", testOrgID).
			WillReturnRows(balanceRows(1000))
		dbMock.ExpectRollback()

		_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, input)

		var insufficient *InsufficientFundsError
		assert.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "acct-from", insufficient.AccountID)
		assert.Equal(t, money.Cents(1500), insufficient.Shortfall())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("exact balance is sufficient", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acct-from"))
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WillReturnRows(accountRows("acct-to", testOrgID))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_cents\), 0\) FROM transactions`).
			WillReturnRows(balanceRows(2500))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-transfer-out", models.TypeTransferOut, models.DirectionOut))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-transfer-in", models.TypeTransferIn, models.DirectionIn))
		dbMock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, input)
		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("same account is rejected before touching the store", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, TransferInput{
			FromAccountID: "acct-1",
			ToAccountID:   "acct-1",
			AmountCents:   1000,
			Date:          date,
		})
		assert.ErrorIs(t, err, ErrSameAccountTransfer)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("zero and negative amounts are rejected", func(t *testing.T) {
		store, _, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		for _, amount := range []money.Cents{0, -500} {
			_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, TransferInput{
				FromAccountID: "acct-from",
				ToAccountID:   "acct-to",
				AmountCents:   amount,
				Date:          date,
			})
			assert.ErrorIs(t, err, ErrZeroOrNegativeAmount)
		}
	})

	t.Run("failure on the second leg rolls back the first", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acct-from"))
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WillReturnRows(accountRows("acct-to", testOrgID))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_cents\), 0\) FROM transactions`).
			WillReturnRows(balanceRows(10000))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-transfer-out", models.TypeTransferOut, models.DirectionOut))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-transfer-in", models.TypeTransferIn, models.DirectionIn))
		dbMock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transactions").WillReturnError(assert.AnError)
		dbMock.ExpectRollback()

		_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, input)
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown destination account", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		orchestrator := NewTransferOrchestrator(store, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acct-from"))
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WithArgs("acct-to", testOrgID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "code", "description", "type_id", "user_id", "created_at", "updated_at"}))
		dbMock.ExpectRollback()

		_, err := orchestrator.Transfer(context.Background(), testOrgID, testUserID, input)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
