package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stewardbooks/backend/internal/audit"
	"github.com/stewardbooks/backend/internal/models"
	"github.com/stewardbooks/backend/internal/money"
)

func TestBuild(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("expense item is negated by its direction", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		builder := NewTransactionBuilder(store, nil, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WithArgs("acct-1", testOrgID).
			WillReturnRows(accountRows("acct-1", testOrgID))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WithArgs("type-expense", testOrgID).
			WillReturnRows(itemTypeRows("type-expense", models.TypeExpense, models.DirectionOut))
		dbMock.ExpectQuery("SELECT id, org_id, name FROM transaction_item_methods").
			WithArgs("method-check", testOrgID).
			WillReturnRows(methodRows("method-check", "Check"))
		dbMock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), testOrgID, "acct-1", sqlmock.AnyArg(), "Office supplies", int64(-5000), nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "type-expense", "method-check", int64(-5000), "Printer paper").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		result, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
			AccountID:   "acct-1",
			Date:        date,
			Description: "Office supplies",
			Items: []BuildItemInput{
				{TypeID: "type-expense", MethodID: "method-check", AmountCents: 5000, Description: "Printer paper"},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, money.Cents(-5000), result.AmountCents)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, money.Cents(-5000), result.Items[0].AmountCents)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("net amount sums signed items", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		builder := NewTransactionBuilder(store, nil, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WillReturnRows(accountRows("acct-1", testOrgID))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WithArgs("type-donation", testOrgID).
			WillReturnRows(itemTypeRows("type-donation", models.TypeDonation, models.DirectionIn))
		dbMock.ExpectQuery("SELECT id, org_id, name FROM transaction_item_methods").
			WillReturnRows(methodRows("method-cash", "Cash"))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WithArgs("type-expense", testOrgID).
			WillReturnRows(itemTypeRows("type-expense", models.TypeExpense, models.DirectionOut))
		dbMock.ExpectQuery("SELECT id, org_id, name FROM transaction_item_methods").
			WillReturnRows(methodRows("method-cash", "Cash"))
		dbMock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), testOrgID, "acct-1", sqlmock.AnyArg(), "Bake sale", int64(7000), nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "type-donation", "method-cash", int64(10000), "Proceeds").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "type-expense", "method-cash", int64(-3000), "Ingredients").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		result, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
			AccountID:   "acct-1",
			Date:        date,
			Description: "Bake sale",
			Items: []BuildItemInput{
				{TypeID: "type-donation", MethodID: "method-cash", AmountCents: 10000, Description: "Proceeds"},
				{TypeID: "type-expense", MethodID: "method-cash", AmountCents: 3000, Description: "Ingredients"},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, money.Cents(7000), result.AmountCents)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("notification fires only after commit", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		notifier := new(MockNotifier)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.Kind == NotifyIncomeRecorded && n.OrgID == testOrgID && n.Recipient == "treasurer@example.org"
		})).Return(nil)
		builder := NewTransactionBuilder(store, notifier, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WillReturnRows(accountRows("acct-1", testOrgID))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-donation", models.TypeDonation, models.DirectionIn))
		dbMock.ExpectQuery("SELECT id, org_id, name FROM transaction_item_methods").
			WillReturnRows(methodRows("method-cash", "Cash"))
		dbMock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		_, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
			AccountID:   "acct-1",
			Date:        date,
			Notify:      true,
			NotifyEmail: "treasurer@example.org",
			Items: []BuildItemInput{
				{TypeID: "type-donation", MethodID: "method-cash", AmountCents: 10000},
			},
		})
		assert.NoError(t, err)
		notifier.AssertNumberOfCalls(t, "Notify", 1)
	})

	t.Run("no notification when the unit rolls back", func(t *testing.T) {
		store, dbMock, done := newStore(t)
		defer done()
		notifier := new(MockNotifier)
		builder := NewTransactionBuilder(store, notifier, audit.NewLogger())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, org_id, code, description, type_id, user_id, created_at, updated_at FROM accounts").
			WillReturnRows(accountRows("acct-1", testOrgID))
		dbMock.ExpectQuery("SELECT id, org_id, name, direction FROM transaction_item_types").
			WillReturnRows(itemTypeRows("type-donation", models.TypeDonation, models.DirectionIn))
		dbMock.ExpectQuery("SELECT id, org_id, name FROM transaction_item_methods").
			WillReturnRows(methodRows("method-cash", "Cash"))
		dbMock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectExec("INSERT INTO transaction_items").
			WillReturnError(assert.AnError)
		dbMock.ExpectRollback()

		_, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
			AccountID: "acct-1",
			Date:      date,
			Notify:    true,
			Items: []BuildItemInput{
				{TypeID: "type-donation", MethodID: "method-cash", AmountCents: 10000},
			},
		})
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		store, _, done := newStore(t)
		defer done()
		builder := NewTransactionBuilder(store, nil, audit.NewLogger())

		_, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{AccountID: "acct-1", Date: date})
		assert.ErrorIs(t, err, ErrNoItems)
	})

	t.Run("rejects zero and negative item amounts", func(t *testing.T) {
		store, _, done := newStore(t)
		defer done()
		builder := NewTransactionBuilder(store, nil, audit.NewLogger())

		for _, amount := range []money.Cents{0, -100} {
			_, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
				AccountID: "acct-1",
				Date:      date,
				Items:     []BuildItemInput{{TypeID: "type-donation", MethodID: "method-cash", AmountCents: amount}},
			})
			assert.ErrorIs(t, err, ErrZeroOrNegativeAmount)
		}
	})

	t.Run("rejects items over the per-item ceiling", func(t *testing.T) {
		store, _, done := newStore(t)
		defer done()
		builder := NewTransactionBuilder(store, nil, audit.NewLogger())

		_, err := builder.Build(context.Background(), testOrgID, testUserID, BuildInput{
			AccountID: "acct-1",
			Date:      date,
			Items:     []BuildItemInput{{TypeID: "type-donation", MethodID: "method-cash", AmountCents: money.MaxItemCents + 1}},
		})
		assert.ErrorIs(t, err, money.ErrAmountOutOfRange)
	})
}
