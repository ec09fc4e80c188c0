package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/repository"
)

func TestPaymentRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	payment := &domain.Payment{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		CustomerID:    uuid.New(),
		PaymentType:   domain.PaymentTypeInstallment,
		PaymentDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(3000),
		Currency:      "IDR",
		PaymentMethod: domain.PaymentMethodBankTransfer,
		Status:        domain.PaymentStatusConfirmed,
		CreatedAt:     time.Now(),
	}

	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.UserID, nil, nil, payment.CustomerID, payment.PaymentType, payment.PaymentDate,
			payment.Amount, payment.Currency, payment.PaymentMethod, nil, nil, payment.Status, payment.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repository.NewPaymentRepository(db).Create(context.Background(), payment))
}

func TestPaymentRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectQuery(`FROM payments`).WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	payment, err := repository.NewPaymentRepository(db).GetByID(context.Background(), id)

	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestPaymentRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectExec(`DELETE FROM payments WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repository.NewPaymentRepository(db).Delete(context.Background(), id))
}

func TestContractRepository_UpdateNextCollection(t *testing.T) {
	contractID := uuid.New()
	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("sets next collection", func(t *testing.T) {
		db, mock := newMockDB(t)
		amount := decimal.NewNullDecimal(decimal.NewFromInt(7000))
		mock.ExpectExec(`UPDATE contracts`).
			WithArgs(contractID, &next, amount, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repository.NewContractRepository(db).UpdateNextCollection(context.Background(), contractID, &next, amount)
		require.NoError(t, err)
	})

	t.Run("clears when nothing is pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE contracts`).
			WithArgs(contractID, nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var noDate *time.Time
		err := repository.NewContractRepository(db).UpdateNextCollection(context.Background(), contractID, noDate, decimal.NullDecimal{})
		require.NoError(t, err)
	})
}

func TestQuotationRepository_ListTerms(t *testing.T) {
	db, mock := newMockDB(t)
	quotationID := uuid.New()
	mock.ExpectQuery(`FROM quotation_terms`).
		WithArgs(quotationID).
		WillReturnRows(sqlmock.NewRows([]string{"term_number", "amount", "due_date", "term_name"}).
			AddRow(1, "3000", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "DP").
			AddRow(2, "7000", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), ""))

	terms, err := repository.NewQuotationRepository(db).ListTerms(context.Background(), quotationID)

	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "DP", terms[0].TermName)
	assert.True(t, terms[1].Amount.Equal(decimal.NewFromInt(7000)))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, repository.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, repository.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, repository.IsUniqueViolation(assert.AnError))
}
