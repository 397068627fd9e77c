package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

func TestTransactionToRow(t *testing.T) {
	created := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	tx := &domain.Transaction{
		ID:         "tx-1",
		UID:        "u1",
		Amount:     1250.75,
		Currency:   "LKR",
		Category:   "Food",
		Merchant:   domain.StringPtr("KFC"),
		Note:       "lunch",
		Date:       civil.Date{Year: 2026, Month: 10, Day: 13},
		Source:     domain.SourceVoice,
		ReceiptURL: "https://storage.googleapis.com/b/receipts/u1/1-a.jpg",
		CreatedAt:  created,
	}

	row := transactionToRow(tx)

	assert.Equal(t, "tx-1", row.TransactionID)
	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, 0, row.Amount.Cmp(big.NewRat(125075, 100)))
	assert.Equal(t, bigquery.NullString{StringVal: "KFC", Valid: true}, row.Merchant)
	assert.Equal(t, bigquery.NullDate{Date: tx.Date, Valid: true}, row.TransactionDate)
	assert.True(t, row.ReceiptURL.Valid)
	assert.Equal(t, created, row.CreatedTS)

	back := rowToTransaction(row)
	assert.Equal(t, tx, back)
}

func TestTransactionToRow_Nulls(t *testing.T) {
	row := transactionToRow(&domain.Transaction{ID: "tx-2", UID: "u1", Currency: "USD", Category: "Other"})

	assert.False(t, row.Merchant.Valid)
	assert.False(t, row.TransactionDate.Valid)
	assert.False(t, row.ReceiptURL.Valid)
	assert.Equal(t, 0, row.Amount.Sign())

	back := rowToTransaction(row)
	assert.Nil(t, back.Merchant)
	assert.True(t, back.Date.IsZero())
	assert.Empty(t, back.ReceiptURL)
}

func TestLiabilityToRow(t *testing.T) {
	l := &domain.Liability{
		ID:          "l-1",
		UID:         "u1",
		Description: "Visa",
		Amount:      2500.5,
		Currency:    "LKR",
		Category:    "Credit Card Payment",
		DueDate:     civil.Date{Year: 2026, Month: 11, Day: 1},
		Note:        "statement",
		IsPaid:      true,
		CreatedAt:   time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
	}

	row := liabilityToRow(l)
	assert.Equal(t, "l-1", row.LiabilityID)
	assert.Equal(t, 0, row.Amount.Cmp(big.NewRat(5001, 2)))
	assert.Equal(t, "Credit Card Payment", row.CategoryName)
	assert.True(t, row.IsPaid)
	assert.False(t, row.UpdatedTS.Valid)

	assert.Equal(t, l, rowToLiability(row))
	assert.Zero(t, rowToLiability(&LiabilityRow{LiabilityID: "l-2"}).Amount)
}

func TestRowToPrediction(t *testing.T) {
	at := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	p, err := rowToPrediction(&PredictionRow{
		UserID:       "u1",
		GeneratedAt:  at,
		ForecastJSON: `{"2026-11":1200.5,"2026-12":900}`,
		Method:       domain.ForecastMethod,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, at, p.GeneratedAt)
	assert.Equal(t, domain.MonthlyForecast{"2026-11": 1200.5, "2026-12": 900}, p.Forecast)
	assert.Equal(t, domain.ForecastMethod, p.Method)

	empty, err := rowToPrediction(&PredictionRow{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, domain.MonthlyForecast{}, empty.Forecast)

	_, err = rowToPrediction(&PredictionRow{UserID: "u3", ForecastJSON: "{broken"})
	assert.Error(t, err)
}

func TestUpdateAssignments(t *testing.T) {
	sets, params := updateAssignments(domain.TransactionUpdate{
		Amount:   domain.Float64Ptr(10.5),
		Category: domain.StringPtr("Bills"),
		Merchant: domain.StringPtr(""),
	})

	assert.Equal(t, []string{"amount = @amount", "category_name = @category_name", "merchant = @merchant"}, sets)
	require.Len(t, params, 3)
	assert.Equal(t, 0, params[0].Value.(*big.Rat).Cmp(big.NewRat(21, 2)))
	assert.Equal(t, "Bills", params[1].Value)
	assert.Equal(t, bigquery.NullString{}, params[2].Value)
}

func TestTableRef(t *testing.T) {
	assert.Equal(t, "`proj.finance.transactions`", tableRef("proj", "finance", transactionsTable))
}
