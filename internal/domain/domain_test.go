package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = civil.Date{Year: 2026, Month: time.October, Day: 14}

func TestExpense_JSONShape(t *testing.T) {
	e := Expense{
		Amount:   Float64Ptr(1500),
		Currency: "LKR",
		Category: "Food",
		Date:     today,
		Note:     "I spent 1500 rupees on lunch",
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"amount": 1500,
		"currency": "LKR",
		"category": "Food",
		"merchant": null,
		"date": "2026-10-14",
		"note": "I spent 1500 rupees on lunch"
	}`, string(data))
}

func TestExpense_Normalize(t *testing.T) {
	defaults := Defaults{Currency: "lkr", Categories: DefaultCategories, Today: today, Transcript: "raw words"}

	tests := []struct {
		name string
		in   Expense
		want Expense
	}{
		{
			name: "empty record gets every default",
			in:   Expense{},
			want: Expense{Currency: "LKR", Category: SentinelCategory, Date: today, Note: "raw words"},
		},
		{
			name: "negative amount becomes magnitude",
			in:   Expense{Amount: Float64Ptr(-250.5), Currency: "usd", Category: "food", Note: "x"},
			want: Expense{Amount: Float64Ptr(250.5), Currency: "USD", Category: "Food", Date: today, Note: "x"},
		},
		{
			name: "NaN amount is dropped",
			in:   Expense{Amount: Float64Ptr(math.NaN()), Category: "Bills", Note: "x"},
			want: Expense{Currency: "LKR", Category: "Bills", Date: today, Note: "x"},
		},
		{
			name: "blank merchant becomes null and custom category survives",
			in:   Expense{Merchant: StringPtr("  "), Category: " Pets ", Date: civil.Date{Year: 2025, Month: 1, Day: 2}, Note: "x"},
			want: Expense{Currency: "LKR", Category: "Pets", Date: civil.Date{Year: 2025, Month: 1, Day: 2}, Note: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(defaults))
		})
	}
}

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, "Transport", CanonicalCategory(DefaultCategories, "TRANSPORT"))
	assert.Equal(t, SentinelCategory, CanonicalCategory(DefaultCategories, ""))
	assert.Equal(t, "Groceries", CanonicalCategory(nil, "Groceries"))
	assert.Equal(t, "Health", CanonicalCategory(nil, "health"))
}

func TestAddRemoveCategory(t *testing.T) {
	list := []string{"Food", "Other"}

	added, err := AddCategory(list, "  Pets ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Other", "Pets"}, added)
	assert.Equal(t, []string{"Food", "Other"}, list, "input must not be modified")

	_, err = AddCategory(list, "Food")
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = AddCategory(list, " ")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	removed, err := RemoveCategory(added, "Food")
	require.NoError(t, err)
	assert.Equal(t, []string{"Other", "Pets"}, removed)

	_, err = RemoveCategory(added, "Missing")
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = RemoveCategory([]string{"Other"}, "Other")
	assert.ErrorIs(t, err, ErrLastCategory)
}

func TestTransactionFromExpenseAndUpdate(t *testing.T) {
	tx := TransactionFromExpense("u1", Expense{Currency: "LKR", Date: today, Note: "bus 40"})
	assert.Equal(t, 0.0, tx.Amount)
	assert.Equal(t, SentinelCategory, tx.Category)
	assert.Equal(t, SourceVoice, tx.Source)

	upd := TransactionUpdate{Amount: Float64Ptr(40), Category: StringPtr("Transport")}
	assert.False(t, upd.Empty())
	upd.Apply(tx)
	assert.Equal(t, 40.0, tx.Amount)
	assert.Equal(t, "Transport", tx.Category)
	assert.True(t, TransactionUpdate{}.Empty())
}

func TestTransaction_EffectiveDate(t *testing.T) {
	created := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, today, (&Transaction{Date: today, CreatedAt: created}).EffectiveDate())
	assert.Equal(t, civil.Date{Year: 2026, Month: 3, Day: 9}, (&Transaction{CreatedAt: created}).EffectiveDate())
	assert.True(t, (&Transaction{}).EffectiveDate().IsZero())
}

func TestTransaction_JSONFields(t *testing.T) {
	tx := TransactionFromExpense("u1", Expense{Amount: Float64Ptr(250), Currency: "LKR", Category: "Food", Date: today})

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"id", "uid", "amount", "currency", "category", "merchant", "note", "date", "source", "created_at"}, keys)
	assert.NotContains(t, fields, "kind", "every transaction is an expense")
}
