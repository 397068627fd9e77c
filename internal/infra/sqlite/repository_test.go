package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nested", "expenses.db"))
	require.NoError(t, err)
	repo.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	older, err := repo.CreateTransaction(ctx, &domain.Transaction{
		UID: "u1", Amount: 1500, Currency: "LKR", Category: "Food",
		Merchant: domain.StringPtr("KFC"), Note: "lunch",
		Date:   civil.Date{Year: 2026, Month: 10, Day: 1},
		Source: domain.SourceVoice,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, older.ID)
	assert.Equal(t, fixedNow, older.CreatedAt)

	newer, err := repo.CreateTransaction(ctx, &domain.Transaction{
		UID: "u1", Amount: 99.99, Currency: "USD", Category: "Bills",
		Date: civil.Date{Year: 2026, Month: 10, Day: 12},
	})
	require.NoError(t, err)

	// No date: sorts by its creation day, 2026-10-14.
	undated, err := repo.CreateTransaction(ctx, &domain.Transaction{UID: "u1", Amount: 5, Currency: "LKR", Category: "Other"})
	require.NoError(t, err)

	_, err = repo.CreateTransaction(ctx, &domain.Transaction{UID: "u2", Amount: 1, Currency: "LKR", Category: "Other"})
	require.NoError(t, err)

	list, err := repo.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, undated.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)
	assert.Equal(t, older.ID, list[2].ID)

	assert.Equal(t, older, list[2])
	assert.Equal(t, 99.99, list[1].Amount)
	assert.Nil(t, list[1].Merchant)

	limited, err := repo.ListTransactions(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := repo.ListTransactions(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_CreateRequiresUID(t *testing.T) {
	_, err := newTestRepository(t).CreateTransaction(context.Background(), &domain.Transaction{Amount: 1})
	assert.Error(t, err)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	tx, err := repo.CreateTransaction(ctx, &domain.Transaction{UID: "u1", Amount: 10, Currency: "LKR", Category: "Food"})
	require.NoError(t, err)

	_, err = repo.UpdateTransaction(ctx, "u2", tx.ID, domain.TransactionUpdate{Amount: domain.Float64Ptr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	date := civil.Date{Year: 2026, Month: 9, Day: 30}
	updated, err := repo.UpdateTransaction(ctx, "u1", tx.ID, domain.TransactionUpdate{
		Amount:     domain.Float64Ptr(12.5),
		Category:   domain.StringPtr("Transport"),
		Date:       &date,
		ReceiptURL: domain.StringPtr("https://storage.googleapis.com/b/receipts/u1/1-a.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Amount)
	assert.Equal(t, "Transport", updated.Category)
	assert.Equal(t, "LKR", updated.Currency)

	list, err := repo.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, updated, list[0])

	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "u2", tx.ID), domain.ErrNotFound)
	require.NoError(t, repo.DeleteTransaction(ctx, "u1", tx.ID))
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "u1", tx.ID), domain.ErrNotFound)
}

func TestRepository_UpsertForecast(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.GetForecast(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := repo.UpsertForecast(ctx, &domain.Prediction{
		UID:      "u1",
		Forecast: domain.MonthlyForecast{"2026-11": 1000},
		Method:   domain.ForecastMethod,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, first.GeneratedAt)

	later := fixedNow.Add(time.Hour)
	repo.now = func() time.Time { return later }
	second, err := repo.UpsertForecast(ctx, &domain.Prediction{
		UID:      "u1",
		Forecast: domain.MonthlyForecast{"2026-12": 2000.5},
		Method:   domain.ForecastMethod,
	})
	require.NoError(t, err)
	assert.Equal(t, later, second.GeneratedAt)
	assert.Equal(t, domain.MonthlyForecast{"2026-12": 2000.5}, second.Forecast)

	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM predictions WHERE user_id = ?`, "u1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRepository_Categories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	cats, err := repo.GetCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories, cats)

	require.NoError(t, repo.SaveCategories(ctx, "u1", []string{"Food", "Pets"}))
	cats, err = repo.GetCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Pets"}, cats)

	assert.ErrorIs(t, repo.SaveCategories(ctx, "u1", nil), domain.ErrLastCategory)
}

func TestRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.db")

	repo, err := NewRepository(path)
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, &domain.Transaction{UID: "u1", Amount: 3, Currency: "LKR", Category: "Food"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := NewRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepository_Liabilities(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	due := func(day int) civil.Date { return civil.Date{Year: 2026, Month: time.October, Day: day} }

	var ids []string
	for _, day := range []int{28, 3, 15} {
		l, err := repo.CreateLiability(ctx, &domain.Liability{
			UID:         "u1",
			Description: "Visa",
			Amount:      1250.75,
			Currency:    "LKR",
			Category:    "Credit Card Payment",
			DueDate:     due(day),
		})
		require.NoError(t, err)
		assert.Equal(t, fixedNow, l.CreatedAt)
		ids = append(ids, l.ID)
	}
	_, err := repo.CreateLiability(ctx, &domain.Liability{UID: "u2", Description: "Rent", DueDate: due(1)})
	require.NoError(t, err)

	list, err := repo.ListLiabilities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, due(3), list[0].DueDate)
	assert.Equal(t, due(15), list[1].DueDate)
	assert.Equal(t, due(28), list[2].DueDate)
	assert.Equal(t, 1250.75, list[0].Amount)
	assert.False(t, list[0].IsPaid)

	tests := []struct {
		name string
		uid  string
		id   string
	}{
		{name: "foreign owner", uid: "u2", id: ids[0]},
		{name: "unknown id", uid: "u1", id: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.UpdateLiability(ctx, tt.uid, tt.id, domain.LiabilityUpdate{IsPaid: domain.BoolPtr(true)})
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, repo.DeleteLiability(ctx, tt.uid, tt.id), domain.ErrNotFound)
		})
	}

	note := "paid via app"
	updated, err := repo.UpdateLiability(ctx, "u1", ids[0], domain.LiabilityUpdate{IsPaid: domain.BoolPtr(true), Note: &note})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, "paid via app", updated.Note)
	assert.Equal(t, due(28), updated.DueDate)

	list, err = repo.ListLiabilities(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, updated, list[2])

	require.NoError(t, repo.DeleteLiability(ctx, "u1", ids[0]))
	list, err = repo.ListLiabilities(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.CreateLiability(ctx, &domain.Liability{Description: "orphan", DueDate: due(1)})
	assert.Error(t, err)
}
