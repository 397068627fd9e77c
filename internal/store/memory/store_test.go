package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

func TestStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for i, day := range []int{3, 14, 9} {
		_, err := s.CreateTransaction(ctx, &domain.Transaction{
			UID:    "u1",
			Amount: float64(100 * (i + 1)),
			Date:   civil.Date{Year: 2026, Month: time.October, Day: day},
		})
		require.NoError(t, err)
	}
	_, err := s.CreateTransaction(ctx, &domain.Transaction{UID: "u2", Amount: 1})
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 14, list[0].Date.Day)
	assert.Equal(t, 9, list[1].Date.Day)
	assert.Equal(t, 3, list[2].Date.Day)
	for _, tx := range list {
		assert.NotEmpty(t, tx.ID)
		assert.False(t, tx.CreatedAt.IsZero())
	}

	limited, err := s.ListTransactions(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := s.ListTransactions(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_CreateRequiresUID(t *testing.T) {
	_, err := NewStore().CreateTransaction(context.Background(), &domain.Transaction{Amount: 1})
	assert.Error(t, err)
}

func TestStore_CopiesInAndOut(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	in := &domain.Transaction{UID: "u1", Amount: 10, Merchant: domain.StringPtr("Keells")}
	created, err := s.CreateTransaction(ctx, in)
	require.NoError(t, err)

	*in.Merchant = "changed"
	created.Amount = 999

	list, err := s.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10.0, list[0].Amount)
	assert.Equal(t, "Keells", *list[0].Merchant)
}

func TestStore_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, err := s.CreateTransaction(ctx, &domain.Transaction{UID: "u1", Amount: 10, Category: "Food"})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(ctx, "u2", tx.ID, domain.TransactionUpdate{Amount: domain.Float64Ptr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u2", tx.ID), domain.ErrNotFound)

	updated, err := s.UpdateTransaction(ctx, "u1", tx.ID, domain.TransactionUpdate{Category: domain.StringPtr("Bills")})
	require.NoError(t, err)
	assert.Equal(t, "Bills", updated.Category)
	assert.Equal(t, 10.0, updated.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, "u1", tx.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u1", tx.ID), domain.ErrNotFound)
}

func TestStore_UpsertForecastMerges(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	s := NewStoreWithClock(func() time.Time { return clock })

	_, err := s.GetForecast(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpsertForecast(ctx, &domain.Prediction{UID: "u1", Forecast: domain.MonthlyForecast{"2026-11": 100}, Method: domain.ForecastMethod})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	second, err := s.UpsertForecast(ctx, &domain.Prediction{UID: "u1", Forecast: domain.MonthlyForecast{"2026-12": 200}, Method: domain.ForecastMethod})
	require.NoError(t, err)

	got, err := s.GetForecast(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.Equal(t, domain.MonthlyForecast{"2026-12": 200}, got.Forecast)
	assert.Equal(t, clock, got.GeneratedAt)
	assert.Len(t, s.predictions, 1)
}

func TestStore_Categories(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	cats, err := s.GetCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories, cats)

	require.NoError(t, s.SaveCategories(ctx, "u1", []string{"Food", "Pets"}))
	cats, err = s.GetCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Pets"}, cats)

	assert.ErrorIs(t, s.SaveCategories(ctx, "u1", nil), domain.ErrLastCategory)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateTransaction(ctx, &domain.Transaction{UID: "u1", Note: fmt.Sprintf("tx %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := s.ListTransactions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestStore_Liabilities(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	s := NewStoreWithClock(func() time.Time { return created })
	due := func(day int) civil.Date { return civil.Date{Year: 2026, Month: time.October, Day: day} }

	for _, day := range []int{20, 5, 12} {
		_, err := s.CreateLiability(ctx, &domain.Liability{UID: "u1", Description: "bill", DueDate: due(day)})
		require.NoError(t, err)
	}
	other, err := s.CreateLiability(ctx, &domain.Liability{UID: "u2", Description: "rent", DueDate: due(1)})
	require.NoError(t, err)
	assert.Equal(t, created, other.CreatedAt)
	assert.NotEmpty(t, other.ID)

	list, err := s.ListLiabilities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{5, 12, 20}, []int{list[0].DueDate.Day, list[1].DueDate.Day, list[2].DueDate.Day})

	tests := []struct {
		name string
		uid  string
		id   string
	}{
		{name: "foreign owner", uid: "u1", id: other.ID},
		{name: "unknown id", uid: "u2", id: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpdateLiability(ctx, tt.uid, tt.id, domain.LiabilityUpdate{IsPaid: domain.BoolPtr(true)})
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, s.DeleteLiability(ctx, tt.uid, tt.id), domain.ErrNotFound)
		})
	}

	updated, err := s.UpdateLiability(ctx, "u2", other.ID, domain.LiabilityUpdate{IsPaid: domain.BoolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, "rent", updated.Description)

	updated.Description = "mutated"
	again, err := s.ListLiabilities(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "rent", again[0].Description, "returned records are copies")

	require.NoError(t, s.DeleteLiability(ctx, "u2", other.ID))
	empty, err := s.ListLiabilities(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = s.CreateLiability(ctx, &domain.Liability{Description: "orphan"})
	assert.Error(t, err)
}
