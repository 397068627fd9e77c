package aggregate

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestMonthlyTotals(t *testing.T) {
	txs := []*domain.Transaction{
		{Amount: 0.1, Date: date(2026, 9, 1)},
		{Amount: 0.2, Date: date(2026, 9, 30)},
		{Amount: 1500, Date: date(2026, 10, 2)},
		{Amount: 250, CreatedAt: time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)},
		{Amount: 99},
		nil,
	}

	got := MonthlyTotals(txs)

	assert.Equal(t, map[string]float64{
		"2026-08": 250,
		"2026-09": 0.3,
		"2026-10": 1500,
	}, got)
}

func TestMonthlyTotals_Empty(t *testing.T) {
	assert.Empty(t, MonthlyTotals(nil))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-01", MonthKey(date(2026, 1, 15)))
	assert.Equal(t, "0999-12", MonthKey(date(999, 12, 1)))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, time.October, 14, 18, 0, 0, 0, time.UTC)
	txs := []*domain.Transaction{
		{Amount: 300, Category: "Food", Date: date(2026, 10, 14)},
		{Amount: 100, Category: "Transport", Date: date(2026, 10, 14)},
		{Amount: 600, Category: "Food", Date: date(2026, 10, 1)},
		{Amount: 1000, Category: "Bills", Date: date(2026, 3, 5)},
		{Amount: 5000, Category: "Bills", Date: date(2025, 10, 14)},
		{Amount: 20, Date: date(2026, 10, 3)},
	}

	t.Run("month", func(t *testing.T) {
		s := Summarize(txs, PeriodMonth, now)

		assert.Equal(t, PeriodMonth, s.Period)
		assert.Equal(t, 1020.0, s.Total)
		assert.Equal(t, 400.0, s.TodayTotal)
		assert.Equal(t, 4, s.Count)
		assert.Equal(t, []CategoryShare{
			{Category: "Food", Amount: 900, Percent: 88.2},
			{Category: "Transport", Amount: 100, Percent: 9.8},
			{Category: domain.SentinelCategory, Amount: 20, Percent: 2},
		}, s.ByCategory)
	})

	t.Run("year", func(t *testing.T) {
		s := Summarize(txs, PeriodYear, now)

		assert.Equal(t, 2020.0, s.Total)
		assert.Equal(t, 5, s.Count)
		assert.Equal(t, "Bills", s.ByCategory[0].Category)
		assert.Equal(t, 49.5, s.ByCategory[0].Percent)
	})

	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil, PeriodMonth, now)
		assert.Zero(t, s.Total)
		assert.NotNil(t, s.ByCategory)
		assert.Empty(t, s.ByCategory)
	})
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodYear, ParsePeriod("YEAR"))
	assert.Equal(t, PeriodMonth, ParsePeriod("month"))
	assert.Equal(t, PeriodMonth, ParsePeriod(""))
	assert.Equal(t, PeriodMonth, ParsePeriod("week"))
}

func TestSummarizeLiabilities(t *testing.T) {
	today := date(2026, time.October, 14)

	tests := []struct {
		name string
		list []*domain.Liability
		want LiabilitySummary
	}{
		{name: "empty", want: LiabilitySummary{}},
		{
			name: "paid excluded from pending",
			list: []*domain.Liability{
				{Amount: 0.1, DueDate: today},
				{Amount: 0.2, DueDate: today.AddDays(3)},
				{Amount: 500, DueDate: today.AddDays(-2), IsPaid: true},
			},
			want: LiabilitySummary{TotalPending: 0.3, Count: 3},
		},
		{
			name: "due today is not overdue",
			list: []*domain.Liability{
				{Amount: 100, DueDate: today.AddDays(-1)},
				{Amount: 50, DueDate: today},
				nil,
			},
			want: LiabilitySummary{TotalPending: 150, Count: 2, OverdueCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeLiabilities(tt.list, today))
		})
	}
}
