// Package aggregate computes monthly totals and dashboard summaries from transactions.
// Sums are accumulated in decimal to avoid float drift across many small amounts.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// MonthKey formats a date as YYYY-MM.
func MonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// MonthlyTotals sums amounts per YYYY-MM of each transaction's effective date.
// Transactions with neither a date nor a creation time are skipped.
func MonthlyTotals(txs []*domain.Transaction) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		d := tx.EffectiveDate()
		if d.IsZero() {
			continue
		}
		key := MonthKey(d)
		sums[key] = sums[key].Add(decimal.NewFromFloat(tx.Amount))
	}

	out := make(map[string]float64, len(sums))
	for k, v := range sums {
		out[k] = v.InexactFloat64()
	}
	return out
}

// Period selects the dashboard window.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod maps a query value to a Period; anything unknown yields PeriodMonth.
func ParsePeriod(s string) Period {
	if strings.EqualFold(strings.TrimSpace(s), string(PeriodYear)) {
		return PeriodYear
	}
	return PeriodMonth
}

// CategoryShare is one slice of the category breakdown.
type CategoryShare struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// Summary is the dashboard view of one period.
type Summary struct {
	Period     Period          `json:"period"`
	Total      float64         `json:"total"`
	TodayTotal float64         `json:"today_total"`
	Count      int             `json:"count"`
	ByCategory []CategoryShare `json:"by_category"`
}

// Summarize totals the transactions falling in the current month or year of now.
// Categories are ordered by amount, largest first; percentages are rounded to one decimal.
func Summarize(txs []*domain.Transaction, period Period, now time.Time) Summary {
	today := civil.DateOf(now)
	s := Summary{Period: period, ByCategory: []CategoryShare{}}

	total := decimal.Zero
	todayTotal := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		if tx == nil {
			continue
		}
		d := tx.EffectiveDate()
		if d.IsZero() || !inPeriod(d, today, period) {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)
		total = total.Add(amount)
		if d == today {
			todayTotal = todayTotal.Add(amount)
		}
		category := tx.Category
		if category == "" {
			category = domain.SentinelCategory
		}
		byCategory[category] = byCategory[category].Add(amount)
		s.Count++
	}

	for category, amount := range byCategory {
		share := CategoryShare{Category: category, Amount: amount.InexactFloat64()}
		if !total.IsZero() {
			share.Percent = amount.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		s.ByCategory = append(s.ByCategory, share)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount != s.ByCategory[j].Amount {
			return s.ByCategory[i].Amount > s.ByCategory[j].Amount
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	s.Total = total.InexactFloat64()
	s.TodayTotal = todayTotal.InexactFloat64()
	return s
}

func inPeriod(d, today civil.Date, period Period) bool {
	if d.Year != today.Year {
		return false
	}
	return period == PeriodYear || d.Month == today.Month
}

// LiabilitySummary totals the outstanding liabilities.
type LiabilitySummary struct {
	TotalPending float64 `json:"total_pending"`
	Count        int     `json:"count"`
	OverdueCount int     `json:"overdue_count"`
}

// SummarizeLiabilities sums unpaid amounts and counts overdue entries as of today.
// Count covers every liability given, paid or not.
func SummarizeLiabilities(list []*domain.Liability, today civil.Date) LiabilitySummary {
	var s LiabilitySummary
	pending := decimal.Zero
	for _, l := range list {
		if l == nil {
			continue
		}
		s.Count++
		if l.IsPaid {
			continue
		}
		pending = pending.Add(decimal.NewFromFloat(l.Amount))
		if l.Overdue(today) {
			s.OverdueCount++
		}
	}
	s.TotalPending = pending.InexactFloat64()
	return s
}
