package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	CategoryName string              `bigquery:"category_name"` // REQUIRED
	Merchant     bigquery.NullString `bigquery:"merchant"`      // NULLABLE
	Note         string              `bigquery:"note"`          // REQUIRED (may be empty)

	TransactionDate bigquery.NullDate   `bigquery:"transaction_date"` // NULLABLE
	Source          string              `bigquery:"source"`           // REQUIRED
	ReceiptURL      bigquery.NullString `bigquery:"receipt_url"`      // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

type PredictionRow struct {
	UserID       string    `bigquery:"user_id"`       // REQUIRED, one row per user
	GeneratedAt  time.Time `bigquery:"generated_at"`  // REQUIRED, server timestamp
	ForecastJSON string    `bigquery:"forecast_json"` // REQUIRED, {"YYYY-MM": total}
	Method       string    `bigquery:"method"`        // REQUIRED
}

type UserSettingsRow struct {
	UserID     string                 `bigquery:"user_id"`    // REQUIRED
	Categories []string               `bigquery:"categories"` // REPEATED STRING
	UpdatedTS  bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

type LiabilityRow struct {
	LiabilityID string `bigquery:"liability_id"` // REQUIRED
	UserID      string `bigquery:"user_id"`      // REQUIRED
	Description string `bigquery:"description"`  // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	CategoryName string     `bigquery:"category_name"` // REQUIRED
	DueDate      civil.Date `bigquery:"due_date"`      // REQUIRED DATE
	Note         string     `bigquery:"note"`          // REQUIRED (may be empty)
	IsPaid       bool       `bigquery:"is_paid"`       // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func transactionToRow(tx *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: tx.ID,
		UserID:        tx.UID,
		Amount:        decimal.NewFromFloat(tx.Amount).Rat(),
		Currency:      tx.Currency,
		CategoryName:  tx.Category,
		Note:          tx.Note,
		Source:        tx.Source,
		CreatedTS:     tx.CreatedAt,
	}
	if tx.Merchant != nil {
		row.Merchant = bigquery.NullString{StringVal: *tx.Merchant, Valid: true}
	}
	if !tx.Date.IsZero() {
		row.TransactionDate = bigquery.NullDate{Date: tx.Date, Valid: true}
	}
	if tx.ReceiptURL != "" {
		row.ReceiptURL = bigquery.NullString{StringVal: tx.ReceiptURL, Valid: true}
	}
	return row
}

func rowToTransaction(row *TransactionRow) *domain.Transaction {
	tx := &domain.Transaction{
		ID:        row.TransactionID,
		UID:       row.UserID,
		Currency:  row.Currency,
		Category:  row.CategoryName,
		Note:      row.Note,
		Source:    row.Source,
		CreatedAt: row.CreatedTS,
	}
	if row.Amount != nil {
		tx.Amount, _ = row.Amount.Float64()
	}
	if row.Merchant.Valid {
		m := row.Merchant.StringVal
		tx.Merchant = &m
	}
	if row.TransactionDate.Valid {
		tx.Date = row.TransactionDate.Date
	}
	if row.ReceiptURL.Valid {
		tx.ReceiptURL = row.ReceiptURL.StringVal
	}
	return tx
}

func liabilityToRow(l *domain.Liability) *LiabilityRow {
	return &LiabilityRow{
		LiabilityID:  l.ID,
		UserID:       l.UID,
		Description:  l.Description,
		Amount:       decimal.NewFromFloat(l.Amount).Rat(),
		Currency:     l.Currency,
		CategoryName: l.Category,
		DueDate:      l.DueDate,
		Note:         l.Note,
		IsPaid:       l.IsPaid,
		CreatedTS:    l.CreatedAt,
	}
}

func rowToLiability(row *LiabilityRow) *domain.Liability {
	l := &domain.Liability{
		ID:          row.LiabilityID,
		UID:         row.UserID,
		Description: row.Description,
		Currency:    row.Currency,
		Category:    row.CategoryName,
		DueDate:     row.DueDate,
		Note:        row.Note,
		IsPaid:      row.IsPaid,
		CreatedAt:   row.CreatedTS,
	}
	if row.Amount != nil {
		l.Amount, _ = row.Amount.Float64()
	}
	return l
}

func rowToPrediction(row *PredictionRow) (*domain.Prediction, error) {
	forecast := domain.MonthlyForecast{}
	if row.ForecastJSON != "" {
		if err := json.Unmarshal([]byte(row.ForecastJSON), &forecast); err != nil {
			return nil, fmt.Errorf("decode forecast_json for %s: %w", row.UserID, err)
		}
	}
	return &domain.Prediction{
		UID:         row.UserID,
		GeneratedAt: row.GeneratedAt,
		Forecast:    forecast,
		Method:      row.Method,
	}, nil
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil || d.IsZero() {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func nullString(s *string) bigquery.NullString {
	if s == nil || *s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}
