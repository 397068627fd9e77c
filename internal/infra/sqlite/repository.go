// Package sqlite implements the store interfaces on a local SQLite file, for
// single-node deployments and development without GCP credentials.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const transactionColumns = `id, user_id, amount, currency, category, merchant, note,
	transaction_date, source, receipt_url, created_at`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository opens (creating if needed) the database at dbPath and migrates it.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.UID == "" {
		return nil, errors.New("CreateTransaction: uid is required")
	}

	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	stored.CreatedAt = stored.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID,
		stored.UID,
		decimal.NewFromFloat(stored.Amount).String(),
		stored.Currency,
		stored.Category,
		nullableString(stored.Merchant),
		stored.Note,
		nullableDate(stored.Date),
		stored.Source,
		nullableString(&stored.ReceiptURL),
		stored.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: insert: %w", err)
	}
	return &stored, nil
}

// ListTransactions orders by transaction date, falling back to the UTC creation day.
func (r *Repository) ListTransactions(ctx context.Context, uid string, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY COALESCE(transaction_date, substr(created_at, 1, 10)) DESC, created_at DESC`
	args := []any{uid}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query: %w", err)
	}
	defer rows.Close()

	result := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: rows: %w", err)
	}
	return result, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, uid, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: begin: %w", err)
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, uid)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	upd.Apply(tx)

	_, err = dbTx.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, currency = ?, category = ?, merchant = ?, note = ?,
			transaction_date = ?, receipt_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		decimal.NewFromFloat(tx.Amount).String(),
		tx.Currency,
		tx.Category,
		nullableString(tx.Merchant),
		tx.Note,
		nullableDate(tx.Date),
		nullableString(&tx.ReceiptURL),
		r.now().UTC().Format(timeLayout),
		id, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: update: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: commit: %w", err)
	}
	return tx, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, uid, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, uid)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTransaction: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) UpsertForecast(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error) {
	if p.UID == "" {
		return nil, errors.New("UpsertForecast: uid is required")
	}

	forecast := p.Forecast
	if forecast == nil {
		forecast = domain.MonthlyForecast{}
	}
	payload, err := json.Marshal(forecast)
	if err != nil {
		return nil, fmt.Errorf("UpsertForecast: marshal forecast: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO predictions (user_id, generated_at, forecast_json, method)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			generated_at = excluded.generated_at,
			forecast_json = excluded.forecast_json,
			method = excluded.method`,
		p.UID, r.now().UTC().Format(timeLayout), string(payload), p.Method)
	if err != nil {
		return nil, fmt.Errorf("UpsertForecast: %w", err)
	}

	return r.GetForecast(ctx, p.UID)
}

func (r *Repository) GetForecast(ctx context.Context, uid string) (*domain.Prediction, error) {
	var generatedAt, payload, method string
	err := r.db.QueryRowContext(ctx, `
		SELECT generated_at, forecast_json, method
		FROM predictions
		WHERE user_id = ?`, uid).Scan(&generatedAt, &payload, &method)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prediction %s: %w", uid, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetForecast: %w", err)
	}

	at, err := time.Parse(timeLayout, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("GetForecast: parse generated_at: %w", err)
	}
	forecast := domain.MonthlyForecast{}
	if err := json.Unmarshal([]byte(payload), &forecast); err != nil {
		return nil, fmt.Errorf("GetForecast: decode forecast: %w", err)
	}

	return &domain.Prediction{UID: uid, GeneratedAt: at, Forecast: forecast, Method: method}, nil
}

func (r *Repository) GetCategories(ctx context.Context, uid string) ([]string, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT categories_json FROM user_settings WHERE user_id = ?`, uid).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return append([]string(nil), domain.DefaultCategories...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCategories: %w", err)
	}

	var categories []string
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return nil, fmt.Errorf("GetCategories: decode: %w", err)
	}
	if len(categories) == 0 {
		return append([]string(nil), domain.DefaultCategories...), nil
	}
	return categories, nil
}

func (r *Repository) SaveCategories(ctx context.Context, uid string, categories []string) error {
	if len(categories) == 0 {
		return domain.ErrLastCategory
	}

	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("SaveCategories: marshal: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, categories_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			categories_json = excluded.categories_json,
			updated_at = excluded.updated_at`,
		uid, string(payload), r.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("SaveCategories: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (*domain.Transaction, error) {
	var (
		tx         domain.Transaction
		amount     decimal.Decimal
		merchant   sql.NullString
		date       sql.NullString
		receiptURL sql.NullString
		createdAt  string
	)
	if err := s.Scan(&tx.ID, &tx.UID, &amount, &tx.Currency, &tx.Category, &merchant, &tx.Note,
		&date, &tx.Source, &receiptURL, &createdAt); err != nil {
		return nil, err
	}

	tx.Amount = amount.InexactFloat64()
	if merchant.Valid {
		m := merchant.String
		tx.Merchant = &m
	}
	if date.Valid && date.String != "" {
		d, err := civil.ParseDate(date.String)
		if err != nil {
			return nil, fmt.Errorf("parse transaction_date %q: %w", date.String, err)
		}
		tx.Date = d
	}
	tx.ReceiptURL = receiptURL.String

	at, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	tx.CreatedAt = at

	return &tx, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableDate(d civil.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

var _ store.Store = (*Repository)(nil)
