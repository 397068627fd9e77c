package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

const liabilityColumns = `id, user_id, description, amount, currency, category, due_date,
	note, is_paid, created_at`

func (r *Repository) CreateLiability(ctx context.Context, l *domain.Liability) (*domain.Liability, error) {
	if l.UID == "" {
		return nil, errors.New("CreateLiability: uid is required")
	}

	stored := *l
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	stored.CreatedAt = stored.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO liabilities (`+liabilityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID,
		stored.UID,
		stored.Description,
		decimal.NewFromFloat(stored.Amount).String(),
		stored.Currency,
		stored.Category,
		stored.DueDate.String(),
		stored.Note,
		stored.IsPaid,
		stored.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("CreateLiability: insert: %w", err)
	}
	return &stored, nil
}

func (r *Repository) ListLiabilities(ctx context.Context, uid string) ([]*domain.Liability, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+liabilityColumns+`
		FROM liabilities
		WHERE user_id = ?
		ORDER BY due_date ASC, created_at ASC`, uid)
	if err != nil {
		return nil, fmt.Errorf("ListLiabilities: query: %w", err)
	}
	defer rows.Close()

	result := []*domain.Liability{}
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("ListLiabilities: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLiabilities: rows: %w", err)
	}
	return result, nil
}

func (r *Repository) UpdateLiability(ctx context.Context, uid, id string, upd domain.LiabilityUpdate) (*domain.Liability, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpdateLiability: begin: %w", err)
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx, `
		SELECT `+liabilityColumns+`
		FROM liabilities
		WHERE id = ? AND user_id = ?`, id, uid)
	l, err := scanLiability(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateLiability: %w", err)
	}

	upd.Apply(l)

	_, err = dbTx.ExecContext(ctx, `
		UPDATE liabilities
		SET description = ?, amount = ?, currency = ?, category = ?, due_date = ?,
			note = ?, is_paid = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		l.Description,
		decimal.NewFromFloat(l.Amount).String(),
		l.Currency,
		l.Category,
		l.DueDate.String(),
		l.Note,
		l.IsPaid,
		r.now().UTC().Format(timeLayout),
		id, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("UpdateLiability: update: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("UpdateLiability: commit: %w", err)
	}
	return l, nil
}

func (r *Repository) DeleteLiability(ctx context.Context, uid, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM liabilities WHERE id = ? AND user_id = ?`, id, uid)
	if err != nil {
		return fmt.Errorf("DeleteLiability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteLiability: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanLiability(s rowScanner) (*domain.Liability, error) {
	var (
		l         domain.Liability
		amount    decimal.Decimal
		dueDate   string
		createdAt string
	)
	if err := s.Scan(&l.ID, &l.UID, &l.Description, &amount, &l.Currency, &l.Category, &dueDate,
		&l.Note, &l.IsPaid, &createdAt); err != nil {
		return nil, err
	}

	l.Amount = amount.InexactFloat64()
	d, err := civil.ParseDate(dueDate)
	if err != nil {
		return nil, fmt.Errorf("parse due_date %q: %w", dueDate, err)
	}
	l.DueDate = d

	at, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	l.CreatedAt = at

	return &l, nil
}
