package domain

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
)

// ErrNotFound is returned by stores when a record does not exist for the given owner.
var ErrNotFound = errors.New("not found")

// Transaction sources.
const (
	SourceVoice  = "voice"
	SourceManual = "manual"
)

// Transaction is a persisted expense owned by one user. Amounts are non-negative spend.
type Transaction struct {
	ID         string     `json:"id"`
	UID        string     `json:"uid"`
	Amount     float64    `json:"amount"`
	Currency   string     `json:"currency"`
	Category   string     `json:"category"`
	Merchant   *string    `json:"merchant"`
	Note       string     `json:"note"`
	Date       civil.Date `json:"date"`
	Source     string     `json:"source,omitempty"`
	ReceiptURL string     `json:"receipt_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TransactionFromExpense builds a voice transaction from a confirmed expense record.
// Missing amounts are stored as zero, as the confirmation screen does.
func TransactionFromExpense(uid string, e Expense) *Transaction {
	tx := &Transaction{
		UID:      uid,
		Currency: e.Currency,
		Category: e.Category,
		Merchant: e.Merchant,
		Note:     e.Note,
		Date:     e.Date,
		Source:   SourceVoice,
	}
	if e.Amount != nil {
		tx.Amount = *e.Amount
	}
	if tx.Category == "" {
		tx.Category = SentinelCategory
	}
	return tx
}

// TransactionUpdate is a partial update; nil fields are left untouched.
type TransactionUpdate struct {
	Amount     *float64    `json:"amount,omitempty"`
	Currency   *string     `json:"currency,omitempty"`
	Category   *string     `json:"category,omitempty"`
	Merchant   *string     `json:"merchant,omitempty"`
	Note       *string     `json:"note,omitempty"`
	Date       *civil.Date `json:"date,omitempty"`
	ReceiptURL *string     `json:"receipt_url,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u TransactionUpdate) Empty() bool {
	return u.Amount == nil && u.Currency == nil && u.Category == nil && u.Merchant == nil &&
		u.Note == nil && u.Date == nil && u.ReceiptURL == nil
}

// Apply writes the non-nil fields of u onto tx.
func (u TransactionUpdate) Apply(tx *Transaction) {
	if u.Amount != nil {
		tx.Amount = *u.Amount
	}
	if u.Currency != nil {
		tx.Currency = *u.Currency
	}
	if u.Category != nil {
		tx.Category = *u.Category
	}
	if u.Merchant != nil {
		m := *u.Merchant
		tx.Merchant = &m
	}
	if u.Note != nil {
		tx.Note = *u.Note
	}
	if u.Date != nil {
		tx.Date = *u.Date
	}
	if u.ReceiptURL != nil {
		tx.ReceiptURL = *u.ReceiptURL
	}
}

// EffectiveDate is the calendar date used for aggregation: the transaction date, or the
// creation day when no date was recorded.
func (t *Transaction) EffectiveDate() civil.Date {
	if !t.Date.IsZero() {
		return t.Date
	}
	if !t.CreatedAt.IsZero() {
		return civil.DateOf(t.CreatedAt.UTC())
	}
	return civil.Date{}
}
