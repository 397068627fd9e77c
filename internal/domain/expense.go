package domain

import (
	"math"
	"strings"

	"cloud.google.com/go/civil"
)

// ParseFailure is the error text of the sentinel record returned when a model reply
// cannot be turned into an expense.
const ParseFailure = "Parse failure"

// Expense is the extracted expense record produced by both the local and the remote
// transcript parsers. A nil Amount means the amount could not be determined.
type Expense struct {
	Amount   *float64   `json:"amount"`
	Currency string     `json:"currency"`
	Category string     `json:"category"`
	Merchant *string    `json:"merchant"`
	Date     civil.Date `json:"date"`
	Note     string     `json:"note"`
}

// Defaults carries the values used to fill fields a parser could not resolve.
type Defaults struct {
	Currency   string
	Categories []string
	Today      civil.Date
	Transcript string
}

// Normalize enforces the record invariants on an expense built from untrusted input.
func (e Expense) Normalize(d Defaults) Expense {
	if e.Amount != nil {
		a := *e.Amount
		switch {
		case math.IsNaN(a) || math.IsInf(a, 0):
			e.Amount = nil
		case a < 0:
			a = -a
			e.Amount = &a
		}
	}

	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.Currency == "" {
		e.Currency = strings.ToUpper(d.Currency)
	}

	e.Category = CanonicalCategory(d.Categories, e.Category)

	if e.Merchant != nil {
		m := strings.TrimSpace(*e.Merchant)
		if m == "" {
			e.Merchant = nil
		} else {
			e.Merchant = &m
		}
	}

	if e.Date.IsZero() || !e.Date.IsValid() {
		e.Date = d.Today
	}

	if strings.TrimSpace(e.Note) == "" {
		e.Note = d.Transcript
	}

	return e
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
