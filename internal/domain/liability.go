package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// LiabilityCategories is the built-in vocabulary for upcoming payments.
var LiabilityCategories = []string{
	"Credit Card Payment",
	"Loan Payment",
	"Mortgage Payment",
	"Utility Bill",
	"Insurance Premium",
	"Subscription",
	"Tax Payment",
	"Rent",
	SentinelCategory,
}

// ErrInvalidLiability is returned for liabilities missing a description or due date, or
// carrying an unusable amount.
var ErrInvalidLiability = errors.New("invalid liability")

// LiabilityStatus is the derived state of a liability on a given day.
type LiabilityStatus string

const (
	LiabilityPending LiabilityStatus = "pending"
	LiabilityPaid    LiabilityStatus = "paid"
	LiabilityOverdue LiabilityStatus = "overdue"
)

// Liability is an upcoming payment owned by one user.
type Liability struct {
	ID          string     `json:"id"`
	UID         string     `json:"uid"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Category    string     `json:"category"`
	DueDate     civil.Date `json:"due_date"`
	Note        string     `json:"note"`
	IsPaid      bool       `json:"is_paid"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Normalize validates l and fills defaults: upper-case currency falling back to
// homeCurrency, and a category canonicalized against LiabilityCategories.
func (l *Liability) Normalize(homeCurrency string) error {
	l.Description = strings.TrimSpace(l.Description)
	if l.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidLiability)
	}
	if l.DueDate.IsZero() || !l.DueDate.IsValid() {
		return fmt.Errorf("%w: due date is required", ErrInvalidLiability)
	}
	if math.IsNaN(l.Amount) || math.IsInf(l.Amount, 0) || l.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidLiability)
	}

	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	if l.Currency == "" {
		l.Currency = strings.ToUpper(homeCurrency)
	}
	l.Category = CanonicalCategory(LiabilityCategories, l.Category)
	l.Note = strings.TrimSpace(l.Note)
	return nil
}

// Overdue reports whether l is unpaid and was due before today.
func (l *Liability) Overdue(today civil.Date) bool {
	return !l.IsPaid && l.DueDate.Before(today)
}

// DaysUntilDue is the number of days from today to the due date; negative once overdue.
func (l *Liability) DaysUntilDue(today civil.Date) int {
	return l.DueDate.DaysSince(today)
}

// Status derives the liability state on today.
func (l *Liability) Status(today civil.Date) LiabilityStatus {
	switch {
	case l.IsPaid:
		return LiabilityPaid
	case l.Overdue(today):
		return LiabilityOverdue
	default:
		return LiabilityPending
	}
}

// LiabilityFilter selects liabilities by status. The zero value keeps everything.
type LiabilityFilter string

// FilterAll keeps every liability.
const FilterAll LiabilityFilter = "all"

// ParseLiabilityFilter maps a query value to a filter. Empty means all.
func ParseLiabilityFilter(s string) (LiabilityFilter, error) {
	switch f := LiabilityFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case LiabilityFilter(LiabilityPending), LiabilityFilter(LiabilityPaid), LiabilityFilter(LiabilityOverdue):
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidLiability, s)
	}
}

// FilterLiabilities returns the liabilities matching f on today, unpaid first and then
// by due date, earliest first. The input slice is not modified.
func FilterLiabilities(list []*Liability, f LiabilityFilter, today civil.Date) []*Liability {
	out := make([]*Liability, 0, len(list))
	for _, l := range list {
		if f == "" || f == FilterAll || LiabilityFilter(l.Status(today)) == f {
			out = append(out, l)
		}
	}
	SortLiabilities(out)
	return out
}

// SortLiabilities orders unpaid before paid, then by due date, then by creation time.
func SortLiabilities(list []*Liability) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.IsPaid != b.IsPaid {
			return !a.IsPaid
		}
		if a.DueDate != b.DueDate {
			return a.DueDate.Before(b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// LiabilityUpdate is a partial update; nil fields are left untouched.
type LiabilityUpdate struct {
	Description *string     `json:"description,omitempty"`
	Amount      *float64    `json:"amount,omitempty"`
	Currency    *string     `json:"currency,omitempty"`
	Category    *string     `json:"category,omitempty"`
	DueDate     *civil.Date `json:"due_date,omitempty"`
	Note        *string     `json:"note,omitempty"`
	IsPaid      *bool       `json:"is_paid,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u LiabilityUpdate) Empty() bool {
	return u.Description == nil && u.Amount == nil && u.Currency == nil && u.Category == nil &&
		u.DueDate == nil && u.Note == nil && u.IsPaid == nil
}

// Normalize validates the set fields of u the way Liability.Normalize validates a full
// record. A currency set to blank is rejected rather than defaulted.
func (u *LiabilityUpdate) Normalize() error {
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		if d == "" {
			return fmt.Errorf("%w: description is required", ErrInvalidLiability)
		}
		u.Description = &d
	}
	if u.Amount != nil {
		a := *u.Amount
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidLiability)
		}
	}
	if u.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*u.Currency))
		if c == "" {
			return fmt.Errorf("%w: currency must not be blank", ErrInvalidLiability)
		}
		u.Currency = &c
	}
	if u.Category != nil {
		c := CanonicalCategory(LiabilityCategories, *u.Category)
		u.Category = &c
	}
	if u.DueDate != nil && (u.DueDate.IsZero() || !u.DueDate.IsValid()) {
		return fmt.Errorf("%w: due date is required", ErrInvalidLiability)
	}
	if u.Note != nil {
		n := strings.TrimSpace(*u.Note)
		u.Note = &n
	}
	return nil
}

// Apply writes the non-nil fields of u onto l.
func (u LiabilityUpdate) Apply(l *Liability) {
	if u.Description != nil {
		l.Description = *u.Description
	}
	if u.Amount != nil {
		l.Amount = *u.Amount
	}
	if u.Currency != nil {
		l.Currency = *u.Currency
	}
	if u.Category != nil {
		l.Category = *u.Category
	}
	if u.DueDate != nil {
		l.DueDate = *u.DueDate
	}
	if u.Note != nil {
		l.Note = *u.Note
	}
	if u.IsPaid != nil {
		l.IsPaid = *u.IsPaid
	}
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
