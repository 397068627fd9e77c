// Package store defines the persistence interfaces shared by the memory, BigQuery and
// SQLite backends. Every operation is scoped to the owning user id.
package store

import (
	"context"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// TransactionStore persists a user's transactions.
type TransactionStore interface {
	// CreateTransaction stores tx, assigning ID and CreatedAt when unset, and returns the
	// stored record.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	// ListTransactions returns up to limit transactions of uid, newest date first.
	// A limit <= 0 means no limit.
	ListTransactions(ctx context.Context, uid string, limit int) ([]*domain.Transaction, error)
	// UpdateTransaction applies upd to the transaction id owned by uid.
	// Returns domain.ErrNotFound when no such transaction exists for uid.
	UpdateTransaction(ctx context.Context, uid, id string, upd domain.TransactionUpdate) (*domain.Transaction, error)
	// DeleteTransaction removes the transaction id owned by uid.
	// Returns domain.ErrNotFound when no such transaction exists for uid.
	DeleteTransaction(ctx context.Context, uid, id string) error
}

// ForecastStore persists one prediction document per user.
type ForecastStore interface {
	// UpsertForecast merges p into the document keyed by p.UID. The store assigns
	// GeneratedAt; forecast and method are overwritten.
	UpsertForecast(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error)
	// GetForecast returns the stored prediction, or domain.ErrNotFound.
	GetForecast(ctx context.Context, uid string) (*domain.Prediction, error)
}

// SettingsStore persists per-user settings.
type SettingsStore interface {
	// GetCategories returns the user's category vocabulary, or the defaults when the
	// user never saved one.
	GetCategories(ctx context.Context, uid string) ([]string, error)
	SaveCategories(ctx context.Context, uid string, categories []string) error
}

// LiabilityStore persists a user's upcoming payments.
type LiabilityStore interface {
	// CreateLiability stores l, assigning ID and CreatedAt when unset.
	CreateLiability(ctx context.Context, l *domain.Liability) (*domain.Liability, error)
	// ListLiabilities returns every liability of uid ordered by due date, earliest first.
	ListLiabilities(ctx context.Context, uid string) ([]*domain.Liability, error)
	// UpdateLiability applies upd to the liability id owned by uid.
	// Returns domain.ErrNotFound when no such liability exists for uid.
	UpdateLiability(ctx context.Context, uid, id string, upd domain.LiabilityUpdate) (*domain.Liability, error)
	// DeleteLiability removes the liability id owned by uid.
	// Returns domain.ErrNotFound when no such liability exists for uid.
	DeleteLiability(ctx context.Context, uid, id string) error
}

// Store is the full persistence surface used by the API server.
type Store interface {
	TransactionStore
	ForecastStore
	SettingsStore
	LiabilityStore
	Close() error
}
