package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

// Store is an in-memory implementation of store.Store.
// It is safe for concurrent use. Data is lost on restart - for persistence, use the
// BigQuery or SQLite backend.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	predictions  map[string]*domain.Prediction
	categories   map[string][]string
	liabilities  map[string]*domain.Liability
	now          func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates a store whose server timestamps come from now.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		transactions: make(map[string]*domain.Transaction),
		predictions:  make(map[string]*domain.Prediction),
		categories:   make(map[string][]string),
		liabilities:  make(map[string]*domain.Liability),
		now:          now,
	}
}

// CreateTransaction implements the TransactionStore interface.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.UID == "" {
		return nil, fmt.Errorf("CreateTransaction: uid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid external modifications
	txCopy := copyTransaction(tx)
	if txCopy.ID == "" {
		txCopy.ID = uuid.New().String()
	}
	if txCopy.CreatedAt.IsZero() {
		txCopy.CreatedAt = s.now().UTC()
	}
	s.transactions[txCopy.ID] = txCopy

	return copyTransaction(txCopy), nil
}

// ListTransactions implements the TransactionStore interface.
func (s *Store) ListTransactions(ctx context.Context, uid string, limit int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.UID != uid {
			continue
		}
		result = append(result, copyTransaction(tx))
	}

	sort.Slice(result, func(i, j int) bool {
		di, dj := result[i].EffectiveDate(), result[j].EffectiveDate()
		if di != dj {
			return di.After(dj)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// UpdateTransaction implements the TransactionStore interface.
func (s *Store) UpdateTransaction(ctx context.Context, uid, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactions[id]
	if !exists || tx.UID != uid {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	upd.Apply(tx)
	return copyTransaction(tx), nil
}

// DeleteTransaction implements the TransactionStore interface.
func (s *Store) DeleteTransaction(ctx context.Context, uid, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactions[id]
	if !exists || tx.UID != uid {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

// UpsertForecast implements the ForecastStore interface.
func (s *Store) UpsertForecast(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error) {
	if p.UID == "" {
		return nil, fmt.Errorf("UpsertForecast: uid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.predictions[p.UID]
	if !exists {
		doc = &domain.Prediction{UID: p.UID}
		s.predictions[p.UID] = doc
	}
	doc.GeneratedAt = s.now().UTC()
	doc.Forecast = copyForecast(p.Forecast)
	doc.Method = p.Method

	return copyPrediction(doc), nil
}

// GetForecast implements the ForecastStore interface.
func (s *Store) GetForecast(ctx context.Context, uid string) (*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.predictions[uid]
	if !exists {
		return nil, fmt.Errorf("prediction %s: %w", uid, domain.ErrNotFound)
	}
	return copyPrediction(doc), nil
}

// GetCategories implements the SettingsStore interface.
func (s *Store) GetCategories(ctx context.Context, uid string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cats, ok := s.categories[uid]; ok {
		return append([]string(nil), cats...), nil
	}
	return append([]string(nil), domain.DefaultCategories...), nil
}

// SaveCategories implements the SettingsStore interface.
func (s *Store) SaveCategories(ctx context.Context, uid string, categories []string) error {
	if len(categories) == 0 {
		return domain.ErrLastCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[uid] = append([]string(nil), categories...)
	return nil
}

// CreateLiability implements the LiabilityStore interface.
func (s *Store) CreateLiability(ctx context.Context, l *domain.Liability) (*domain.Liability, error) {
	if l.UID == "" {
		return nil, fmt.Errorf("CreateLiability: uid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *l
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.liabilities[c.ID] = &c

	out := c
	return &out, nil
}

// ListLiabilities implements the LiabilityStore interface.
func (s *Store) ListLiabilities(ctx context.Context, uid string) ([]*domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Liability{}
	for _, l := range s.liabilities {
		if l.UID != uid {
			continue
		}
		c := *l
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate != result[j].DueDate {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateLiability implements the LiabilityStore interface.
func (s *Store) UpdateLiability(ctx context.Context, uid, id string, upd domain.LiabilityUpdate) (*domain.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, exists := s.liabilities[id]
	if !exists || l.UID != uid {
		return nil, fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	upd.Apply(l)
	c := *l
	return &c, nil
}

// DeleteLiability implements the LiabilityStore interface.
func (s *Store) DeleteLiability(ctx context.Context, uid, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, exists := s.liabilities[id]
	if !exists || l.UID != uid {
		return fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	delete(s.liabilities, id)
	return nil
}

// Close implements the Store interface. It is a no-op.
func (s *Store) Close() error { return nil }

func copyTransaction(tx *domain.Transaction) *domain.Transaction {
	c := *tx
	if tx.Merchant != nil {
		m := *tx.Merchant
		c.Merchant = &m
	}
	return &c
}

func copyPrediction(p *domain.Prediction) *domain.Prediction {
	c := *p
	c.Forecast = copyForecast(p.Forecast)
	return &c
}

func copyForecast(f domain.MonthlyForecast) domain.MonthlyForecast {
	out := make(domain.MonthlyForecast, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Ensure Store implements the Store interface.
var _ store.Store = (*Store)(nil)
