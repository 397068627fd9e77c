// Package bigquery implements the store interfaces on top of BigQuery tables
// transactions, predictions, user_settings and liabilities.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

const (
	transactionsTable = "transactions"
	predictionsTable  = "predictions"
	settingsTable     = "user_settings"
	liabilitiesTable  = "liabilities"
)

// Repository is a BigQuery-backed store.Store sharing one client.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a new Repository with a BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client. Close closes it.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the underlying BigQuery client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) table(name string) string {
	return tableRef(r.projectID, r.datasetID, name)
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	return CreateTransactionWithClient(ctx, r.client, r.table(transactionsTable), tx)
}

func (r *Repository) ListTransactions(ctx context.Context, uid string, limit int) ([]*domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.table(transactionsTable), uid, limit)
}

func (r *Repository) UpdateTransaction(ctx context.Context, uid, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	return UpdateTransactionWithClient(ctx, r.client, r.table(transactionsTable), uid, id, upd)
}

func (r *Repository) DeleteTransaction(ctx context.Context, uid, id string) error {
	return DeleteTransactionWithClient(ctx, r.client, r.table(transactionsTable), uid, id)
}

func (r *Repository) UpsertForecast(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error) {
	return UpsertForecastWithClient(ctx, r.client, r.table(predictionsTable), p)
}

func (r *Repository) GetForecast(ctx context.Context, uid string) (*domain.Prediction, error) {
	return GetForecastWithClient(ctx, r.client, r.table(predictionsTable), uid)
}

func (r *Repository) GetCategories(ctx context.Context, uid string) ([]string, error) {
	return GetCategoriesWithClient(ctx, r.client, r.table(settingsTable), uid)
}

func (r *Repository) SaveCategories(ctx context.Context, uid string, categories []string) error {
	return SaveCategoriesWithClient(ctx, r.client, r.table(settingsTable), uid, categories)
}

func (r *Repository) CreateLiability(ctx context.Context, l *domain.Liability) (*domain.Liability, error) {
	return CreateLiabilityWithClient(ctx, r.client, r.table(liabilitiesTable), l)
}

func (r *Repository) ListLiabilities(ctx context.Context, uid string) ([]*domain.Liability, error) {
	return ListLiabilitiesWithClient(ctx, r.client, r.table(liabilitiesTable), uid)
}

func (r *Repository) UpdateLiability(ctx context.Context, uid, id string, upd domain.LiabilityUpdate) (*domain.Liability, error) {
	return UpdateLiabilityWithClient(ctx, r.client, r.table(liabilitiesTable), uid, id, upd)
}

func (r *Repository) DeleteLiability(ctx context.Context, uid, id string) error {
	return DeleteLiabilityWithClient(ctx, r.client, r.table(liabilitiesTable), uid, id)
}

var _ store.Store = (*Repository)(nil)
