package bigquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// UpsertForecastWithClient merges p into the single predictions row of p.UID.
// generated_at is set from the server clock.
func UpsertForecastWithClient(ctx context.Context, client *bigquery.Client, table string, p *domain.Prediction) (*domain.Prediction, error) {
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

	q := upsertForecastStmt(table, p.UID, string(payload), p.Method).query(client)
	if _, err := runDML(ctx, q); err != nil {
		return nil, fmt.Errorf("UpsertForecast: %w", err)
	}

	return GetForecastWithClient(ctx, client, table, p.UID)
}

// GetForecastWithClient returns the stored prediction for uid, or domain.ErrNotFound.
func GetForecastWithClient(ctx context.Context, client *bigquery.Client, table, uid string) (*domain.Prediction, error) {
	it, err := getForecastStmt(table, uid).query(client).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetForecast: query read: %w", err)
	}

	var row PredictionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("forecast for %s: %w", uid, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetForecast: iterator: %w", err)
	}

	return rowToPrediction(&row)
}
