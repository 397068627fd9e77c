package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// GetCategoriesWithClient returns the saved vocabulary of uid, or the defaults.
func GetCategoriesWithClient(ctx context.Context, client *bigquery.Client, table, uid string) ([]string, error) {
	it, err := getCategoriesStmt(table, uid).query(client).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetCategories: query read: %w", err)
	}

	var row UserSettingsRow
	err = it.Next(&row)
	if err == iterator.Done {
		return append([]string(nil), domain.DefaultCategories...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCategories: iterator: %w", err)
	}
	if len(row.Categories) == 0 {
		return append([]string(nil), domain.DefaultCategories...), nil
	}
	return row.Categories, nil
}

// SaveCategoriesWithClient replaces the vocabulary of uid.
func SaveCategoriesWithClient(ctx context.Context, client *bigquery.Client, table, uid string, categories []string) error {
	if len(categories) == 0 {
		return domain.ErrLastCategory
	}

	q := saveCategoriesStmt(table, uid, categories).query(client)
	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveCategories: %w", err)
	}
	return nil
}
