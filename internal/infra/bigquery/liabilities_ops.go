package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// CreateLiabilityWithClient inserts l with a DML statement.
func CreateLiabilityWithClient(ctx context.Context, client *bigquery.Client, table string, l *domain.Liability) (*domain.Liability, error) {
	if l.UID == "" {
		return nil, errors.New("CreateLiability: uid is required")
	}

	stored := *l
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	if _, err := runDML(ctx, insertLiabilityStmt(table, liabilityToRow(&stored)).query(client)); err != nil {
		return nil, fmt.Errorf("CreateLiability: %w", err)
	}
	return &stored, nil
}

// ListLiabilitiesWithClient returns the user's liabilities, earliest due date first.
func ListLiabilitiesWithClient(ctx context.Context, client *bigquery.Client, table, uid string) ([]*domain.Liability, error) {
	rows, err := readLiabilityRows(ctx, listLiabilitiesStmt(table, uid).query(client))
	if err != nil {
		return nil, fmt.Errorf("ListLiabilities: %w", err)
	}

	out := make([]*domain.Liability, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToLiability(row))
	}
	return out, nil
}

// GetLiabilityWithClient fetches a single liability owned by uid.
func GetLiabilityWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string) (*domain.Liability, error) {
	rows, err := readLiabilityRows(ctx, getLiabilityStmt(table, uid, id).query(client))
	if err != nil {
		return nil, fmt.Errorf("GetLiability: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	return rowToLiability(rows[0]), nil
}

// UpdateLiabilityWithClient applies upd to the liability and returns the stored result.
func UpdateLiabilityWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string, upd domain.LiabilityUpdate) (*domain.Liability, error) {
	if upd.Empty() {
		return GetLiabilityWithClient(ctx, client, table, uid, id)
	}

	affected, err := runDML(ctx, updateLiabilityStmt(table, uid, id, upd).query(client))
	if err != nil {
		return nil, fmt.Errorf("UpdateLiability: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}

	return GetLiabilityWithClient(ctx, client, table, uid, id)
}

// DeleteLiabilityWithClient removes the liability owned by uid.
func DeleteLiabilityWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string) error {
	affected, err := runDML(ctx, deleteLiabilityStmt(table, uid, id).query(client))
	if err != nil {
		return fmt.Errorf("DeleteLiability: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("liability %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func readLiabilityRows(ctx context.Context, q *bigquery.Query) ([]*LiabilityRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*LiabilityRow
	for {
		var row LiabilityRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterator: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}
