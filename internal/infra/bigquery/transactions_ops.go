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

// CreateTransactionWithClient inserts tx with a DML statement. Streamed rows cannot be
// updated or deleted while they sit in the streaming buffer.
func CreateTransactionWithClient(ctx context.Context, client *bigquery.Client, table string, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.UID == "" {
		return nil, errors.New("CreateTransaction: uid is required")
	}

	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	q := insertTransactionStmt(table, transactionToRow(&stored)).query(client)
	if _, err := runDML(ctx, q); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	return &stored, nil
}

// ListTransactionsWithClient returns the user's transactions, newest first.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, table, uid string, limit int) ([]*domain.Transaction, error) {
	rows, err := readTransactionRows(ctx, listTransactionsStmt(table, uid, limit).query(client))
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(row))
	}
	return txs, nil
}

// GetTransactionWithClient fetches a single transaction owned by uid.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string) (*domain.Transaction, error) {
	rows, err := readTransactionRows(ctx, getTransactionStmt(table, uid, id).query(client))
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return rowToTransaction(rows[0]), nil
}

// UpdateTransactionWithClient applies upd to the transaction and returns the stored result.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string, upd domain.TransactionUpdate) (*domain.Transaction, error) {
	if upd.Empty() {
		return GetTransactionWithClient(ctx, client, table, uid, id)
	}

	affected, err := runDML(ctx, updateTransactionStmt(table, uid, id, upd).query(client))
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}

	return GetTransactionWithClient(ctx, client, table, uid, id)
}

// DeleteTransactionWithClient removes the transaction owned by uid.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, table, uid, id string) error {
	affected, err := runDML(ctx, deleteTransactionStmt(table, uid, id).query(client))
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func readTransactionRows(ctx context.Context, q *bigquery.Query) ([]*TransactionRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
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
