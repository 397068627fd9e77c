package bigquery

import (
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

const transactionColumns = `
	transaction_id,
	user_id,
	amount,
	currency,
	category_name,
	merchant,
	note,
	transaction_date,
	source,
	receipt_url,
	created_ts,
	updated_ts`

const liabilityColumns = `
	liability_id,
	user_id,
	description,
	amount,
	currency,
	category_name,
	due_date,
	note,
	is_paid,
	created_ts,
	updated_ts`

// statement is a parameterized query built apart from the client that runs it.
type statement struct {
	SQL    string
	Params []bigquery.QueryParameter
}

func (s statement) query(client *bigquery.Client) *bigquery.Query {
	q := client.Query(s.SQL)
	q.Parameters = s.Params
	return q
}

// Transactions

func insertTransactionStmt(table string, row *TransactionRow) statement {
	return statement{
		SQL: `
		INSERT INTO ` + table + ` (` + transactionColumns + `)
		VALUES (
			@transaction_id, @user_id, @amount, @currency, @category_name, @merchant,
			@note, @transaction_date, @source, @receipt_url, @created_ts, NULL
		)`,
		Params: []bigquery.QueryParameter{
			{Name: "transaction_id", Value: row.TransactionID},
			{Name: "user_id", Value: row.UserID},
			{Name: "amount", Value: row.Amount},
			{Name: "currency", Value: row.Currency},
			{Name: "category_name", Value: row.CategoryName},
			{Name: "merchant", Value: row.Merchant},
			{Name: "note", Value: row.Note},
			{Name: "transaction_date", Value: row.TransactionDate},
			{Name: "source", Value: row.Source},
			{Name: "receipt_url", Value: row.ReceiptURL},
			{Name: "created_ts", Value: row.CreatedTS},
		},
	}
}

// listTransactionsStmt orders rows without a transaction date by their creation day.
func listTransactionsStmt(table, uid string, limit int) statement {
	s := statement{
		SQL: `
		SELECT` + transactionColumns + `
		FROM ` + table + `
		WHERE user_id = @user_id
		ORDER BY COALESCE(transaction_date, DATE(created_ts)) DESC, created_ts DESC`,
		Params: []bigquery.QueryParameter{{Name: "user_id", Value: uid}},
	}
	if limit > 0 {
		s.SQL += `
		LIMIT @limit`
		s.Params = append(s.Params, bigquery.QueryParameter{Name: "limit", Value: limit})
	}
	return s
}

func getTransactionStmt(table, uid, id string) statement {
	return statement{
		SQL: `
		SELECT` + transactionColumns + `
		FROM ` + table + `
		WHERE transaction_id = @transaction_id AND user_id = @user_id
		LIMIT 1`,
		Params: ownedTransactionParams(uid, id),
	}
}

// updateTransactionStmt must not be called with an empty update.
func updateTransactionStmt(table, uid, id string, upd domain.TransactionUpdate) statement {
	sets, params := updateAssignments(upd)
	sets = append(sets, "updated_ts = CURRENT_TIMESTAMP()")
	return statement{
		SQL: `
		UPDATE ` + table + `
		SET ` + strings.Join(sets, ", ") + `
		WHERE transaction_id = @transaction_id AND user_id = @user_id`,
		Params: append(params, ownedTransactionParams(uid, id)...),
	}
}

func deleteTransactionStmt(table, uid, id string) statement {
	return statement{
		SQL: `
		DELETE FROM ` + table + `
		WHERE transaction_id = @transaction_id AND user_id = @user_id`,
		Params: ownedTransactionParams(uid, id),
	}
}

func ownedTransactionParams(uid, id string) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
		{Name: "user_id", Value: uid},
	}
}

// updateAssignments builds the SET clauses and parameters for the non-nil fields of upd.
func updateAssignments(upd domain.TransactionUpdate) ([]string, []bigquery.QueryParameter) {
	var a assignments
	if upd.Amount != nil {
		a.add("amount", decimal.NewFromFloat(*upd.Amount).Rat())
	}
	if upd.Currency != nil {
		a.add("currency", *upd.Currency)
	}
	if upd.Category != nil {
		a.add("category_name", *upd.Category)
	}
	if upd.Merchant != nil {
		a.add("merchant", nullString(upd.Merchant))
	}
	if upd.Note != nil {
		a.add("note", *upd.Note)
	}
	if upd.Date != nil {
		a.add("transaction_date", nullDate(upd.Date))
	}
	if upd.ReceiptURL != nil {
		a.add("receipt_url", nullString(upd.ReceiptURL))
	}
	return a.sets, a.params
}

type assignments struct {
	sets   []string
	params []bigquery.QueryParameter
}

func (a *assignments) add(column string, value interface{}) {
	a.sets = append(a.sets, column+" = @"+column)
	a.params = append(a.params, bigquery.QueryParameter{Name: column, Value: value})
}

// Predictions

func upsertForecastStmt(table, uid, forecastJSON, method string) statement {
	return statement{
		SQL: `
		MERGE ` + table + ` T
		USING (SELECT @user_id AS user_id, @forecast_json AS forecast_json, @method AS method) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN
			UPDATE SET forecast_json = S.forecast_json, method = S.method, generated_at = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN
			INSERT (user_id, generated_at, forecast_json, method)
			VALUES (S.user_id, CURRENT_TIMESTAMP(), S.forecast_json, S.method)`,
		Params: []bigquery.QueryParameter{
			{Name: "user_id", Value: uid},
			{Name: "forecast_json", Value: forecastJSON},
			{Name: "method", Value: method},
		},
	}
}

func getForecastStmt(table, uid string) statement {
	return statement{
		SQL: `
		SELECT user_id, generated_at, forecast_json, method
		FROM ` + table + `
		WHERE user_id = @user_id
		ORDER BY generated_at DESC
		LIMIT 1`,
		Params: []bigquery.QueryParameter{{Name: "user_id", Value: uid}},
	}
}

// Settings

func getCategoriesStmt(table, uid string) statement {
	return statement{
		SQL: `
		SELECT user_id, categories, updated_ts
		FROM ` + table + `
		WHERE user_id = @user_id
		LIMIT 1`,
		Params: []bigquery.QueryParameter{{Name: "user_id", Value: uid}},
	}
}

func saveCategoriesStmt(table, uid string, categories []string) statement {
	return statement{
		SQL: `
		MERGE ` + table + ` T
		USING (SELECT @user_id AS user_id, @categories AS categories) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN
			UPDATE SET categories = S.categories, updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN
			INSERT (user_id, categories, updated_ts)
			VALUES (S.user_id, S.categories, CURRENT_TIMESTAMP())`,
		Params: []bigquery.QueryParameter{
			{Name: "user_id", Value: uid},
			{Name: "categories", Value: categories},
		},
	}
}

// Liabilities

func insertLiabilityStmt(table string, row *LiabilityRow) statement {
	return statement{
		SQL: `
		INSERT INTO ` + table + ` (` + liabilityColumns + `)
		VALUES (
			@liability_id, @user_id, @description, @amount, @currency, @category_name,
			@due_date, @note, @is_paid, @created_ts, NULL
		)`,
		Params: []bigquery.QueryParameter{
			{Name: "liability_id", Value: row.LiabilityID},
			{Name: "user_id", Value: row.UserID},
			{Name: "description", Value: row.Description},
			{Name: "amount", Value: row.Amount},
			{Name: "currency", Value: row.Currency},
			{Name: "category_name", Value: row.CategoryName},
			{Name: "due_date", Value: row.DueDate},
			{Name: "note", Value: row.Note},
			{Name: "is_paid", Value: row.IsPaid},
			{Name: "created_ts", Value: row.CreatedTS},
		},
	}
}

func listLiabilitiesStmt(table, uid string) statement {
	return statement{
		SQL: `
		SELECT` + liabilityColumns + `
		FROM ` + table + `
		WHERE user_id = @user_id
		ORDER BY due_date ASC, created_ts ASC`,
		Params: []bigquery.QueryParameter{{Name: "user_id", Value: uid}},
	}
}

func getLiabilityStmt(table, uid, id string) statement {
	return statement{
		SQL: `
		SELECT` + liabilityColumns + `
		FROM ` + table + `
		WHERE liability_id = @liability_id AND user_id = @user_id
		LIMIT 1`,
		Params: ownedLiabilityParams(uid, id),
	}
}

// updateLiabilityStmt must not be called with an empty update.
func updateLiabilityStmt(table, uid, id string, upd domain.LiabilityUpdate) statement {
	var a assignments
	if upd.Description != nil {
		a.add("description", *upd.Description)
	}
	if upd.Amount != nil {
		a.add("amount", decimal.NewFromFloat(*upd.Amount).Rat())
	}
	if upd.Currency != nil {
		a.add("currency", *upd.Currency)
	}
	if upd.Category != nil {
		a.add("category_name", *upd.Category)
	}
	if upd.DueDate != nil {
		a.add("due_date", *upd.DueDate)
	}
	if upd.Note != nil {
		a.add("note", *upd.Note)
	}
	if upd.IsPaid != nil {
		a.add("is_paid", *upd.IsPaid)
	}
	sets := append(a.sets, "updated_ts = CURRENT_TIMESTAMP()")
	return statement{
		SQL: `
		UPDATE ` + table + `
		SET ` + strings.Join(sets, ", ") + `
		WHERE liability_id = @liability_id AND user_id = @user_id`,
		Params: append(a.params, ownedLiabilityParams(uid, id)...),
	}
}

func deleteLiabilityStmt(table, uid, id string) statement {
	return statement{
		SQL: `
		DELETE FROM ` + table + `
		WHERE liability_id = @liability_id AND user_id = @user_id`,
		Params: ownedLiabilityParams(uid, id),
	}
}

func ownedLiabilityParams(uid, id string) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "liability_id", Value: id},
		{Name: "user_id", Value: uid},
	}
}
