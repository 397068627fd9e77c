package extraction

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// recordKeys are the keys a reply must carry at least one of to count as a record.
var recordKeys = []string{"amount", "currency", "category", "merchant", "date", "note"}

// expenseFromFields builds a record from a decoded reply. Values of the wrong type are
// treated as absent; Normalize fills the defaults afterwards.
func expenseFromFields(m map[string]interface{}) (domain.Expense, bool) {
	known := false
	for _, k := range recordKeys {
		if _, ok := m[k]; ok {
			known = true
			break
		}
	}
	if !known {
		return domain.Expense{}, false
	}

	return domain.Expense{
		Amount:   getOptionalAmountField(m, "amount"),
		Currency: getStringField(m, "currency"),
		Category: getStringField(m, "category"),
		Merchant: getOptionalStringField(m, "merchant"),
		Date:     getDateField(m, "date"),
		Note:     getStringField(m, "note"),
	}, true
}

func getStringField(m map[string]interface{}, key string) string {
	if s := getOptionalStringField(m, key); s != nil {
		return *s
	}
	return ""
}

func getOptionalStringField(m map[string]interface{}, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	val, ok := v.(string)
	if !ok {
		return nil
	}
	s := strings.TrimSpace(val)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// getOptionalAmountField accepts numbers and numeric strings such as "1,500.50".
func getOptionalAmountField(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(val), ",", ""))
		if err != nil {
			return nil
		}
		f := d.InexactFloat64()
		return &f
	default:
		return nil
	}
}

// getDateField reads a YYYY-MM-DD date, tolerating a trailing time component.
func getDateField(m map[string]interface{}, key string) civil.Date {
	s := getStringField(m, key)
	if len(s) > 10 {
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}
	}
	return d
}
