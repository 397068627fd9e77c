package voiceparse

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// HomeCurrency is the code placeholder for synonyms that resolve to the configured
// home currency instead of a fixed code.
const HomeCurrency = "HOME"

// MerchantRule maps a lowercase keyword to a canonical display name.
type MerchantRule struct {
	Keyword string `yaml:"keyword"`
	Name    string `yaml:"name"`
}

// IndicatorRule lists words that suggest a category when no category name is spoken.
type IndicatorRule struct {
	Category string   `yaml:"category"`
	Words    []string `yaml:"words"`
}

// CurrencyRule maps a spoken currency word to a code.
type CurrencyRule struct {
	Word string `yaml:"word"`
	Code string `yaml:"code"`
}

// Tables are the ordered rule tables driving the heuristic parser. Every table is
// evaluated front to back and the first match wins.
type Tables struct {
	Categories []string        `yaml:"categories"`
	Merchants  []MerchantRule  `yaml:"merchants"`
	Indicators []IndicatorRule `yaml:"indicators"`
	Currencies []CurrencyRule  `yaml:"currencies"`
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Categories: append([]string(nil), domain.DefaultCategories...),
		Merchants: []MerchantRule{
			{"kfc", "KFC"},
			{"mcdonalds", "McDonald's"},
			{"burger king", "Burger King"},
			{"pizza hut", "Pizza Hut"},
			{"cargills", "Cargills"},
			{"keells", "Keells"},
			{"arpico", "Arpico"},
			{"uber", "Uber"},
			{"pickme", "PickMe"},
			{"dialog", "Dialog"},
			{"mobitel", "Mobitel"},
		},
		Indicators: []IndicatorRule{
			{"Food", []string{"lunch", "dinner", "breakfast", "meal", "snack", "ate", "eating"}},
			{"Transport", []string{"taxi", "bus", "train", "uber", "pickme", "ride", "fuel", "petrol"}},
			{"Groceries", []string{"groceries", "vegetables", "fruits", "supermarket", "market"}},
			{"Bills", []string{"bill", "electricity", "water", "internet", "phone", "mobile"}},
			{"Entertainment", []string{"movie", "cinema", "game", "concert", "show"}},
			{"Health", []string{"medicine", "doctor", "hospital", "pharmacy", "medical"}},
			{"Shopping", []string{"bought", "purchase", "shopping", "clothes", "shoes"}},
		},
		Currencies: []CurrencyRule{
			{"lkr", "LKR"},
			{"rs", HomeCurrency},
			{"rupees", HomeCurrency},
			{"rupee", HomeCurrency},
			{"usd", "USD"},
			{"dollars", "USD"},
			{"dollar", "USD"},
			{"eur", "EUR"},
			{"euros", "EUR"},
			{"euro", "EUR"},
			{"gbp", "GBP"},
			{"pounds", "GBP"},
			{"pound", "GBP"},
		},
	}
}

// LoadTables reads YAML rule tables from r. Sections absent from the document keep
// their built-in values.
func LoadTables(r io.Reader) (Tables, error) {
	var override Tables
	if err := yaml.NewDecoder(r).Decode(&override); err != nil && err != io.EOF {
		return Tables{}, fmt.Errorf("LoadTables: decode yaml: %w", err)
	}

	t := DefaultTables()
	if len(override.Categories) > 0 {
		t.Categories = override.Categories
	}
	if len(override.Merchants) > 0 {
		t.Merchants = override.Merchants
	}
	if len(override.Indicators) > 0 {
		t.Indicators = override.Indicators
	}
	if len(override.Currencies) > 0 {
		t.Currencies = override.Currencies
	}
	return t, t.validate()
}

// LoadTablesFile reads YAML rule tables from a file.
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("LoadTablesFile: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadTables(f)
}

func (t Tables) validate() error {
	for i, m := range t.Merchants {
		if strings.TrimSpace(m.Keyword) == "" || strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("merchant rule %d: keyword and name are required", i)
		}
	}
	for i, ind := range t.Indicators {
		if strings.TrimSpace(ind.Category) == "" || len(ind.Words) == 0 {
			return fmt.Errorf("indicator rule %d: category and words are required", i)
		}
	}
	for i, c := range t.Currencies {
		if strings.TrimSpace(c.Word) == "" || strings.TrimSpace(c.Code) == "" {
			return fmt.Errorf("currency rule %d: word and code are required", i)
		}
	}
	return nil
}
