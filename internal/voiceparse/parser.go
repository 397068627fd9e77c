// Package voiceparse turns a speech transcript into an expense record using ordered
// pattern tables. It performs no I/O and never fails: anything it cannot resolve is
// left at its default, and the transcript is always kept in the note.
package voiceparse

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
)

// DefaultHomeCurrency is used when no home currency is configured.
const DefaultHomeCurrency = "LKR"

var (
	amountPattern       = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)
	prepositionMerchant = regexp.MustCompile(`(?:^|[^a-z])(?:at|from|in)\s+([a-z]+)`)
)

// Parser holds the compiled rule tables. It is immutable after construction and safe
// for concurrent use.
type Parser struct {
	tables       Tables
	homeCurrency string
	now          func() time.Time

	currencyPattern *regexp.Regexp
	currencyCodes   map[string]string
}

// Option configures a Parser.
type Option func(*Parser)

// WithTables replaces the built-in rule tables.
func WithTables(t Tables) Option {
	return func(p *Parser) { p.tables = t }
}

// WithHomeCurrency sets the code used when no currency word is spoken and for rupee synonyms.
func WithHomeCurrency(code string) Option {
	return func(p *Parser) {
		if c := strings.ToUpper(strings.TrimSpace(code)); c != "" {
			p.homeCurrency = c
		}
	}
}

// WithClock sets the time source used for the record date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCategories replaces the category vocabulary used for literal name matching.
func WithCategories(categories []string) Option {
	return func(p *Parser) {
		if len(categories) > 0 {
			p.tables.Categories = append([]string(nil), categories...)
		}
	}
}

// New builds a Parser from the default tables and the given options.
func New(opts ...Option) *Parser {
	p := &Parser{
		tables:       DefaultTables(),
		homeCurrency: DefaultHomeCurrency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.compileCurrencies()
	return p
}

// ForCategories returns a copy of p matching literal names against categories instead.
func (p *Parser) ForCategories(categories []string) *Parser {
	if len(categories) == 0 {
		return p
	}
	cp := *p
	cp.tables.Categories = append([]string(nil), categories...)
	return &cp
}

// HomeCurrency returns the configured home currency code.
func (p *Parser) HomeCurrency() string { return p.homeCurrency }

// Categories returns the category vocabulary used for literal matching.
func (p *Parser) Categories() []string {
	return append([]string(nil), p.tables.Categories...)
}

func (p *Parser) compileCurrencies() {
	p.currencyCodes = make(map[string]string, len(p.tables.Currencies))
	words := make([]string, 0, len(p.tables.Currencies))
	for _, rule := range p.tables.Currencies {
		w := strings.ToLower(strings.TrimSpace(rule.Word))
		if _, seen := p.currencyCodes[w]; seen || w == "" {
			continue
		}
		p.currencyCodes[w] = strings.ToUpper(strings.TrimSpace(rule.Code))
		words = append(words, regexp.QuoteMeta(w))
	}
	if len(words) == 0 {
		return
	}
	// Longer words first so "rupees" is preferred over "rupee" at the same offset.
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	p.currencyPattern = regexp.MustCompile(`(?:^|[^a-z])(` + strings.Join(words, "|") + `)(?:[^a-z]|$)`)
}

// Parse converts one transcript into an expense record.
func (p *Parser) Parse(transcript string) domain.Expense {
	lower := strings.ToLower(transcript)

	return domain.Expense{
		Amount:   extractAmount(transcript),
		Currency: p.resolveCurrency(lower),
		Merchant: p.resolveMerchant(lower),
		Category: p.resolveCategory(lower),
		Date:     civil.DateOf(p.now()),
		Note:     transcript,
	}
}

// extractAmount parses the first digit run, dropping thousands separators.
func extractAmount(transcript string) *float64 {
	run := amountPattern.FindString(transcript)
	if run == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(run, ",", ""))
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (p *Parser) resolveCurrency(lower string) string {
	if p.currencyPattern != nil {
		if m := p.currencyPattern.FindStringSubmatch(lower); m != nil {
			if code := p.currencyCodes[m[1]]; code != "" && code != HomeCurrency {
				return code
			}
		}
	}
	return p.homeCurrency
}

func (p *Parser) resolveMerchant(lower string) *string {
	for _, rule := range p.tables.Merchants {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			name := rule.Name
			return &name
		}
	}
	if m := prepositionMerchant.FindStringSubmatch(lower); m != nil {
		name := strings.ToUpper(m[1][:1]) + m[1][1:]
		return &name
	}
	return nil
}

func (p *Parser) resolveCategory(lower string) string {
	for _, c := range p.tables.Categories {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	for _, rule := range p.tables.Indicators {
		for _, w := range rule.Words {
			if w != "" && strings.Contains(lower, strings.ToLower(w)) {
				return rule.Category
			}
		}
	}
	return domain.SentinelCategory
}

var defaultParser = New()

// ParseLocal parses a transcript with the built-in tables, the default home currency
// and the current wall clock.
func ParseLocal(transcript string) domain.Expense {
	return defaultParser.Parse(transcript)
}
