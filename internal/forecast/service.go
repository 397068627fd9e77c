// Package forecast projects future monthly spending from a user's history with the
// hosted model and persists the latest prediction per user.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/aggregate"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/llm"
	"github.com/dvloznov/voice-expense-tracker/internal/metrics"
	"github.com/dvloznov/voice-expense-tracker/internal/modeljson"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

// ErrUnauthenticated is returned when the caller is not signed in.
var ErrUnauthenticated = auth.ErrUnauthenticated

const (
	// SystemPrompt is the fixed instruction sent with every forecast request.
	SystemPrompt = "You are a forecasting assistant. Return ONLY JSON."

	// DefaultTemperature for forecast requests.
	DefaultTemperature float32 = 0.3

	// DefaultHistoryLimit caps how many recent transactions feed the forecast.
	DefaultHistoryLimit = 500
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Config configures a Service.
type Config struct {
	Generator    llm.TextGenerator
	Transactions store.TransactionStore
	Forecasts    store.ForecastStore
	Logger       zerolog.Logger
	HistoryLimit int
	Temperature  float32
	Chain        modeljson.Chain
}

// Service is the forecaster.
type Service struct {
	gen          llm.TextGenerator
	transactions store.TransactionStore
	forecasts    store.ForecastStore
	log          zerolog.Logger
	historyLimit int
	temperature  float32
	chain        modeljson.Chain
}

// NewService creates a Service, filling unset config values with defaults.
func NewService(cfg Config) *Service {
	s := &Service{
		gen:          cfg.Generator,
		transactions: cfg.Transactions,
		forecasts:    cfg.Forecasts,
		log:          cfg.Logger,
		historyLimit: cfg.HistoryLimit,
		temperature:  cfg.Temperature,
		chain:        cfg.Chain,
	}
	if s.historyLimit <= 0 {
		s.historyLimit = DefaultHistoryLimit
	}
	if s.temperature == 0 {
		s.temperature = DefaultTemperature
	}
	if len(s.chain) == 0 {
		s.chain = modeljson.DefaultChain()
	}
	return s
}

// Forecast builds the caller's monthly totals, asks the model for the next periods and
// stores the result. An unrecoverable reply yields an empty forecast, which is still
// persisted. Model and store errors are wrapped and returned.
func (s *Service) Forecast(ctx context.Context, id auth.Identity) (domain.MonthlyForecast, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthenticated
	}
	log := s.log.With().Str("uid", id.UID).Logger()

	history, err := s.transactions.ListTransactions(ctx, id.UID, s.historyLimit)
	if err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		return nil, fmt.Errorf("Forecast: load history: %w", err)
	}
	monthly := aggregate.MonthlyTotals(history)

	prompt, err := buildPrompt(monthly)
	if err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		return nil, fmt.Errorf("Forecast: %w", err)
	}

	start := time.Now()
	reply, err := s.gen.Generate(ctx, llm.Prompt{
		System:      SystemPrompt,
		User:        prompt,
		Temperature: s.temperature,
	})
	metrics.ObserveModelCall("forecast", start)
	if err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		return nil, fmt.Errorf("Forecast: %w", err)
	}

	forecast := s.decode(reply, log)

	if _, err := s.forecasts.UpsertForecast(ctx, &domain.Prediction{
		UID:      id.UID,
		Forecast: forecast,
		Method:   domain.ForecastMethod,
	}); err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		return nil, fmt.Errorf("Forecast: persist prediction: %w", err)
	}

	outcome := metrics.OutcomeOK
	if len(forecast) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveForecast(outcome)
	log.Info().Int("history_months", len(monthly)).Int("periods", len(forecast)).Msg("forecast stored")
	return forecast, nil
}

// Latest returns the caller's stored prediction.
func (s *Service) Latest(ctx context.Context, id auth.Identity) (*domain.Prediction, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthenticated
	}
	p, err := s.forecasts.GetForecast(ctx, id.UID)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return p, nil
}

func buildPrompt(monthly map[string]float64) (string, error) {
	data, err := json.Marshal(monthly)
	if err != nil {
		return "", fmt.Errorf("encode monthly totals: %w", err)
	}
	return fmt.Sprintf("Given this JSON of monthly expense totals by YYYY-MM: %s\n"+
		"Forecast the next %d months totals in same JSON shape. Only output JSON.", data, domain.ForecastHorizon), nil
}

// decode keeps the YYYY-MM keys with numeric values and drops everything else.
func (s *Service) decode(reply string, log zerolog.Logger) domain.MonthlyForecast {
	var raw map[string]interface{}
	strategy, err := s.chain.Decode(reply, &raw)
	metrics.ObserveRecovery(strategy)
	if err != nil {
		log.Warn().Err(err).Msg("forecast reply not recoverable, storing empty forecast")
		return domain.MonthlyForecast{}
	}

	out := make(domain.MonthlyForecast, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok || !monthKeyPattern.MatchString(k) {
			log.Debug().Str("key", k).Msg("dropping forecast entry")
			continue
		}
		out[k] = f
	}
	return out
}
