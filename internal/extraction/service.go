// Package extraction turns a transcript into an expense record with the hosted model.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/llm"
	"github.com/dvloznov/voice-expense-tracker/internal/metrics"
	"github.com/dvloznov/voice-expense-tracker/internal/modeljson"
)

// ErrEmptyTranscript is returned for a missing or blank transcript. No model call is made.
var ErrEmptyTranscript = errors.New("missing transcript")

// Result is either an extracted record or the parse-failure sentinel.
type Result struct {
	Expense *domain.Expense
	Failure string
}

// Failed reports whether the reply could not be turned into a record.
func (r Result) Failed() bool { return r.Expense == nil }

// MarshalJSON emits the record, or {"error": "Parse failure"} for the sentinel.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Expense == nil {
		failure := r.Failure
		if failure == "" {
			failure = domain.ParseFailure
		}
		return json.Marshal(map[string]string{"error": failure})
	}
	return json.Marshal(r.Expense)
}

// Config configures a Service.
type Config struct {
	Generator    llm.TextGenerator
	Logger       zerolog.Logger
	HomeCurrency string
	Categories   []string
	Temperature  float32
	Chain        modeljson.Chain
	Now          func() time.Time
}

// Service is the remote transcript parser.
type Service struct {
	gen          llm.TextGenerator
	log          zerolog.Logger
	homeCurrency string
	categories   []string
	temperature  float32
	chain        modeljson.Chain
	now          func() time.Time
}

// NewService creates a Service, filling unset config values with defaults.
func NewService(cfg Config) *Service {
	s := &Service{
		gen:          cfg.Generator,
		log:          cfg.Logger,
		homeCurrency: strings.ToUpper(strings.TrimSpace(cfg.HomeCurrency)),
		categories:   append([]string(nil), cfg.Categories...),
		temperature:  cfg.Temperature,
		chain:        cfg.Chain,
		now:          cfg.Now,
	}
	if s.homeCurrency == "" {
		s.homeCurrency = "LKR"
	}
	if len(s.categories) == 0 {
		s.categories = append([]string(nil), domain.DefaultCategories...)
	}
	if s.temperature == 0 {
		s.temperature = DefaultTemperature
	}
	if len(s.chain) == 0 {
		s.chain = modeljson.DefaultChain()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ParseTranscript asks the model for a record. A reply that cannot be recovered yields the
// sentinel Result with a nil error; an error means the request itself did not complete.
func (s *Service) ParseTranscript(ctx context.Context, transcript string) (Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return Result{}, ErrEmptyTranscript
	}

	start := time.Now()
	reply, err := s.gen.Generate(ctx, llm.Prompt{
		System:      SystemPrompt,
		User:        buildTaskPrompt(transcript, s.categories),
		Temperature: s.temperature,
	})
	metrics.ObserveModelCall("parse", start)
	if err != nil {
		metrics.ObserveParse(metrics.PathRemote, metrics.OutcomeError)
		return Result{}, fmt.Errorf("ParseTranscript: %w", err)
	}

	var fields map[string]interface{}
	strategy, err := s.chain.Decode(reply, &fields)
	metrics.ObserveRecovery(strategy)
	if err != nil {
		s.log.Warn().Err(err).Int("reply_len", len(reply)).Msg("model reply not recoverable")
		metrics.ObserveParse(metrics.PathRemote, metrics.OutcomeFailure)
		return Result{Failure: domain.ParseFailure}, nil
	}

	expense, ok := expenseFromFields(fields)
	if !ok {
		s.log.Warn().Str("strategy", strategy).Msg("model reply has no record fields")
		metrics.ObserveParse(metrics.PathRemote, metrics.OutcomeFailure)
		return Result{Failure: domain.ParseFailure}, nil
	}

	normalized := expense.Normalize(domain.Defaults{
		Currency:   s.homeCurrency,
		Categories: s.categories,
		Today:      civil.DateOf(s.now()),
		Transcript: transcript,
	})

	s.log.Debug().Str("strategy", strategy).Str("category", normalized.Category).Msg("transcript parsed")
	metrics.ObserveParse(metrics.PathRemote, metrics.OutcomeOK)
	return Result{Expense: &normalized}, nil
}
