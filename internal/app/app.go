// Package app builds the runtime components shared by the API server and the CLI from
// a validated configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/config"
	"github.com/dvloznov/voice-expense-tracker/internal/extraction"
	"github.com/dvloznov/voice-expense-tracker/internal/forecast"
	bq "github.com/dvloznov/voice-expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/voice-expense-tracker/internal/infra/sqlite"
	"github.com/dvloznov/voice-expense-tracker/internal/llm"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/receipts"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
	"github.com/dvloznov/voice-expense-tracker/internal/store/memory"
	"github.com/dvloznov/voice-expense-tracker/internal/voiceparse"
)

// Components holds everything the entry points serve. Remote, Forecaster and Receipts are
// nil when their backing service is not configured.
type Components struct {
	Store      store.Store
	Local      *voiceparse.Parser
	Remote     *extraction.Service
	Forecaster *forecast.Service
	Receipts   *receipts.Service

	closers []io.Closer
}

// Build wires the components described by cfg.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Components, error) {
	c := &Components{}

	local, err := NewLocalParser(cfg)
	if err != nil {
		return nil, err
	}
	c.Local = local

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Store = st
	c.closers = append(c.closers, st)
	log.Info().Str("backend", cfg.StoreBackend).Msg("Store ready")

	if cfg.ModelEnabled() {
		gen, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.GCPProjectID)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		c.Remote = extraction.NewService(extraction.Config{
			Generator:    gen,
			Logger:       componentLogger(log, "extraction"),
			HomeCurrency: cfg.HomeCurrency,
			Categories:   local.Categories(),
			Temperature:  float32(cfg.ParseTemperature),
		})
		c.Forecaster = forecast.NewService(forecast.Config{
			Generator:    gen,
			Transactions: st,
			Forecasts:    st,
			Logger:       componentLogger(log, "forecast"),
			HistoryLimit: cfg.HistoryLimit,
			Temperature:  float32(cfg.ForecastTemperature),
		})
		log.Info().Str("model", gen.Model()).Msg("Model client ready")
	} else {
		log.Warn().Msg("No GEMINI_API_KEY or GCP_PROJECT_ID - remote parsing and forecasting are disabled")
	}

	if cfg.GCSBucket != "" {
		objects, err := receipts.NewGCSObjectStore(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		c.closers = append(c.closers, objects)
		c.Receipts = receipts.NewService(objects, cfg.GCSBucket, componentLogger(log, "receipts"))
	} else {
		log.Warn().Msg("No GCS bucket configured - receipt uploads will be disabled")
	}

	return c, nil
}

func componentLogger(log zerolog.Logger, component string) zerolog.Logger {
	return logger.WithFields(log, map[string]interface{}{"component": component})
}

// Close releases every client opened by Build, in reverse order.
func (c *Components) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// NewLocalParser builds the heuristic parser, loading the vocabulary file when set.
func NewLocalParser(cfg *config.Config) (*voiceparse.Parser, error) {
	opts := []voiceparse.Option{voiceparse.WithHomeCurrency(cfg.HomeCurrency)}
	if cfg.VocabularyFile != "" {
		tables, err := voiceparse.LoadTablesFile(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("NewLocalParser: %w", err)
		}
		opts = append(opts, voiceparse.WithTables(tables))
	}
	return voiceparse.New(opts...), nil
}

// OpenStore opens the persistence backend named by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendBigQuery:
		repo, err := bq.NewRepository(ctx, cfg.GCPProjectID, cfg.BQDataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return repo, nil
	case config.BackendSQLite:
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown backend %q", cfg.StoreBackend)
	}
}
