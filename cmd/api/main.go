package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/voice-expense-tracker/internal/api"
	"github.com/dvloznov/voice-expense-tracker/internal/api/handlers"
	"github.com/dvloznov/voice-expense-tracker/internal/app"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/config"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/metrics"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer components.Close()

	var verifier auth.Verifier
	if cfg.OAuthAudience != "" {
		verifier = auth.GoogleVerifier{Audience: cfg.OAuthAudience}
	} else {
		log.Warn().Msg("No OAUTH_AUDIENCE configured - all callers are anonymous")
	}

	// Handler fields are interfaces; a nil service must stay an untyped nil.
	var remote handlers.RemoteParser
	if components.Remote != nil {
		remote = components.Remote
	}
	var forecaster handlers.Forecaster
	if components.Forecaster != nil {
		forecaster = components.Forecaster
	}
	var receiptSvc handlers.ReceiptService
	if components.Receipts != nil {
		receiptSvc = components.Receipts
	}

	mux := api.NewRouter(api.Handlers{
		Parse:        handlers.NewParseHandler(remote, components.Local, components.Store, log),
		Forecast:     handlers.NewForecastHandler(forecaster, log),
		Transactions: handlers.NewTransactionsHandler(components.Store, components.Store, cfg.HomeCurrency, log),
		Categories:   handlers.NewCategoriesHandler(components.Store, log),
		Receipts:     handlers.NewReceiptsHandler(receiptSvc, log),
		Liabilities:  handlers.NewLiabilitiesHandler(components.Store, cfg.HomeCurrency, log),
		Metrics:      metrics.Handler(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Wrap(mux, verifier, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		components.Close()
		os.Exit(1)
	}

	log.Info().Msg("Server exited")
}
