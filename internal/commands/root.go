// Package commands implements the expense tracker CLI.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/voice-expense-tracker/internal/app"
	"github.com/dvloznov/voice-expense-tracker/internal/config"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
)

// env carries what every subcommand needs: configuration, a logger and a way to build
// the runtime components.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	build func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app.Components, error)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	e := &env{
		cfg:   cfg,
		log:   logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr}),
		build: app.Build,
	}
	return newRootCommand(e)
}

func newRootCommand(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Voice expense tracker",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newParseCommand(e))
	rootCmd.AddCommand(newForecastCommand(e))
	rootCmd.AddCommand(newReceiptCommand(e))

	return rootCmd
}

// components validates the configuration and builds the runtime components.
func (e *env) components(ctx context.Context) (*app.Components, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e.build(ctx, e.cfg, e.log)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
