package main

import (
	"context"
	"flag"
	"os"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/voice-expense-tracker/internal/config"
	bq "github.com/dvloznov/voice-expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
)

func main() {
	cfg := config.Load()

	projectID := flag.String("project", cfg.GCPProjectID, "GCP project ID (required)")
	datasetID := flag.String("dataset", cfg.BQDataset, "BigQuery dataset ID")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir := flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
	flag.Parse()

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	if *projectID == "" {
		log.Fatal().Msg("-project flag or GCP_PROJECT_ID is required")
	}

	var (
		migrations []bq.Migration
		err        error
	)
	if *migrationsDir != "" {
		migrations, err = bq.ReadMigrations(os.DirFS(*migrationsDir), ".", *projectID, *datasetID, log)
	} else {
		migrations, err = bq.EmbeddedMigrations(*projectID, *datasetID, log)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	applied, err := bq.NewMigrator(client, *projectID, *datasetID, *appliedBy, log).Up(ctx, migrations)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}
	log.Info().Int("count", applied).Msg("Successfully applied migrations")
}
