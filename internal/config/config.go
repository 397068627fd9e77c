package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
	BackendSQLite   = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Parsing
	HomeCurrency   string
	VocabularyFile string

	// Persistence
	StoreBackend string
	GCPProjectID string
	BQDataset    string
	SQLiteDBPath string

	// Receipts
	GCSBucket string

	// Model
	GeminiAPIKey        string
	ModelName           string
	ParseTemperature    float64
	ForecastTemperature float64
	HistoryLimit        int

	// Auth
	OAuthAudience string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, after loading an optional .env
// file from the working directory. Variables already set win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),

		HomeCurrency:   strings.ToUpper(getEnv("HOME_CURRENCY", "LKR")),
		VocabularyFile: getEnv("VOCABULARY_FILE", ""),

		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),
		GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
		BQDataset:    getEnv("BQ_DATASET", "finance"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		GCSBucket: getEnv("GCS_BUCKET", ""),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		ModelName:           getEnv("MODEL_NAME", "gemini-2.5-flash"),
		ParseTemperature:    getEnvFloat("PARSE_TEMPERATURE", 0.2),
		ForecastTemperature: getEnvFloat("FORECAST_TEMPERATURE", 0.3),
		HistoryLimit:        getEnvInt("HISTORY_LIMIT", 500),

		OAuthAudience: getEnv("OAUTH_AUDIENCE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// ModelEnabled reports whether the remote parser and forecaster can be built.
func (c *Config) ModelEnabled() bool {
	return c.GeminiAPIKey != "" || c.GCPProjectID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.HomeCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid home currency '%s': must be a 3-letter code", c.HomeCurrency))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendBigQuery:
		if c.GCPProjectID == "" {
			errors = append(errors, "GCP project ID is required when using bigquery backend")
		}
		if c.BQDataset == "" {
			errors = append(errors, "BigQuery dataset cannot be empty when using bigquery backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v",
			c.StoreBackend, []string{BackendMemory, BackendBigQuery, BackendSQLite}))
	}

	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("vocabulary file does not exist: %s", c.VocabularyFile))
		}
	}

	if c.ParseTemperature < 0 || c.ParseTemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid parse temperature %v: must be between 0 and 2", c.ParseTemperature))
	}
	if c.ForecastTemperature < 0 || c.ForecastTemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid forecast temperature %v: must be between 0 and 2", c.ForecastTemperature))
	}

	if c.HistoryLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid history limit %d: must be at least 1", c.HistoryLimit))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
