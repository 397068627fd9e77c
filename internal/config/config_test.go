package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Port:                "8080",
		HomeCurrency:        "LKR",
		StoreBackend:        BackendMemory,
		BQDataset:           "finance",
		ParseTemperature:    0.2,
		ForecastTemperature: 0.3,
		HistoryLimit:        500,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			modify:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid home currency",
			modify:      func(c *Config) { c.HomeCurrency = "RUPEE" },
			wantErr:     true,
			errorString: "invalid home currency 'RUPEE'",
		},
		{
			name:        "bigquery backend without project",
			modify:      func(c *Config) { c.StoreBackend = BackendBigQuery },
			wantErr:     true,
			errorString: "GCP project ID is required when using bigquery backend",
		},
		{
			name: "valid bigquery backend",
			modify: func(c *Config) {
				c.StoreBackend = BackendBigQuery
				c.GCPProjectID = "my-project"
			},
			wantErr: false,
		},
		{
			name: "sqlite backend without path",
			modify: func(c *Config) {
				c.StoreBackend = BackendSQLite
				c.SQLiteDBPath = ""
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "unknown backend",
			modify:      func(c *Config) { c.StoreBackend = "firestore" },
			wantErr:     true,
			errorString: "invalid store backend 'firestore'",
		},
		{
			name:        "missing vocabulary file",
			modify:      func(c *Config) { c.VocabularyFile = "/definitely/not/here.yaml" },
			wantErr:     true,
			errorString: "vocabulary file does not exist",
		},
		{
			name:        "temperature out of range",
			modify:      func(c *Config) { c.ForecastTemperature = 3 },
			wantErr:     true,
			errorString: "invalid forecast temperature 3",
		},
		{
			name:        "history limit too small",
			modify:      func(c *Config) { c.HistoryLimit = 0 },
			wantErr:     true,
			errorString: "invalid history limit 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(&c)
			err := c.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Expected error to contain %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateCreatesSQLiteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	c := validConfig()
	c.StoreBackend = BackendSQLite
	c.SQLiteDBPath = filepath.Join(dir, "expenses.db")

	if err := c.Validate(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected directory %s to be created: %v", dir, err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HOME_CURRENCY", "inr")
	t.Setenv("HISTORY_LIMIT", "120")
	t.Setenv("PARSE_TEMPERATURE", "0.5")
	t.Setenv("FORECAST_TEMPERATURE", "not-a-number")
	t.Setenv("STORE_BACKEND", "")

	c := Load()

	if c.Port != "9090" {
		t.Errorf("Port = %s, want 9090", c.Port)
	}
	if c.HomeCurrency != "INR" {
		t.Errorf("HomeCurrency = %s, want INR", c.HomeCurrency)
	}
	if c.HistoryLimit != 120 {
		t.Errorf("HistoryLimit = %d, want 120", c.HistoryLimit)
	}
	if c.ParseTemperature != 0.5 {
		t.Errorf("ParseTemperature = %v, want 0.5", c.ParseTemperature)
	}
	if c.ForecastTemperature != 0.3 {
		t.Errorf("ForecastTemperature = %v, want default 0.3", c.ForecastTemperature)
	}
	if c.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %s, want memory", c.StoreBackend)
	}
	if c.ModelName != "gemini-2.5-flash" {
		t.Errorf("ModelName = %s, want gemini-2.5-flash", c.ModelName)
	}
}

func TestConfig_ModelEnabled(t *testing.T) {
	c := validConfig()
	if c.ModelEnabled() {
		t.Error("Expected model disabled without key or project")
	}
	c.GeminiAPIKey = "key"
	if !c.ModelEnabled() {
		t.Error("Expected model enabled with API key")
	}
}
