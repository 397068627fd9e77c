package app

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/voice-expense-tracker/internal/config"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/store/memory"
)

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	log := componentLogger(logger.NewWithWriter(&buf), "forecast")
	log.Info().Msg("stored")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "forecast", line["component"])
	assert.Equal(t, "stored", line["message"])
}

func TestBuild_MemoryWithoutServices(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{HomeCurrency: "LKR", StoreBackend: config.BackendMemory}

	c, err := Build(context.Background(), cfg, logger.NewWithWriter(&buf))
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &memory.Store{}, c.Store)
	require.NotNil(t, c.Local)
	assert.Nil(t, c.Remote)
	assert.Nil(t, c.Forecaster)
	assert.Nil(t, c.Receipts)
	assert.Contains(t, buf.String(), "remote parsing and forecasting are disabled")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := OpenStore(ctx, &config.Config{StoreBackend: config.BackendSQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "x.db")})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = OpenStore(ctx, &config.Config{StoreBackend: "redis"})
	assert.ErrorContains(t, err, `unknown backend "redis"`)
}

func TestNewLocalParser_VocabularyFile(t *testing.T) {
	_, err := NewLocalParser(&config.Config{HomeCurrency: "LKR", VocabularyFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
