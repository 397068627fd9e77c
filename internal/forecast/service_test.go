package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/llm"
	"github.com/dvloznov/voice-expense-tracker/internal/store/memory"
)

// MockGenerator is a mock implementation of llm.TextGenerator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, p llm.Prompt) (string, error)
	Calls        []llm.Prompt
}

func (m *MockGenerator) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	m.Calls = append(m.Calls, p)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, p)
	}
	return "{}", nil
}

func replying(replies ...string) *MockGenerator {
	i := 0
	return &MockGenerator{GenerateFunc: func(context.Context, llm.Prompt) (string, error) {
		r := replies[i%len(replies)]
		i++
		return r, nil
	}}
}

// failingForecastStore records whether a write was attempted.
type failingForecastStore struct {
	UpsertFunc func(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error)
	writes     int
}

func (f *failingForecastStore) UpsertForecast(ctx context.Context, p *domain.Prediction) (*domain.Prediction, error) {
	f.writes++
	return f.UpsertFunc(ctx, p)
}

func (f *failingForecastStore) GetForecast(ctx context.Context, uid string) (*domain.Prediction, error) {
	return nil, domain.ErrNotFound
}

var user = auth.Identity{UID: "u1"}

func seed(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for _, tx := range []*domain.Transaction{
		{UID: "u1", Amount: 1000, Date: civil.Date{Year: 2026, Month: time.August, Day: 3}},
		{UID: "u1", Amount: 500, Date: civil.Date{Year: 2026, Month: time.September, Day: 1}},
		{UID: "u1", Amount: 250.5, Date: civil.Date{Year: 2026, Month: time.September, Day: 20}},
		{UID: "u2", Amount: 99999, Date: civil.Date{Year: 2026, Month: time.September, Day: 20}},
	} {
		_, err := s.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}
}

func newTestService(gen llm.TextGenerator, s *memory.Store) *Service {
	return NewService(Config{Generator: gen, Transactions: s, Forecasts: s, Logger: zerolog.Nop()})
}

func TestForecast(t *testing.T) {
	mem := memory.NewStore()
	seed(t, mem)
	gen := replying(`{"2026-10": 780, "2026-11": 800.5}`)

	got, err := newTestService(gen, mem).Forecast(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, domain.MonthlyForecast{"2026-10": 780, "2026-11": 800.5}, got)

	require.Len(t, gen.Calls, 1)
	p := gen.Calls[0]
	assert.Equal(t, SystemPrompt, p.System)
	assert.Equal(t, DefaultTemperature, p.Temperature)
	assert.Contains(t, p.User, `{"2026-08":1000,"2026-09":750.5}`)
	assert.Contains(t, p.User, "Forecast the next 6 months totals in same JSON shape. Only output JSON.")

	stored, err := mem.GetForecast(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, got, stored.Forecast)
	assert.Equal(t, domain.ForecastMethod, stored.Method)
	assert.False(t, stored.GeneratedAt.IsZero())
}

func TestForecast_TwoCallsKeepOneDocument(t *testing.T) {
	mem := memory.NewStore()
	svc := newTestService(replying(`{"2026-11": 1}`, `{"2026-12": 2}`), mem)

	_, err := svc.Forecast(context.Background(), user)
	require.NoError(t, err)
	second, err := svc.Forecast(context.Background(), user)
	require.NoError(t, err)

	latest, err := svc.Latest(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, second, latest.Forecast)
	assert.Equal(t, domain.MonthlyForecast{"2026-12": 2}, latest.Forecast)
}

func TestForecast_Unauthenticated(t *testing.T) {
	gen := replying(`{}`)
	forecasts := &failingForecastStore{}
	svc := NewService(Config{Generator: gen, Transactions: memory.NewStore(), Forecasts: forecasts, Logger: zerolog.Nop()})

	_, err := svc.Forecast(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, gen.Calls)
	assert.Zero(t, forecasts.writes)

	_, err = svc.Latest(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestForecast_LenientDecode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  domain.MonthlyForecast
	}{
		{
			name:  "prose around object",
			reply: "Here is the forecast: {\"2026-11\": 100} Enjoy!",
			want:  domain.MonthlyForecast{"2026-11": 100},
		},
		{
			name:  "non-month keys and non-numeric values dropped",
			reply: `{"2026-11": 100, "2026-13": 5, "total": 600, "2026-12": "about 200", "2027-01": null}`,
			want:  domain.MonthlyForecast{"2026-11": 100},
		},
		{
			name:  "no braces gives empty forecast",
			reply: "I can't forecast without more data.",
			want:  domain.MonthlyForecast{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewStore()
			got, err := newTestService(replying(tt.reply), mem).Forecast(context.Background(), user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			stored, err := mem.GetForecast(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Forecast)
		})
	}
}

func TestForecast_ModelErrorSurfaces(t *testing.T) {
	mem := memory.NewStore()
	upstream := errors.New("model unavailable")
	gen := &MockGenerator{GenerateFunc: func(context.Context, llm.Prompt) (string, error) { return "", upstream }}

	_, err := newTestService(gen, mem).Forecast(context.Background(), user)
	assert.ErrorIs(t, err, upstream)

	_, err = mem.GetForecast(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing persisted on model failure")
}

func TestForecast_PersistErrorSurfaces(t *testing.T) {
	writeErr := errors.New("write failed")
	forecasts := &failingForecastStore{UpsertFunc: func(context.Context, *domain.Prediction) (*domain.Prediction, error) {
		return nil, writeErr
	}}
	svc := NewService(Config{Generator: replying(`{"2026-11": 1}`), Transactions: memory.NewStore(), Forecasts: forecasts, Logger: zerolog.Nop()})

	_, err := svc.Forecast(context.Background(), user)
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, 1, forecasts.writes)
}

func TestForecast_EmptyHistory(t *testing.T) {
	gen := replying(`{}`)
	_, err := newTestService(gen, memory.NewStore()).Forecast(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, gen.Calls, 1)
	assert.Contains(t, gen.Calls[0].User, "YYYY-MM: {}")
}

func TestLatest_NotFound(t *testing.T) {
	_, err := newTestService(replying(`{}`), memory.NewStore()).Latest(context.Background(), user)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
