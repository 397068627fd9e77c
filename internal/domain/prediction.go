package domain

import "time"

// ForecastMethod tags predictions produced by the text-generation model.
const ForecastMethod = "llm-v1"

// ForecastHorizon is the number of future calendar months the forecaster asks for.
const ForecastHorizon = 6

// MonthlyForecast maps a "YYYY-MM" key to a projected total.
type MonthlyForecast map[string]float64

// Prediction is the persisted forecast document, one per user.
type Prediction struct {
	UID         string          `json:"uid"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Forecast    MonthlyForecast `json:"forecast"`
	Method      string          `json:"method"`
}
