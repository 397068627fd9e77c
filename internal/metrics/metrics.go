// Package metrics holds the Prometheus collectors for parse and forecast outcomes.
// Collectors register with the default registry through promauto.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Parse paths and outcomes.
const (
	PathLocal  = "local"
	PathRemote = "remote"

	OutcomeOK      = "ok"
	OutcomeFailure = "parse_failure"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

var (
	expenseParse = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_parse_total",
			Help: "Total number of transcript parses by path and outcome",
		},
		[]string{"path", "outcome"}, // local|remote, ok|parse_failure|error
	)

	jsonRecovery = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "json_recovery_total",
			Help: "Total number of model replies by the recovery strategy that decoded them",
		},
		[]string{"strategy"}, // strict, code_fence, brace_span, none
	)

	forecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_total",
			Help: "Total number of forecast runs by outcome",
		},
		[]string{"outcome"}, // ok, empty, error
	)

	modelDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_request_duration_seconds",
			Help:    "Duration of text-generation requests in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"}, // parse, forecast
	)
)

// ObserveParse counts one transcript parse.
func ObserveParse(path, outcome string) {
	expenseParse.WithLabelValues(path, outcome).Inc()
}

// ObserveRecovery counts one model reply by recovery strategy; use "none" when every
// strategy failed.
func ObserveRecovery(strategy string) {
	if strategy == "" {
		strategy = "none"
	}
	jsonRecovery.WithLabelValues(strategy).Inc()
}

// ObserveForecast counts one forecast run.
func ObserveForecast(outcome string) {
	forecastRuns.WithLabelValues(outcome).Inc()
}

// ObserveModelCall records the duration of one model request started at start.
func ObserveModelCall(operation string, start time.Time) {
	modelDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
