package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
)

// ForecastHandler handles forecast endpoints.
type ForecastHandler struct {
	svc Forecaster
	log zerolog.Logger
}

// NewForecastHandler creates a forecast handler. svc may be nil when no model is configured.
func NewForecastHandler(svc Forecaster, log zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{svc: svc, log: log}
}

// RunForecast handles POST /api/forecast
func (h *ForecastHandler) RunForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.svc == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Forecasting is not configured")
		return
	}

	forecast, err := h.svc.Forecast(r.Context(), id)
	if errors.Is(err, auth.ErrUnauthenticated) {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("uid", id.UID).Msg("Forecast failed")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]domain.MonthlyForecast{"forecast": forecast})
}

// LatestForecast handles GET /api/forecast
func (h *ForecastHandler) LatestForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.svc == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Forecasting is not configured")
		return
	}

	prediction, err := h.svc.Latest(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "No forecast yet")
		return
	}
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("uid", id.UID).Msg("Failed to load forecast")
		middleware.WriteError(w, storeErrorStatus(err), "Failed to load forecast")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, prediction)
}
