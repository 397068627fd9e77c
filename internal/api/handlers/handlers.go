package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/extraction"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// RemoteParser turns a transcript into an expense record using the model.
type RemoteParser interface {
	ParseTranscript(ctx context.Context, transcript string) (extraction.Result, error)
}

// Forecaster runs and reads monthly spending forecasts for a caller.
type Forecaster interface {
	Forecast(ctx context.Context, id auth.Identity) (domain.MonthlyForecast, error)
	Latest(ctx context.Context, id auth.Identity) (*domain.Prediction, error)
}

// ReceiptService stores receipt images for a user.
type ReceiptService interface {
	Upload(ctx context.Context, uid, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, uid, url string) error
}

// requireIdentity writes 401 and returns false when the caller is anonymous.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id := auth.FromContext(r.Context())
	if !id.Authenticated() {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return auth.Identity{}, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// storeErrorStatus maps store errors to an HTTP status.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCategory), errors.Is(err, domain.ErrLastCategory),
		errors.Is(err, domain.ErrInvalidLiability):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
