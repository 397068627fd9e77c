// Package api wires the HTTP handlers into a routed, middleware-wrapped handler.
package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/api/handlers"
	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Parse        *handlers.ParseHandler
	Forecast     *handlers.ForecastHandler
	Transactions *handlers.TransactionsHandler
	Categories   *handlers.CategoriesHandler
	Receipts     *handlers.ReceiptsHandler
	Liabilities  *handlers.LiabilitiesHandler
	Metrics      http.Handler
}

// NewRouter registers every endpoint on a new ServeMux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Parse endpoints
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Parse.ParseRemote(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/parse/local", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.Parse.ParseLocal(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Forecast endpoints
	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Forecast.RunForecast(w, r)
		case http.MethodGet:
			h.Forecast.LatestForecast(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Transactions.ListTransactions(w, r)
		case http.MethodPost:
			h.Transactions.CreateTransaction(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		// Extract transaction ID from path
		txID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if txID == "" || strings.Contains(txID, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Transactions.UpdateTransaction(w, r, txID)
		case http.MethodDelete:
			h.Transactions.DeleteTransaction(w, r, txID)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Transactions.Summary(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Categories.ListCategories(w, r)
		case http.MethodPost:
			h.Categories.AddCategory(w, r)
		case http.MethodDelete:
			h.Categories.RemoveCategory(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Liabilities endpoints
	mux.HandleFunc("/api/liabilities", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Liabilities.ListLiabilities(w, r)
		case http.MethodPost:
			h.Liabilities.CreateLiability(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/liabilities/", func(w http.ResponseWriter, r *http.Request) {
		liabilityID := strings.TrimPrefix(r.URL.Path, "/api/liabilities/")
		if liabilityID == "" || strings.Contains(liabilityID, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Liability ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Liabilities.UpdateLiability(w, r, liabilityID)
		case http.MethodDelete:
			h.Liabilities.DeleteLiability(w, r, liabilityID)
		default:
			methodNotAllowed(w)
		}
	})

	// Receipts endpoints
	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Receipts.UploadReceipt(w, r)
		case http.MethodDelete:
			h.Receipts.DeleteReceipt(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", handlers.Health)

	if h.Metrics != nil {
		mux.Handle("/metrics", h.Metrics)
	}

	return mux
}

// Wrap applies the middleware chain: Recovery, Logger, RequestID, CORS, then
// authentication closest to the handlers.
func Wrap(mux http.Handler, verifier auth.Verifier, log zerolog.Logger) http.Handler {
	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID,
		middleware.CORS,
		auth.Middleware(verifier, log),
	)
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
