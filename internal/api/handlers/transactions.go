package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/aggregate"
	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

// TransactionsHandler handles transaction and summary endpoints.
type TransactionsHandler struct {
	store        store.TransactionStore
	settings     store.SettingsStore
	homeCurrency string
	log          zerolog.Logger
	now          func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(txStore store.TransactionStore, settings store.SettingsStore, homeCurrency string, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store:        txStore,
		settings:     settings,
		homeCurrency: homeCurrency,
		log:          log,
		now:          time.Now,
	}
}

type createTransactionRequest struct {
	Amount     *float64 `json:"amount"`
	Currency   string   `json:"currency"`
	Category   string   `json:"category"`
	Merchant   *string  `json:"merchant"`
	Note       string   `json:"note"`
	Date       string   `json:"date"`
	Source     string   `json:"source"`
	ReceiptURL string   `json:"receipt_url"`
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = l
	}

	transactions, err := h.store.ListTransactions(r.Context(), id.UID, limit)
	if err != nil {
		h.fail(w, r, err, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var date civil.Date
	if req.Date != "" {
		d, err := civil.ParseDate(req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	source := req.Source
	switch source {
	case "":
		source = domain.SourceManual
	case domain.SourceManual, domain.SourceVoice:
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Invalid source")
		return
	}

	expense := domain.Expense{
		Amount:   req.Amount,
		Currency: req.Currency,
		Category: req.Category,
		Merchant: req.Merchant,
		Date:     date,
		Note:     req.Note,
	}.Normalize(domain.Defaults{
		Currency:   h.homeCurrency,
		Categories: h.categories(r, id.UID),
		Today:      civil.DateOf(h.now()),
	})

	tx := domain.TransactionFromExpense(id.UID, expense)
	tx.Source = source
	tx.ReceiptURL = strings.TrimSpace(req.ReceiptURL)

	created, err := h.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		h.fail(w, r, err, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, txID string) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var upd domain.TransactionUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if upd.Amount != nil && *upd.Amount < 0 {
		a := -*upd.Amount
		upd.Amount = &a
	}
	if upd.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*upd.Currency))
		upd.Currency = &c
	}
	if upd.Category != nil {
		c := domain.CanonicalCategory(h.categories(r, id.UID), *upd.Category)
		upd.Category = &c
	}

	updated, err := h.store.UpdateTransaction(r.Context(), id.UID, txID, upd)
	if err != nil {
		h.fail(w, r, err, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, txID string) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteTransaction(r.Context(), id.UID, txID); err != nil {
		h.fail(w, r, err, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/summary?period=month|year
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	transactions, err := h.store.ListTransactions(r.Context(), id.UID, 0)
	if err != nil {
		h.fail(w, r, err, "Failed to load transactions")
		return
	}

	period := aggregate.ParsePeriod(r.URL.Query().Get("period"))
	middleware.WriteJSON(w, http.StatusOK, aggregate.Summarize(transactions, period, h.now()))
}

// categories returns the caller's vocabulary, or the defaults if it cannot be read.
func (h *TransactionsHandler) categories(r *http.Request, uid string) []string {
	if h.settings == nil {
		return domain.DefaultCategories
	}
	cats, err := h.settings.GetCategories(r.Context(), uid)
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Warn().Err(err).Str("uid", uid).Msg("Falling back to default categories")
		return domain.DefaultCategories
	}
	return cats
}

func (h *TransactionsHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := storeErrorStatus(err)
	if status == http.StatusNotFound {
		middleware.WriteError(w, status, "Transaction not found")
		return
	}
	log := logger.FromContextOr(r.Context(), h.log)
	log.Error().Err(err).Msg(message)
	middleware.WriteError(w, status, message)
}
