package handlers

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/aggregate"
	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

// LiabilitiesHandler handles upcoming payment endpoints.
type LiabilitiesHandler struct {
	store        store.LiabilityStore
	homeCurrency string
	log          zerolog.Logger
	now          func() time.Time
}

// NewLiabilitiesHandler creates a new liabilities handler.
func NewLiabilitiesHandler(s store.LiabilityStore, homeCurrency string, log zerolog.Logger) *LiabilitiesHandler {
	return &LiabilitiesHandler{
		store:        s,
		homeCurrency: homeCurrency,
		log:          log,
		now:          time.Now,
	}
}

type createLiabilityRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	DueDate     string  `json:"due_date"`
	Note        string  `json:"note"`
	IsPaid      bool    `json:"is_paid"`
}

type liabilityView struct {
	*domain.Liability
	Status       domain.LiabilityStatus `json:"status"`
	DaysUntilDue int                    `json:"days_until_due"`
}

type liabilityListResponse struct {
	Liabilities []liabilityView `json:"liabilities"`
	aggregate.LiabilitySummary
}

// ListLiabilities handles GET /api/liabilities?status=all|pending|paid|overdue
// The totals always cover every liability of the caller, whatever the filter.
func (h *LiabilitiesHandler) ListLiabilities(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	filter, err := domain.ParseLiabilityFilter(r.URL.Query().Get("status"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid status, expected all, pending, paid or overdue")
		return
	}

	all, err := h.store.ListLiabilities(r.Context(), id.UID)
	if err != nil {
		h.fail(w, r, err, "Failed to list liabilities")
		return
	}

	today := h.today()
	resp := liabilityListResponse{
		Liabilities:      []liabilityView{},
		LiabilitySummary: aggregate.SummarizeLiabilities(all, today),
	}
	for _, l := range domain.FilterLiabilities(all, filter, today) {
		resp.Liabilities = append(resp.Liabilities, h.view(l, today))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// CreateLiability handles POST /api/liabilities
func (h *LiabilitiesHandler) CreateLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createLiabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l := &domain.Liability{
		UID:         id.UID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Note:        req.Note,
		IsPaid:      req.IsPaid,
	}
	if req.DueDate != "" {
		d, err := civil.ParseDate(req.DueDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		l.DueDate = d
	}
	if err := l.Normalize(h.homeCurrency); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateLiability(r.Context(), l)
	if err != nil {
		h.fail(w, r, err, "Failed to create liability")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, h.view(created, h.today()))
}

// UpdateLiability handles PUT /api/liabilities/{id}
func (h *LiabilitiesHandler) UpdateLiability(w http.ResponseWriter, r *http.Request, liabilityID string) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var upd domain.LiabilityUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if err := upd.Normalize(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.UpdateLiability(r.Context(), id.UID, liabilityID, upd)
	if err != nil {
		h.fail(w, r, err, "Failed to update liability")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.view(updated, h.today()))
}

// DeleteLiability handles DELETE /api/liabilities/{id}
func (h *LiabilitiesHandler) DeleteLiability(w http.ResponseWriter, r *http.Request, liabilityID string) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteLiability(r.Context(), id.UID, liabilityID); err != nil {
		h.fail(w, r, err, "Failed to delete liability")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LiabilitiesHandler) today() civil.Date {
	return civil.DateOf(h.now())
}

func (h *LiabilitiesHandler) view(l *domain.Liability, today civil.Date) liabilityView {
	return liabilityView{Liability: l, Status: l.Status(today), DaysUntilDue: l.DaysUntilDue(today)}
}

func (h *LiabilitiesHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := storeErrorStatus(err)
	if status == http.StatusNotFound {
		middleware.WriteError(w, status, "Liability not found")
		return
	}
	log := logger.FromContextOr(r.Context(), h.log)
	log.Error().Err(err).Msg(message)
	middleware.WriteError(w, status, message)
}
