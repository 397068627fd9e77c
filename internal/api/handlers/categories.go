package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/domain"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
)

// CategoriesHandler handles the per-user category vocabulary.
type CategoriesHandler struct {
	settings store.SettingsStore
	log      zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(settings store.SettingsStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{settings: settings, log: log}
}

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	categories, err := h.settings.GetCategories(r.Context(), id.UID)
	if err != nil {
		h.fail(w, r, err, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// AddCategory handles POST /api/categories
func (h *CategoriesHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.modify(w, r, id.UID, http.StatusCreated, func(current []string) ([]string, error) {
		return domain.AddCategory(current, req.Name)
	})
}

// RemoveCategory handles DELETE /api/categories?name=
func (h *CategoriesHandler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("name")
	h.modify(w, r, id.UID, http.StatusOK, func(current []string) ([]string, error) {
		return domain.RemoveCategory(current, name)
	})
}

func (h *CategoriesHandler) modify(w http.ResponseWriter, r *http.Request, uid string, status int, change func([]string) ([]string, error)) {
	current, err := h.settings.GetCategories(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err, "Failed to load categories")
		return
	}

	next, err := change(current)
	if err != nil {
		middleware.WriteError(w, storeErrorStatus(err), err.Error())
		return
	}

	if err := h.settings.SaveCategories(r.Context(), uid, next); err != nil {
		h.fail(w, r, err, "Failed to save categories")
		return
	}

	middleware.WriteJSON(w, status, map[string]interface{}{
		"categories": next,
		"count":      len(next),
	})
}

func (h *CategoriesHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	log := logger.FromContextOr(r.Context(), h.log)
	log.Error().Err(err).Msg(message)
	middleware.WriteError(w, storeErrorStatus(err), message)
}
