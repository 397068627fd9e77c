package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/auth"
	"github.com/dvloznov/voice-expense-tracker/internal/extraction"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/metrics"
	"github.com/dvloznov/voice-expense-tracker/internal/store"
	"github.com/dvloznov/voice-expense-tracker/internal/voiceparse"
)

type parseRequest struct {
	Transcript string `json:"transcript"`
}

// ParseHandler serves the remote and local transcript parsers.
type ParseHandler struct {
	remote   RemoteParser
	local    *voiceparse.Parser
	settings store.SettingsStore
	log      zerolog.Logger
}

// NewParseHandler creates a parse handler. remote may be nil when no model is configured.
func NewParseHandler(remote RemoteParser, local *voiceparse.Parser, settings store.SettingsStore, log zerolog.Logger) *ParseHandler {
	return &ParseHandler{remote: remote, local: local, settings: settings, log: log}
}

// ParseRemote handles POST /parse
func (h *ParseHandler) ParseRemote(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing transcript")
		return
	}
	if h.remote == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Remote parsing is not configured")
		return
	}

	result, err := h.remote.ParseTranscript(r.Context(), req.Transcript)
	if errors.Is(err, extraction.ErrEmptyTranscript) {
		middleware.WriteError(w, http.StatusBadRequest, "Missing transcript")
		return
	}
	if err != nil {
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Msg("Remote parse failed")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// ParseLocal handles POST /api/parse/local
// Authenticated callers are parsed against their own category vocabulary.
func (h *ParseHandler) ParseLocal(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parser := h.local
	if id := auth.FromContext(r.Context()); id.Authenticated() && h.settings != nil {
		categories, err := h.settings.GetCategories(r.Context(), id.UID)
		if err != nil {
			log := logger.FromContextOr(r.Context(), h.log)
			log.Warn().Err(err).Str("uid", id.UID).Msg("Falling back to default categories")
		} else {
			parser = parser.ForCategories(categories)
		}
	}

	expense := parser.Parse(req.Transcript)
	outcome := metrics.OutcomeOK
	if expense.Amount == nil {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveParse(metrics.PathLocal, outcome)

	middleware.WriteJSON(w, http.StatusOK, expense)
}
