package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/voice-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/voice-expense-tracker/internal/logger"
	"github.com/dvloznov/voice-expense-tracker/internal/receipts"
)

// maxReceiptBytes bounds uploaded receipt images.
const maxReceiptBytes = 10 << 20

// ReceiptsHandler handles receipt uploads.
type ReceiptsHandler struct {
	svc ReceiptService
	log zerolog.Logger
}

// NewReceiptsHandler creates a receipts handler. svc may be nil when no bucket is configured.
func NewReceiptsHandler(svc ReceiptService, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc, log: log}
}

// UploadReceipt handles POST /api/receipts?filename=
// The request body is the raw image.
func (h *ReceiptsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.svc == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt uploads are disabled")
		return
	}

	filename := r.URL.Query().Get("filename")
	body := http.MaxBytesReader(w, r.Body, maxReceiptBytes)

	url, err := h.svc.Upload(r.Context(), id.UID, filename, r.Header.Get("Content-Type"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Receipt is too large")
		case errors.Is(err, receipts.ErrInvalidReceipt):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			log := logger.FromContextOr(r.Context(), h.log)
			log.Error().Err(err).Str("uid", id.UID).Msg("Failed to upload receipt")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload receipt")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// DeleteReceipt handles DELETE /api/receipts?url=
func (h *ReceiptsHandler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.svc == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt uploads are disabled")
		return
	}

	err := h.svc.Delete(r.Context(), id.UID, r.URL.Query().Get("url"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, receipts.ErrForeignReceipt):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, receipts.ErrInvalidReceipt):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log := logger.FromContextOr(r.Context(), h.log)
		log.Error().Err(err).Str("uid", id.UID).Msg("Failed to delete receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete receipt")
	}
}
