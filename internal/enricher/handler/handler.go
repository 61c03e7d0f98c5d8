// Package handler exposes the enrichment push endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"privacy-consent/internal/events"
	"privacy-consent/internal/platform/middleware"
	"privacy-consent/internal/transport/httputil"
	dErrors "privacy-consent/pkg/domain-errors"
)

// Service defines the interface for enrichment rounds.
type Service interface {
	EnrichAndPublish(ctx context.Context, decisionAuditID int64) error
}

// Handler handles push-delivered enrichment triggers.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new enrichment Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the enrichment routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/enrich", h.handleEnrich)
	r.Get("/ping", h.handlePing)
}

// handleEnrich processes one push delivery. Structurally invalid envelopes
// get a client error; a stale audit id is acknowledged with success so the
// channel never sees a permanent rejection for a well-formed message.
func (h *Handler) handleEnrich(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var envelope events.PushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.WarnContext(ctx, "failed to decode push envelope",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid push envelope"))
		return
	}

	msg, err := envelope.Message.DecodeData()
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode push message data",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing or malformed message data"))
		return
	}

	if err := h.service.EnrichAndPublish(ctx, msg.DecisionAuditID); err != nil {
		h.logger.ErrorContext(ctx, "failed to enrich decision",
			"request_id", requestID,
			"decision_audit_id", msg.DecisionAuditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
