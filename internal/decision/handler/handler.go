// Package handler exposes the decision service endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"privacy-consent/internal/decision/models"
	"privacy-consent/internal/platform/middleware"
	"privacy-consent/internal/platform/privacy"
	"privacy-consent/internal/transport/httputil"
	dErrors "privacy-consent/pkg/domain-errors"
)

// Service defines the interface for decision operations.
type Service interface {
	SaveDecisions(ctx context.Context, inputs []models.DecisionInput, userID string, idTypeID int) ([]int64, error)
	History(ctx context.Context, userID string, idTypeID, consentID int) ([]models.HistoryEntry, error)
	Retract(ctx context.Context, req models.RetractRequest) error
	UpdateLast(ctx context.Context, req models.UpdateLastRequest) error
	ShortDecisions(ctx context.Context, queries []models.ShortQuery) ([]models.ShortDecision, error)
	MarkSeen(ctx context.Context, decisionIDs []int) error
	PurgeTestUser(ctx context.Context, userID string, idTypeID int) error
}

// Handler handles decision-related endpoints.
type Handler struct {
	logger   *slog.Logger
	decision Service
}

// New creates a new decision Handler.
func New(decision Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		decision: decision,
	}
}

// Register registers the decision routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/serviceapi", func(r chi.Router) {
		r.Put("/user-consent-decisions", h.handleSaveDecisions)
		r.Get("/user-consent-decision-history", h.handleHistory)
		r.Post("/user-consent-decisions-short", h.handleShortDecisions)
		r.Patch("/retract-last-user-consent-decision", h.handleRetract)
		r.Patch("/update-last-user-consent-decision", h.handleUpdateLast)
		r.Patch("/user-consent-decisions-seen", h.handleMarkSeen)
		r.Delete("/test-user", h.handlePurgeTestUser)
	})
}

// handleSaveDecisions records an ordered batch of decisions. The caller
// identity is taken from the first item; the response is the ordered list of
// generated audit ids, possibly shorter than the input when expressions were
// unknown.
func (h *Handler) handleSaveDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var decisions []models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&decisions); err != nil {
		h.logger.WarnContext(ctx, "failed to decode decisions request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(decisions) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "decisions list cannot be empty"))
		return
	}

	inputs := make([]models.DecisionInput, 0, len(decisions))
	for _, d := range decisions {
		inputs = append(inputs, d.Input())
	}

	first := decisions[0]
	auditIDs, err := h.decision.SaveDecisions(ctx, inputs, first.UserID, first.IDTypeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save decisions",
			"request_id", requestID,
			"user_id", privacy.MaskUserID(first.UserID),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, auditIDs)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	idTypeID, okType := queryInt(r, "id_type_id")
	consentID, okConsent := queryInt(r, "consent_id")
	if userID == "" || !okType || !okConsent {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id, id_type_id and consent_id are required"))
		return
	}

	history, err := h.decision.History(ctx, userID, idTypeID, consentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read decision history",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", privacy.MaskUserID(userID),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}

	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleShortDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	queries, ok := httputil.DecodeJSON[[]models.ShortQuery](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.decision.ShortDecisions(ctx, *queries)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if results == nil {
		results = []models.ShortDecision{}
	}

	httputil.WriteJSON(w, http.StatusOK, results)
}

func (h *Handler) handleRetract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[models.RetractRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.decision.Retract(ctx, *req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleUpdateLast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[models.UpdateLastRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.decision.UpdateLast(ctx, *req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[models.LastSeenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.decision.MarkSeen(ctx, req.DecisionIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePurgeTestUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	idTypeID, okType := queryInt(r, "id_type_id")
	if userID == "" || !okType {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id and id_type_id are required"))
		return
	}

	if err := h.decision.PurgeTestUser(ctx, userID, idTypeID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
