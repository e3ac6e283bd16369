package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/remindly/issue-reminder/internal/api/middleware"
	"github.com/remindly/issue-reminder/internal/service"
	"github.com/remindly/issue-reminder/internal/webhook"
)

// WebhookHandler receives issue webhook deliveries from the tracker.
type WebhookHandler struct {
	intake  *service.Intake
	onEvent func(outcome string)
	logger  *zap.Logger
}

// NewWebhookHandler constructs the handler. onEvent is the metrics callback
// for intake outcomes; nil means no-op.
func NewWebhookHandler(intake *service.Intake, onEvent func(string), logger *zap.Logger) *WebhookHandler {
	if onEvent == nil {
		onEvent = func(string) {}
	}
	return &WebhookHandler{intake: intake, onEvent: onEvent, logger: logger}
}

// Receive handles POST /webhook/issue
//
// The signature covers the raw body bytes, so the body must be read before
// any decoding. Request size is already capped by middleware.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.onEvent("rejected")
		respondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	result, err := h.intake.Apply(r.Context(), body, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		h.logger.Warn("webhook rejected",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		h.onEvent("rejected")
		mapError(w, err)
		return
	}

	h.onEvent(string(result))
	respondJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}
