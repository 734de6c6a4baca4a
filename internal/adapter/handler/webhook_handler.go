package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rl1809/giftpay/internal/adapter/gateway"
	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/core/service"
	"github.com/rl1809/giftpay/internal/metrics"
)

const (
	maxWebhookBody         = 64 << 10
	DefaultSignatureHeader = "X-Signature"
)

type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WebhookHandler receives gateway payment notifications. Only storage
// failures answer 5xx, so the gateway retries those and nothing else.
type WebhookHandler struct {
	reconciler      *service.ReconcileService
	signatureHeader string
	log             *slog.Logger
}

func NewWebhookHandler(reconciler *service.ReconcileService, signatureHeader string, log *slog.Logger) *WebhookHandler {
	if signatureHeader == "" {
		signatureHeader = DefaultSignatureHeader
	}
	return &WebhookHandler{
		reconciler:      reconciler,
		signatureHeader: signatureHeader,
		log:             log.With(slog.String("component", "webhook")),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.reject(w, "invalid_payload", "unreadable body", err)
		return
	}

	n, err := gateway.ParseWebhook(body)
	if err != nil {
		h.reject(w, "invalid_payload", "invalid payload", err)
		return
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), n, r.Header.Get(h.signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthentication):
			h.reject(w, "unauthenticated", "invalid signature", err)
		case errors.Is(err, domain.ErrMalformedReference):
			h.reject(w, "malformed_reference", "malformed order reference", err)
		case errors.Is(err, domain.ErrAmountMismatch):
			h.reject(w, "amount_mismatch", "amount mismatch", err)
		default:
			metrics.Webhooks.WithLabelValues("error").Inc()
			h.log.Error("webhook reconciliation failed",
				slog.String("order_ref", n.OrderRef),
				slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, WebhookResponse{
				Success: false,
				Message: "internal error",
			})
		}
		return
	}

	metrics.Webhooks.WithLabelValues(string(outcome)).Inc()
	writeJSON(w, http.StatusOK, WebhookResponse{
		Success: true,
		Message: string(outcome),
	})
}

func (h *WebhookHandler) reject(w http.ResponseWriter, outcome, message string, err error) {
	metrics.Webhooks.WithLabelValues(outcome).Inc()
	h.log.Warn("webhook rejected",
		slog.String("reason", outcome),
		slog.Any("error", err))
	writeJSON(w, http.StatusBadRequest, WebhookResponse{
		Success: false,
		Message: message,
	})
}
