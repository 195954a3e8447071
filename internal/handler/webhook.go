package handler

import (
	"io"
	"log/slog"
	"net/http"

	"meostore/internal/service"
)

const maxWebhookBody = 1 << 20

type ackResponse struct {
	Success bool `json:"success"`
}

// CassoWebhookHandler always acknowledges with 200 so the aggregator does
// not redeliver; outcomes are reported through logs and metrics.
func CassoWebhookHandler(webhookSvc *service.WebhookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			slog.ErrorContext(r.Context(), "read webhook body failed", "error", err)
			writeJSON(w, http.StatusOK, ackResponse{Success: true})
			return
		}

		result, err := webhookSvc.Handle(r.Context(), body, r.Header.Get(service.SignatureHeader))
		if err != nil {
			slog.WarnContext(r.Context(), "webhook not applied", "result", result, "error", err)
		}

		writeJSON(w, http.StatusOK, ackResponse{Success: true})
	}
}
