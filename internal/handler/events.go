package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"meostore/internal/notify"
)

const heartbeatInterval = 25 * time.Second

// EventsHandler streams payment_success events as server-sent events.
// Observers only receive events published while they are connected.
func EventsHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		// the server write timeout would otherwise cut the stream
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			slog.DebugContext(r.Context(), "clear write deadline", "error", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		sub, cancel := hub.Subscribe()
		defer cancel()
		slog.InfoContext(r.Context(), "event subscriber connected", "subscriber", sub.ID)

		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil || rc.Flush() != nil {
			return
		}

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				slog.InfoContext(r.Context(), "event subscriber disconnected", "subscriber", sub.ID)
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeEvent(w, msg); err != nil {
					slog.WarnContext(r.Context(), "event delivery failed", "subscriber", sub.ID, "error", err)
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, msg notify.Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Event, data)
	return err
}
