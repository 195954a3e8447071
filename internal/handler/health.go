package handler

import "net/http"

type readiness interface {
	Ready() bool
}

type healthResponse struct {
	Status string `json:"status"`
}

func HealthHandler(storage readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !storage.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
