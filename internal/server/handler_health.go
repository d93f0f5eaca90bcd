package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	RunsBusy  int    `json:"runs_in_flight"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	storeStatus := "unavailable"
	if s.store != nil {
		storeStatus = "ok"
		if _, _, err := s.store.ListRuns(r.Context(), listOne); err != nil {
			s.logger.Warn("health check: store query failed", "error", err)
			storeStatus = "error"
		}
	}

	status := "healthy"
	if storeStatus != "ok" {
		status = "degraded"
	}
	respondOK(w, reqID, healthResponse{
		Status:    status,
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     storeStatus,
		RunsBusy:  s.limiter.inFlight(),
	})
}
