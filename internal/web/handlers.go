package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/logging"
)

const healthCheckTimeout = 3 * time.Second

type healthResponse struct {
	Status  string                   `json:"status"`
	Backend string                   `json:"backend"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
	Error   string                   `json:"error,omitempty"`
}

// handleHealth reports 200 when the store answers a ping and 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Backend: s.cfg.Storage.Backend,
		Uploads: s.service.UploadLimiterStatus(),
	}

	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Message
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "no route for " + r.Method + " " + r.URL.Path,
		Message: "Not found",
		Code:    "HTTP404",
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   r.Method + " is not allowed on " + r.URL.Path,
		Message: "Method not allowed",
		Code:    "HTTP405",
	})
}
