package server

import (
	"context"
	"net/http"
	"time"
)

// handleRoot describes the running service.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"message": s.appName,
		"version": s.version,
		"status":  "running",
		"debug":   s.debug,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	AppName   string `json:"app_name"`
	Database  string `json:"database"`
	DebugMode bool   `json:"debug_mode"`
}

// handleHealth reports service and database health. It always answers 200;
// a failed database ping turns the status to "unhealthy".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "healthy"
	if s.articles == nil {
		database = "unhealthy: database not configured"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.articles.Ping(ctx); err != nil {
			database = "unhealthy: " + err.Error()
		}
	}

	status := "healthy"
	if database != "healthy" {
		status = "unhealthy"
	}

	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: s.now().Format(time.RFC3339),
		Version:   s.version,
		AppName:   s.appName,
		Database:  database,
		DebugMode: s.debug,
	})
}

// handleListVoices lists the speech provider's voices.
func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	if s.voices == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Speech service not configured")
		return
	}

	voices, err := s.voices.Voices(r.Context())
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"voices":      voices,
		"total_count": len(voices),
	})
}
