// Package health exposes liveness and metrics HTTP endpoints backed by the
// orchestrator's status query.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"edgewatch/internal/logger"
)

// StatusProvider returns the current orchestrator status fields.
type StatusProvider func() map[string]any

// Server serves /, /health and /metrics.
type Server struct {
	srv    *http.Server
	status StatusProvider
}

// New creates a health server listening on the given port.
func New(port int, status StatusProvider) *Server {
	s := &Server{status: status}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.WithComponent("health").Infof("health server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithComponent("health").Errorf("health server failed: %v", err)
		}
	}()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "edgewatch",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status, err := s.queryStatus()
	if err != nil {
		logger.WithComponent("health").Errorf("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"tracked_markets": status["tracked_markets"],
		"last_check":      status["last_check"],
		"alerts_today":    status["alerts_today"],
		"uptime_seconds":  status["uptime_seconds"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	status, err := s.queryStatus()
	if err != nil {
		logger.WithComponent("health").Errorf("metrics query failed: %v", err)
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tracked_markets":       status["tracked_markets"],
		"edge_markets":          status["edge_markets"],
		"alerts_sent_today":     status["alerts_today"],
		"poll_interval_seconds": status["poll_interval_seconds"],
		"last_check_timestamp":  status["last_check"],
		"uptime_seconds":        status["uptime_seconds"],
		"initial_scan_done":     status["initial_scan_done"],
	})
}

// queryStatus shields the handlers from a panicking provider so a broken
// orchestrator degrades to 503 instead of killing the connection.
func (s *Server) queryStatus() (status map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = nil
			err = fmt.Errorf("status query panicked: %v", r)
		}
	}()
	return s.status(), nil
}

func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithComponent("health").Warnf("failed to encode response: %v", err)
	}
}
