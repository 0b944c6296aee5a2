package server

import (
	"net/http"
	"time"
)

// handleHealth reports liveness and uptime.
// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, requestID(), map[string]any{
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleSummary returns current occupancy counts.
// GET /api/v1/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, counts := s.scheduler.Snapshot()
	respondOK(w, requestID(), counts)
}

// handleUnits returns a snapshot of every unit in insertion order.
// GET /api/v1/units
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, _ := s.scheduler.Snapshot()
	respondOK(w, requestID(), units)
}
