package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gatewise/gatewise-core/internal/access"
)

// handleGetSchedule returns the full blackout schedule keyed by weekday.
func (s *Server) handleGetSchedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"days": s.schedule.Snapshot(),
	})
}

// schedulePutRequest is the body for PUT /api/v1/schedule.
type schedulePutRequest struct {
	Days map[string][]access.Interval `json:"days"`
}

// handlePutSchedule replaces the whole schedule atomically. A request
// with any invalid weekday or clock string changes nothing.
func (s *Server) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedulePutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.schedule.Replace(req.Days); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.schedule.Save(); err != nil {
		s.logger.Error("schedule save failed", "error", err)
		writeNotPersisted(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days": s.schedule.Snapshot(),
	})
}
