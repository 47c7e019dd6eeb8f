package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gatewise/gatewise-core/internal/events"
)

// handleListEvents returns a page of the event log, newest first.
//
// Query parameters: category, kind, identity, limit, offset.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := events.Filter{
		Category: events.Category(q.Get("category")),
		Kind:     events.Kind(q.Get("kind")),
		Identity: q.Get("identity"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.events.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("event list query failed", "error", err)
		writeInternalError(w, "event query failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
