package httpapi

import (
	"errors"
	"net/http"

	"github.com/gatewise/gatewise-core/internal/garage"
)

// triggerSourceAPI marks triggers arriving through the REST surface.
const triggerSourceAPI = "api"

// handleGarageStatus returns the current door state.
func (s *Server) handleGarageStatus(w http.ResponseWriter, _ *http.Request) {
	if s.garage == nil {
		writeUnavailable(w, "garage module disabled")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":              string(s.garage.State()),
		"auto_close_pending": s.garage.AutoClosePending(),
	})
}

// handleGarageTrigger pulses the door relay.
//
// A rate-limited trigger is a deliberate no-op and maps to 429; the
// caller can retry after the minimum interval.
func (s *Server) handleGarageTrigger(w http.ResponseWriter, _ *http.Request) {
	if s.garage == nil {
		writeUnavailable(w, "garage module disabled")
		return
	}

	err := s.garage.Trigger(triggerSourceAPI)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"state": string(s.garage.State()),
		})
	case errors.Is(err, garage.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "trigger rate limited")
	case errors.Is(err, garage.ErrClosed):
		writeUnavailable(w, "garage controller stopped")
	default:
		writeInternalError(w, "trigger failed")
	}
}

// handleAutoCloseCancel cancels a pending auto-close, if any.
func (s *Server) handleAutoCloseCancel(w http.ResponseWriter, _ *http.Request) {
	if s.garage == nil {
		writeUnavailable(w, "garage module disabled")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cancelled": s.garage.CancelAutoClose(),
	})
}
