package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatewise/gatewise-core/internal/garage"
	"github.com/gatewise/gatewise-core/internal/infrastructure/logging"
)

// triggerSourceScan marks garage triggers that follow an allowed scan.
const triggerSourceScan = "scan"

// scanRequest is the body for POST /api/v1/access/scan.
type scanRequest struct {
	Identity      string `json:"identity"`
	TriggerGarage bool   `json:"trigger_garage"`
}

// scanResponse is the decision returned to the scanning device.
type scanResponse struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason"`
	GarageTriggered bool   `json:"garage_triggered"`
}

// handleScan evaluates one presented identity and optionally forwards an
// allowed decision to the garage controller.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Identity == "" {
		writeBadRequest(w, "identity is required")
		return
	}

	verdict := s.engine.Decide(req.Identity, time.Now())

	resp := scanResponse{
		Allowed: verdict.Allowed,
		Reason:  string(verdict.Reason),
	}

	if verdict.Allowed && req.TriggerGarage && s.garage != nil {
		if err := s.garage.Trigger(triggerSourceScan); err != nil {
			if !errors.Is(err, garage.ErrRateLimited) {
				s.logger.Warn("scan trigger failed",
					"identity", logging.RedactIdentity(req.Identity),
					"error", err,
				)
			}
		} else {
			resp.GarageTriggered = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
