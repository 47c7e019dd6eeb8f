package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatewise/gatewise-core/internal/access"
	"github.com/gatewise/gatewise-core/internal/infrastructure/logging"
)

// userRequest is the body for user create and update calls.
type userRequest struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// handleListUsers returns the full roster sorted by UID.
func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"users": s.registry.List(),
	})
}

// handleUpsertUser creates or replaces one user.
//
// The mutation applies in memory first; a failed save returns 502 so
// the admin knows the change will not survive a restart.
func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.UID == "" {
		writeBadRequest(w, "uid is required")
		return
	}

	s.registry.Upsert(access.User{UID: req.UID, Name: req.Name, IsAdmin: req.IsAdmin})
	s.persistUsers(w, req.UID, http.StatusCreated)
}

// handleUpdateUser replaces an existing user's name and admin flag.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if _, ok := s.registry.Lookup(uid); !ok {
		writeNotFound(w, "user not found")
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	s.registry.Upsert(access.User{UID: uid, Name: req.Name, IsAdmin: req.IsAdmin})
	s.persistUsers(w, uid, http.StatusOK)
}

// handleDeleteUser removes one user from the roster.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	if err := s.registry.Remove(uid); err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeInternalError(w, "delete failed")
		return
	}

	s.persistUsers(w, uid, http.StatusOK)
}

// persistUsers saves the roster, syncs door modules on success, and
// writes the mutation response.
func (s *Server) persistUsers(w http.ResponseWriter, uid string, okStatus int) {
	if err := s.registry.Save(); err != nil {
		s.logger.Error("user store save failed",
			"uid", logging.RedactIdentity(uid),
			"error", err,
		)
		writeNotPersisted(w)
		return
	}

	s.notifier.SyncUsers(s.registry.List())
	writeJSON(w, okStatus, map[string]any{"uid": uid})
}
