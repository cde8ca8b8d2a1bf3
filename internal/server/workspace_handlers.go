package server

import (
	"errors"
	"net/http"

	"padws/internal/coder"
	"padws/pkg/logging"
)

// handleWorkspaceState reports the caller's workspace lifecycle state.
// A workspace that was never provisioned (e.g. Coder was down at
// login) is created on demand here.
func (s *Server) handleWorkspaceState(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())
	username := principal.Claims.PreferredUsername

	state, err := s.coder.WorkspaceState(r.Context(), username)
	if coder.IsNotFound(err) {
		if _, _, err = s.coder.EnsureWorkspace(r.Context(), username); err == nil {
			state, err = s.coder.WorkspaceState(r.Context(), username)
		}
	}
	if err != nil {
		s.writeCoderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

// handleWorkspaceStart requests a start transition.
func (s *Server) handleWorkspaceStart(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	state, err := s.coder.StartWorkspace(r.Context(), principal.Claims.PreferredUsername)
	if err != nil {
		s.writeCoderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

// handleWorkspaceStop requests a stop transition.
func (s *Server) handleWorkspaceStop(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	state, err := s.coder.StopWorkspace(r.Context(), principal.Claims.PreferredUsername)
	if err != nil {
		s.writeCoderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

// writeCoderError maps Coder client errors onto API responses.
func (s *Server) writeCoderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coder.ErrUnauthorized):
		logging.Error("Workspace", err, "Coder API key rejected")
		writeError(w, http.StatusBadGateway, "CODER_AUTH", "workspace orchestrator rejected credentials")
	case coder.IsNotFound(err):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "workspace not found")
	default:
		logging.Error("Workspace", err, "Coder API call failed")
		writeError(w, http.StatusBadGateway, "CODER_ERROR", "workspace orchestrator unavailable")
	}
}
