package server

import (
	"net/http"

	"padws/internal/store"

	"github.com/google/uuid"
)

// handleMe returns the caller's user record, creating it on first
// access so a valid token never 404s here.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	user, err := s.store.Users.GetByID(r.Context(), principal.UserID)
	if store.IsNotFound(err) {
		user, err = s.store.Users.EnsureExists(r.Context(), principal.Claims)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type setLastSelectedPadRequest struct {
	PadID *uuid.UUID `json:"pad_id"`
}

// handleSetLastSelectedPad records the pad the user last focused.
// A null pad_id clears the selection.
func (s *Server) handleSetLastSelectedPad(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	var req setLastSelectedPadRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	if req.PadID != nil {
		pad, err := s.store.Pads.GetByID(r.Context(), *req.PadID)
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "pad not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to load pad")
			return
		}
		if !pad.CanAccess(principal.UserID) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "not authorized to access this pad")
			return
		}
	}

	if err := s.store.Users.SetLastSelectedPad(r.Context(), principal.UserID, req.PadID); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to update selection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleOpenPads lists metadata for the caller's open pads.
func (s *Server) handleOpenPads(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	pads, err := s.store.Users.OpenPads(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to list open pads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pads": pads})
}
