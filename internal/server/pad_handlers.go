package server

import (
	"encoding/json"
	"net/http"

	"padws/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxPadPayloadBytes bounds pad canvas payloads (the canvas JSON can
// be large, but not unbounded).
const maxPadPayloadBytes = 10 << 20

// loadPad resolves the {padID} route parameter and enforces access
// control. When requireOwner is set, only the pad owner passes. A nil
// return means the response has already been written.
func (s *Server) loadPad(w http.ResponseWriter, r *http.Request, requireOwner bool) (*store.Pad, *Principal) {
	principal := principalFrom(r.Context())

	padID, err := uuid.Parse(chi.URLParam(r, "padID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_ID", "invalid pad ID")
		return nil, nil
	}

	pad, err := s.store.Pads.GetByID(r.Context(), padID)
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "pad not found")
		return nil, nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to load pad")
		return nil, nil
	}

	if !pad.CanAccess(principal.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not authorized to access this pad")
		return nil, nil
	}
	if requireOwner && pad.OwnerID != principal.UserID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "only the pad owner can perform this operation")
		return nil, nil
	}

	return pad, principal
}

type createPadRequest struct {
	DisplayName  string          `json:"display_name"`
	TemplateName string          `json:"template_name"`
	Data         json.RawMessage `json:"data"`
}

// handleCreatePad creates a pad, optionally seeded from a named
// template, and opens it for the caller.
func (s *Server) handleCreatePad(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	var req createPadRequest
	if err := decodeJSON(w, r, &req, maxPadPayloadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	data := req.Data
	if req.TemplateName != "" {
		tpl, err := s.store.TemplatePads.GetByName(r.Context(), req.TemplateName)
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "template not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to load template")
			return
		}
		data = tpl.Data
		if req.DisplayName == "" {
			req.DisplayName = tpl.DisplayName
		}
	}

	pad, err := s.store.Pads.Create(r.Context(), principal.UserID, req.DisplayName, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to create pad")
		return
	}
	if err := s.store.Users.AddOpenPad(r.Context(), principal.UserID, pad.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to open pad")
		return
	}

	writeJSON(w, http.StatusCreated, pad)
}

// handleListPads lists metadata for pads the caller owns.
func (s *Server) handleListPads(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	pads, err := s.store.Pads.ListByOwner(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to list pads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pads": pads})
}

// handleGetPad returns a pad including its canvas data.
func (s *Server) handleGetPad(w http.ResponseWriter, r *http.Request) {
	pad, _ := s.loadPad(w, r, false)
	if pad == nil {
		return
	}
	writeJSON(w, http.StatusOK, pad)
}

type updatePadRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// handleUpdatePad replaces the canvas payload. Anyone with access may
// write; sharing a pad is sharing the canvas.
func (s *Server) handleUpdatePad(w http.ResponseWriter, r *http.Request) {
	pad, _ := s.loadPad(w, r, false)
	if pad == nil {
		return
	}

	var req updatePadRequest
	if err := decodeJSON(w, r, &req, maxPadPayloadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	if err := s.store.Pads.UpdateData(r.Context(), pad.ID, req.Data); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to update pad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type renamePadRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=200"`
}

// handleRenamePad changes the display name. Owner only.
func (s *Server) handleRenamePad(w http.ResponseWriter, r *http.Request) {
	pad, _ := s.loadPad(w, r, true)
	if pad == nil {
		return
	}

	var req renamePadRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	if err := s.store.Pads.Rename(r.Context(), pad.ID, req.DisplayName); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to rename pad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type setSharingRequest struct {
	Policy    store.SharingPolicy `json:"policy" validate:"required"`
	Whitelist []uuid.UUID         `json:"whitelist"`
}

// handleSetPadSharing updates the sharing policy. Owner only.
func (s *Server) handleSetPadSharing(w http.ResponseWriter, r *http.Request) {
	pad, _ := s.loadPad(w, r, true)
	if pad == nil {
		return
	}

	var req setSharingRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if !req.Policy.Valid() {
		writeError(w, http.StatusBadRequest, "BAD_POLICY", "sharing policy must be private, whitelist, or public")
		return
	}

	if err := s.store.Pads.SetSharingPolicy(r.Context(), pad.ID, req.Policy, req.Whitelist); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to update sharing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleOpenPad adds the pad to the caller's open list.
func (s *Server) handleOpenPad(w http.ResponseWriter, r *http.Request) {
	pad, principal := s.loadPad(w, r, false)
	if pad == nil {
		return
	}

	if err := s.store.Users.AddOpenPad(r.Context(), principal.UserID, pad.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to open pad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleClosePad removes the pad from the caller's open list.
func (s *Server) handleClosePad(w http.ResponseWriter, r *http.Request) {
	pad, principal := s.loadPad(w, r, false)
	if pad == nil {
		return
	}

	if err := s.store.Users.RemoveOpenPad(r.Context(), principal.UserID, pad.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to close pad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeletePad removes a pad. Owner only.
func (s *Server) handleDeletePad(w http.ResponseWriter, r *http.Request) {
	pad, _ := s.loadPad(w, r, true)
	if pad == nil {
		return
	}

	if err := s.store.Pads.Delete(r.Context(), pad.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to delete pad")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
