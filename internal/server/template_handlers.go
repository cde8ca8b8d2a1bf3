package server

import (
	"encoding/json"
	"net/http"
	"regexp"

	"padws/internal/store"

	"github.com/go-chi/chi/v5"
)

var templateNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// handleListTemplates returns all template pads.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.TemplatePads.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// handleGetTemplate returns a single template by name.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.store.TemplatePads.GetByName(r.Context(), chi.URLParam(r, "name"))
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to load template")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

type createTemplateRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	DisplayName string          `json:"display_name" validate:"required,max=200"`
	Data        json.RawMessage `json:"data"`
}

// handleCreateTemplate registers a new template pad. Admin only; the
// route is guarded by requireAdmin.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(w, r, &req, maxPadPayloadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if !templateNamePattern.MatchString(req.Name) {
		writeError(w, http.StatusBadRequest, "BAD_NAME", "template name must be lowercase alphanumeric with dashes or underscores")
		return
	}

	tpl, err := s.store.TemplatePads.Upsert(r.Context(), req.Name, req.DisplayName, req.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "failed to store template")
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}
