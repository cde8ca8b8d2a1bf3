package server

import (
	"net/http"
	"path/filepath"

	"padws/internal/metrics"
	"padws/internal/oidc"
	"padws/internal/session"
	"padws/pkg/logging"
)

// handleLogin starts the authorization-code flow. A fresh session ID
// is set as a cookie and bound into the OAuth state so the callback
// can be linked back to this browser.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sessionID, err := session.NewSessionID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to create session")
		return
	}

	mode := oidc.LoginModeDefault
	if r.URL.Query().Get("popup") == "1" {
		mode = oidc.LoginModePopup
	}

	state, err := s.states.GenerateState(sessionID, mode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to create login state")
		return
	}

	authURL := s.provider.AuthCodeURL(state, r.URL.Query().Get("kc_idp_hint"))

	session.SetCookie(w, r, sessionID)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback terminates the authorization-code flow: it validates
// the state, exchanges the code, stores the token set in the session,
// mirrors the user into the database, and provisions the Coder side.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		logging.Warn("Auth", "Provider returned error on callback: %s - %s", errParam, query.Get("error_description"))
		writeError(w, http.StatusBadRequest, "AUTH_FAILED", "authentication failed at the identity provider")
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "BAD_CALLBACK", "missing authorization code")
		return
	}

	sessionID := session.IDFromRequest(r)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "NO_SESSION", "no session cookie")
		return
	}

	state := s.states.ValidateState(query.Get("state"))
	if state == nil {
		writeError(w, http.StatusBadRequest, "BAD_STATE", "login state is invalid or expired")
		return
	}
	if state.SessionID != sessionID {
		logging.Warn("Auth", "Callback session cookie does not match login state")
		writeError(w, http.StatusBadRequest, "BAD_STATE", "login state does not match session")
		return
	}

	token, err := s.provider.Exchange(r.Context(), code)
	if err != nil {
		logging.Error("Auth", err, "Code exchange failed")
		writeError(w, http.StatusBadRequest, "EXCHANGE_FAILED", "invalid token request")
		return
	}

	data := sessionDataFromToken(token, "")
	if err := s.sessions.Set(r.Context(), sessionID, data); err != nil {
		logging.Error("Auth", err, "Failed to store session")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to store session")
		return
	}
	s.sessions.TrackEvent(r.Context(), sessionID, "login")

	claims, err := s.provider.VerifyAccessToken(r.Context(), data.AccessToken)
	if err != nil {
		logging.Error("Auth", err, "Access token from exchange failed verification")
		writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "token verification failed")
		return
	}

	if _, err := s.store.Users.EnsureExists(r.Context(), claims); err != nil {
		logging.Error("Auth", err, "Failed to ensure user exists")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
		return
	}

	// Coder provisioning is best-effort: login proceeds even when the
	// orchestrator is down, the workspace is retried on first use.
	if coderUser, _, err := s.coder.EnsureUser(r.Context(), claims); err != nil {
		logging.Error("Auth", err, "Failed to ensure coder user for %s", claims.PreferredUsername)
	} else if _, _, err := s.coder.EnsureWorkspace(r.Context(), coderUser.Username); err != nil {
		logging.Error("Auth", err, "Failed to ensure workspace for %s", coderUser.Username)
	}

	metrics.Logins.Inc()
	logging.Info("Auth", "Login completed for user=%s session=%s", claims.PreferredUsername, sessionID)

	if state.Mode == oidc.LoginModePopup {
		http.ServeFile(w, r, filepath.Join(s.cfg.Frontend.StaticDir, "auth", "popup-close.html"))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout deletes the session and hands the frontend the
// provider's end-session URL to complete RP-initiated logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := session.IDFromRequest(r)
	if sessionID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil || data == nil {
		session.ClearCookie(w, r)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.sessions.TrackEvent(r.Context(), sessionID, "logout")
	metrics.Logouts.Inc()

	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		logging.Warn("Auth", "Failed to delete session %s: %v", sessionID, err)
	}
	session.ClearCookie(w, r)

	logoutURL := s.provider.LogoutURL(data.IDToken, s.cfg.Frontend.BaseURL)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"logout_url": logoutURL,
	})
}

// handleAuthStatus reports whether the caller is authenticated, with a
// user summary and token lifetime when they are.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"message":       "Not authenticated",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"id":       principal.UserID.String(),
			"username": principal.Claims.PreferredUsername,
			"email":    principal.Claims.Email,
			"name":     principal.Claims.Name,
		},
		"expires_in": principal.Session.ExpiresIn(),
	})
}

// handleRefresh forces a refresh grant for the current session.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sessionID := session.IDFromRequest(r)
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no session found")
		return
	}

	data, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil || data == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
		return
	}

	newData, err := s.refreshSession(r.Context(), sessionID, data)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "REFRESH_FAILED", "failed to refresh session")
		return
	}
	s.sessions.TrackEvent(r.Context(), sessionID, "refresh")

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"expires_in":    newData.ExpiresIn(),
	})
}
