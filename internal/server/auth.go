package server

import (
	"context"
	"errors"
	"net/http"

	"padws/internal/metrics"
	"padws/internal/oidc"
	"padws/internal/session"
	"padws/internal/store"
	"padws/pkg/logging"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Principal is the authenticated caller attached to the request
// context: verified claims plus the session they came from.
type Principal struct {
	SessionID string
	UserID    uuid.UUID
	Claims    *oidc.Claims
	Session   *session.Data
}

type ctxKey int

const principalKey ctxKey = iota

// principalFrom returns the Principal from the context, nil when the
// request is unauthenticated (possible under optionalAuth).
func principalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

var (
	errNotAuthenticated = errors.New("not authenticated")
	errSessionExpired   = errors.New("session expired")
)

// authenticate resolves the session cookie into a Principal. An
// expired access token is transparently refreshed with the stored
// refresh token; only when that fails is the session considered dead.
func (s *Server) authenticate(r *http.Request) (*Principal, error) {
	sessionID := session.IDFromRequest(r)
	if sessionID == "" {
		return nil, errNotAuthenticated
	}

	data, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errNotAuthenticated
	}

	if data.IsExpired() {
		data, err = s.refreshSession(r.Context(), sessionID, data)
		if err != nil {
			return nil, errSessionExpired
		}
	}

	claims, err := s.provider.VerifyAccessToken(r.Context(), data.AccessToken)
	if err != nil {
		logging.Warn("Auth", "Rejecting session with invalid token: %v", err)
		return nil, errNotAuthenticated
	}

	return &Principal{
		SessionID: sessionID,
		UserID:    store.UserIDFromSubject(claims.Subject),
		Claims:    claims,
		Session:   data,
	}, nil
}

// refreshSession performs a refresh grant and stores the rotated
// token set.
func (s *Server) refreshSession(ctx context.Context, sessionID string, data *session.Data) (*session.Data, error) {
	token, err := s.provider.Refresh(ctx, data.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}

	newData := sessionDataFromToken(token, data.IDToken)
	if err := s.sessions.Set(ctx, sessionID, newData); err != nil {
		return nil, err
	}

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	logging.Debug("Auth", "Refreshed tokens for session=%s", sessionID)
	return newData, nil
}

// sessionDataFromToken converts an OAuth2 token set into session data.
// fallbackIDToken is kept when the response carries no fresh ID token
// (refresh responses may omit it).
func sessionDataFromToken(token *oauth2.Token, fallbackIDToken string) *session.Data {
	idToken := fallbackIDToken
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		idToken = raw
	}
	return &session.Data{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
}

// requireAuth rejects unauthenticated requests with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, principal)))
	})
}

// optionalAuth attaches a Principal when the caller has a valid
// session, and lets the request through either way.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.authenticate(r)
		if err == nil && principal != nil {
			r = r.WithContext(context.WithValue(r.Context(), principalKey, principal))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects callers without the configured admin role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFrom(r.Context())
		if principal == nil || !principal.Claims.HasRole(s.adminRole) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
