// Package server exposes the padws HTTP API: the OIDC login flow,
// user and pad resources, workspace lifecycle, and the static
// frontend bundle.
package server

import (
	"context"
	"net/http"

	"padws/internal/coder"
	"padws/internal/config"
	"padws/internal/oidc"
	"padws/internal/session"
	"padws/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// TokenProvider is the slice of oidc.Provider the server uses.
type TokenProvider interface {
	AuthCodeURL(state, idpHint string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	VerifyAccessToken(ctx context.Context, accessToken string) (*oidc.Claims, error)
	LogoutURL(idTokenHint, postLogoutRedirectURI string) string
}

// SessionStore is the slice of session.Store the server uses.
type SessionStore interface {
	Set(ctx context.Context, sessionID string, data *session.Data) error
	Get(ctx context.Context, sessionID string) (*session.Data, error)
	Delete(ctx context.Context, sessionID string) error
	TrackEvent(ctx context.Context, sessionID, name string)
}

// WorkspaceClient is the slice of coder.Client the server uses.
type WorkspaceClient interface {
	EnsureUser(ctx context.Context, claims *oidc.Claims) (*coder.User, bool, error)
	EnsureWorkspace(ctx context.Context, username string) (*coder.Workspace, bool, error)
	WorkspaceState(ctx context.Context, username string) (coder.State, error)
	StartWorkspace(ctx context.Context, username string) (coder.State, error)
	StopWorkspace(ctx context.Context, username string) (coder.State, error)
}

// Server holds the wired dependencies behind the HTTP API.
type Server struct {
	cfg       config.Config
	provider  TokenProvider
	states    *oidc.StateStore
	sessions  SessionStore
	store     *store.Store
	coder     WorkspaceClient
	adminRole string
}

// New wires a Server. The state store is owned by the server and
// stopped via Close.
func New(cfg config.Config, provider TokenProvider, sessions SessionStore, st *store.Store, coderClient WorkspaceClient) *Server {
	adminRole := cfg.OIDC.AdminRole
	if adminRole == "" {
		adminRole = config.DefaultAdminRole
	}
	return &Server{
		cfg:       cfg,
		provider:  provider,
		states:    oidc.NewStateStore(),
		sessions:  sessions,
		store:     st,
		coder:     coderClient,
		adminRole: adminRole,
	}
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.states.Stop()
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Get("/logout", s.handleLogout)
		r.With(s.optionalAuth).Get("/status", s.handleAuthStatus)
		r.Post("/refresh", s.handleRefresh)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Post("/me/last-selected-pad", s.handleSetLastSelectedPad)
			r.Get("/me/open-pads", s.handleOpenPads)
		})

		r.Route("/workspace", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleWorkspaceState)
			r.Post("/start", s.handleWorkspaceStart)
			r.Post("/stop", s.handleWorkspaceStop)
		})

		r.Route("/pad", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreatePad)
			r.Get("/", s.handleListPads)
			r.Route("/{padID}", func(r chi.Router) {
				r.Get("/", s.handleGetPad)
				r.Put("/", s.handleUpdatePad)
				r.Post("/rename", s.handleRenamePad)
				r.Post("/sharing", s.handleSetPadSharing)
				r.Post("/open", s.handleOpenPad)
				r.Post("/close", s.handleClosePad)
				r.Delete("/", s.handleDeletePad)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.With(s.requireAuth).Get("/", s.handleListTemplates)
			r.With(s.requireAuth).Get("/{name}", s.handleGetTemplate)
			r.With(s.requireAdmin).Post("/", s.handleCreateTemplate)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	s.mountStatic(r)

	return r
}

// HTTPServer builds the net/http server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}
}
