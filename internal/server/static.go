package server

import (
	"net/http"
	"os"
	"path/filepath"

	"padws/pkg/logging"

	"github.com/go-chi/chi/v5"
)

// mountStatic serves the frontend bundle. The SPA owns every path no
// other route claims, so unknown paths fall through to index.html and
// client-side routing takes over.
func (s *Server) mountStatic(r chi.Router) {
	staticDir := s.cfg.Frontend.StaticDir
	if staticDir == "" {
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		logging.Warn("Server", "Static directory %s not found, frontend disabled", staticDir)
		return
	}

	assetsDir := s.cfg.Frontend.AssetsDir
	if assetsDir == "" {
		assetsDir = filepath.Join(staticDir, "assets")
	}

	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir))))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	indexPath := filepath.Join(staticDir, "index.html")
	serveIndex := func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, indexPath)
	}

	r.Get("/", serveIndex)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		// API and auth misses stay 404s; everything else is an SPA route.
		switch {
		case hasPrefixSegment(req.URL.Path, "/api"), hasPrefixSegment(req.URL.Path, "/auth"):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		default:
			serveIndex(w, req)
		}
	})
}

func hasPrefixSegment(path, prefix string) bool {
	if len(path) < len(prefix) {
		return false
	}
	if path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
