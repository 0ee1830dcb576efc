package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// StaticHandler serves the built dashboard assets from a directory, falling
// back to index.html for client-side routes so deep links into the SPA
// resolve. Unknown /api/ paths get a JSON 404 instead of the fallback page.
type StaticHandler struct {
	dir    string
	logger *zap.Logger
}

// NewStaticHandler creates a static handler over the given asset directory.
func NewStaticHandler(dir string, logger *zap.Logger) *StaticHandler {
	return &StaticHandler{dir: dir, logger: logger}
}

// RegisterRoutes registers the catch-all routes on the given mux. It must
// run after every API handler so the specific patterns win.
func (h *StaticHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/", h.APINotFound)
	mux.HandleFunc("/auth/", h.APINotFound)
	mux.HandleFunc("/", h.Serve)
}

// APINotFound answers unrouted API paths with a JSON 404.
func (h *StaticHandler) APINotFound(w http.ResponseWriter, r *http.Request) {
	if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Unknown API route"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// Serve handles all remaining GET requests: real files from the asset
// directory, index.html for everything else.
func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Resolve inside the asset dir only; anything escaping it falls back.
	path := filepath.Join(h.dir, filepath.Clean("/"+r.URL.Path))
	if !strings.HasPrefix(path, filepath.Clean(h.dir)) {
		h.serveIndex(w, r)
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.serveIndex(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
