package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// contentType picks a Content-Type from the file extension, falling back to
// plain text.
func contentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "text/plain; charset=utf-8"
}

// staticPath maps a request path to a slash-separated path relative to the
// static directory. "/" is the index page and the "/static/" prefix is
// dropped. The result never escapes the directory.
func staticPath(urlPath string) string {
	switch {
	case urlPath == "/" || urlPath == "":
		return indexFile
	case strings.HasPrefix(urlPath, "/static/"):
		urlPath = strings.TrimPrefix(urlPath, "/static")
	}
	return strings.TrimPrefix(path.Clean("/"+urlPath), "/")
}

// handleStatic serves files from the static directory. It also backs the
// router's NotFound, so anything that is not an API route lands here.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeStatus(w, http.StatusNotFound)
		return
	}

	rel := staticPath(r.URL.Path)
	if rel == "" {
		writeStatus(w, http.StatusNotFound)
		return
	}

	full := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(rel))
	f, err := os.Open(full)
	if err != nil {
		writeStatus(w, http.StatusNotFound)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeStatus(w, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType(rel))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
