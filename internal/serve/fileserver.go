package serve

import (
	"bytes"
	"html"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// buildStatus tracks the latest build result for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (s *buildStatus) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
}

func (s *buildStatus) setSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
	s.hasGoodBuild = true
}

func (s *buildStatus) snapshot() (err error, hasGoodBuild bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError, s.hasGoodBuild
}

// siteHandler serves the built site from disk. HTML responses get the
// livereload script injected when enabled; while no successful build
// exists the build error is shown instead.
type siteHandler struct {
	siteDir string
	status  *buildStatus
	inject  bool
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err, good := h.status.snapshot(); !good && err != nil {
		h.writeErrorPage(w, err)
		return
	}

	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" {
		rel = "index.html"
	}
	target := filepath.Join(h.siteDir, filepath.FromSlash(rel))

	if st, err := os.Stat(target); err == nil && st.IsDir() {
		target = filepath.Join(target, "index.html")
	}
	if _, err := os.Stat(target); err != nil {
		h.writeNotFound(w)
		return
	}

	if h.inject && strings.HasSuffix(target, ".html") {
		data, err := os.ReadFile(target)
		if err != nil {
			http.Error(w, "read error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(injectScript(data))
		return
	}
	http.ServeFile(w, r, target)
}

// writeNotFound serves the themed 404 page when the build produced one.
func (h *siteHandler) writeNotFound(w http.ResponseWriter) {
	data, err := os.ReadFile(filepath.Join(h.siteDir, "404.html"))
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if h.inject {
		data = injectScript(data)
	}
	_, _ = w.Write(data)
}

func (h *siteHandler) writeErrorPage(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><title>Build failed</title></head><body>")
	sb.WriteString("<h1>Build failed</h1><pre>")
	sb.WriteString(html.EscapeString(buildErr.Error()))
	sb.WriteString("</pre><p>Fix the error and save; the page reloads automatically.</p>")
	if h.inject {
		sb.WriteString(liveReloadScript)
	}
	sb.WriteString("</body></html>")
	_, _ = w.Write([]byte(sb.String()))
}

// injectScript inserts the livereload script before </body>, or appends it
// when the page has no closing body tag.
func injectScript(page []byte) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		return append(page, []byte(liveReloadScript)...)
	}
	var buf bytes.Buffer
	buf.Grow(len(page) + len(liveReloadScript))
	buf.Write(page[:idx])
	buf.WriteString(liveReloadScript)
	buf.Write(page[idx:])
	return buf.Bytes()
}
