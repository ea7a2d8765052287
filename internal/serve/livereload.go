package serve

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mkpages/mkpages/internal/metrics"
)

// livereloadPath is the SSE endpoint the injected script connects to.
const livereloadPath = "/.mkpages/livereload"

// LiveReloadHub manages SSE clients for build-change broadcasts. Each
// successful rebuild broadcasts a token; clients reload when it changes.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*lrClient
	closed    bool
	lastToken string

	logger   *slog.Logger
	recorder metrics.Recorder
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates an empty hub.
func NewLiveReloadHub(logger *slog.Logger, recorder metrics.Recorder) *LiveReloadHub {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{
		clients:  map[int]*lrClient{},
		logger:   logger,
		recorder: recorder,
	}
}

// ServeHTTP implements the SSE endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastToken
	count := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLivereloadClients(count)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"token\":\"" + current + "\"}\n\n"); err != nil {
			h.removeClient(client.id)
			return
		}
	}
	if err := bw.Flush(); err != nil {
		h.removeClient(client.id)
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		case token := <-client.ch:
			if _, err := bw.WriteString("data: {\"token\":\"" + token + "\"}\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	var count int
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
	count = len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLivereloadClients(count)
}

// Clients returns the number of connected clients.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes a new token to every client. Clients whose buffers are
// full are dropped; they reconnect on their own.
func (h *LiveReloadHub) Broadcast(token string) {
	h.mu.Lock()
	if h.closed || token == "" || token == h.lastToken {
		h.mu.Unlock()
		return
	}
	h.lastToken = token
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- token:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.logger.Debug("livereload broadcast",
		slog.Int("clients", len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown closes all clients and rejects new connections.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLivereloadClients(0)
}

// liveReloadScript is injected into served HTML pages.
const liveReloadScript = `<script>(() => {
  if (window.__MKPAGES_LR__) return;
  window.__MKPAGES_LR__ = true;
  function connect() {
    const es = new EventSource('` + livereloadPath + `');
    let first = true, current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.token; first = false; return; }
        if (p.token && p.token !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`
