package serve

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHubBroadcastDeliversToken(t *testing.T) {
	hub := NewLiveReloadHub(discard(), nil)
	defer hub.Shutdown()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected", strings.TrimSpace(line))

	require.Eventually(t, func() bool { return hub.Clients() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.Broadcast("tok-1")

	var data string
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(line)
			break
		}
	}
	assert.Equal(t, `data: {"token":"tok-1"}`, data)

	cancel()
	require.Eventually(t, func() bool { return hub.Clients() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHubSendsLastTokenToNewClients(t *testing.T) {
	hub := NewLiveReloadHub(discard(), nil)
	defer hub.Shutdown()

	hub.Broadcast("before-connect")

	ts := httptest.NewServer(hub)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			assert.Equal(t, `data: {"token":"before-connect"}`, strings.TrimSpace(line))
			return
		}
	}
}

func TestHubShutdownRejectsNewConnections(t *testing.T) {
	hub := NewLiveReloadHub(discard(), nil)
	hub.Shutdown()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubBroadcastIgnoresEmptyAndRepeatedTokens(t *testing.T) {
	hub := NewLiveReloadHub(discard(), nil)
	defer hub.Shutdown()

	hub.Broadcast("")
	hub.Broadcast("same")
	hub.Broadcast("same")

	hub.mu.RLock()
	last := hub.lastToken
	hub.mu.RUnlock()
	assert.Equal(t, "same", last)
}

// brokenStream fails every write, like a client that disconnected before the
// handshake completed.
type brokenStream struct {
	header http.Header
}

func (b *brokenStream) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *brokenStream) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
func (b *brokenStream) WriteHeader(int)           {}
func (b *brokenStream) Flush()                    {}

func TestHubUnregistersClientOnFailedHandshake(t *testing.T) {
	hub := NewLiveReloadHub(discard(), nil)
	defer hub.Shutdown()

	req := httptest.NewRequest(http.MethodGet, livereloadPath, nil)
	hub.ServeHTTP(&brokenStream{}, req)

	assert.Equal(t, 0, hub.Clients())
}
