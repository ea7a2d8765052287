package serve

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/metrics"
	"github.com/mkpages/mkpages/internal/site"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		logger:     discard(),
		recorder:   metrics.NewPrometheusRecorder(nil),
		listen:     "127.0.0.1:8000",
		livereload: true,
		status:     &buildStatus{},
		startTime:  time.Now(),
		rebuildReq: make(chan string, 1),
	}
	s.hub = NewLiveReloadHub(s.logger, s.recorder)
	t.Cleanup(s.hub.Shutdown)
	return s
}

func TestAdminHealthz(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.adminMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestAdminStatusWithoutBuilds(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.adminMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload statusPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "running", payload.Status)
	assert.Equal(t, "127.0.0.1:8000", payload.Listen)
	assert.Zero(t, payload.LivereloadClients)
	assert.False(t, payload.RebuildRunning)
	assert.Nil(t, payload.LastBuild)
}

func TestAdminStatusReportsLastBuild(t *testing.T) {
	s := newTestServer(t)
	start := time.Now().Add(-120 * time.Millisecond)
	s.lastReport = &site.Report{
		BuildID:       "b-99",
		Start:         start,
		End:           start.Add(100 * time.Millisecond),
		PagesRendered: 4,
		PagesSkipped:  2,
		Warnings:      []string{"theme.logo missing"},
		Outcome:       site.OutcomeWarning,
	}
	ts := httptest.NewServer(s.adminMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload statusPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotNil(t, payload.LastBuild)
	assert.Equal(t, "b-99", payload.LastBuild.ID)
	assert.Equal(t, "warning", payload.LastBuild.Outcome)
	assert.Equal(t, 4, payload.LastBuild.PagesRendered)
	assert.Equal(t, 2, payload.LastBuild.PagesSkipped)
	assert.Equal(t, 1, payload.LastBuild.Warnings)
	assert.Equal(t, int64(100), payload.LastBuild.DurationMS)
}

func TestAdminMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.adminMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mkpages_livereload_clients")
}

func TestRequestRebuildCoalescesWhileRunning(t *testing.T) {
	s := newTestServer(t)

	s.requestRebuild("watch")
	select {
	case trigger := <-s.rebuildReq:
		assert.Equal(t, "watch", trigger)
	default:
		t.Fatal("expected a queued rebuild request")
	}

	s.runningMu.Lock()
	s.running = true
	s.runningMu.Unlock()

	s.requestRebuild("watch")
	s.requestRebuild("schedule")

	s.runningMu.Lock()
	pending := s.pending
	s.runningMu.Unlock()
	assert.True(t, pending)

	select {
	case <-s.rebuildReq:
		t.Fatal("requests during a running build must coalesce, not queue")
	default:
	}
}
