package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]*CacheEntry
	published []*BrokenLinkEvent
	valid     bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*CacheEntry), valid: true}
}

func (f *fakeCache) Get(_ context.Context, url string) (*CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[url], nil
}

func (f *fakeCache) Set(_ context.Context, entry *CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.URL] = entry
	return nil
}

func (f *fakeCache) Valid(entry *CacheEntry) bool { return entry != nil && f.valid }

func (f *fakeCache) PublishBroken(_ context.Context, event *BrokenLinkEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakeCache) Close() error { return nil }

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/auth":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExternalCheck(t *testing.T) {
	srv := testServer(t)
	checker := NewExternalChecker(2*time.Second, 4, discard())

	refs := []ExternalRef{
		{Page: "index.md", URL: srv.URL + "/ok", Line: 3},
		{Page: "index.md", URL: srv.URL + "/auth", Line: 4},
		{Page: "guide.md", URL: srv.URL + "/gone", Line: 9},
	}
	res, err := checker.Check(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 3, res.LinksChecked)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, "guide.md", f.Page)
	assert.Equal(t, KindExternal, f.Kind)
	assert.Equal(t, http.StatusNotFound, f.Status)
	assert.Equal(t, 9, f.Line)
}

func TestExternalCheckDeduplicatesURLs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewExternalChecker(2*time.Second, 4, discard())
	refs := []ExternalRef{
		{Page: "a.md", URL: srv.URL},
		{Page: "b.md", URL: srv.URL},
		{Page: "c.md", URL: srv.URL},
	}
	res, err := checker.Check(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, 3, res.LinksChecked)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExternalCheckUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := newFakeCache()
	cache.entries[srv.URL] = &CacheEntry{
		URL: srv.URL, Status: 200, Valid: true, LastChecked: time.Now(),
	}

	checker := NewExternalChecker(2*time.Second, 4, discard(), WithCache(cache))
	res, err := checker.Check(context.Background(), []ExternalRef{{Page: "a.md", URL: srv.URL}})
	require.NoError(t, err)
	assert.False(t, res.Broken())
	assert.Equal(t, int32(0), hits.Load(), "cached result should skip the request")
}

func TestExternalCheckPublishesBroken(t *testing.T) {
	srv := testServer(t)
	cache := newFakeCache()
	cache.valid = false // force a fresh check

	checker := NewExternalChecker(2*time.Second, 4, discard(),
		WithCache(cache), WithBuildID("b-42"))
	_, err := checker.Check(context.Background(), []ExternalRef{
		{Page: "index.md", URL: srv.URL + "/gone", Line: 5},
	})
	require.NoError(t, err)

	require.Len(t, cache.published, 1)
	event := cache.published[0]
	assert.Equal(t, "index.md", event.Page)
	assert.Equal(t, http.StatusNotFound, event.Status)
	assert.Equal(t, "b-42", event.BuildID)

	entry := cache.entries[srv.URL+"/gone"]
	require.NotNil(t, entry)
	assert.False(t, entry.Valid)
	assert.Equal(t, 1, entry.FailureCount)
}

func TestExternalCheckCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewExternalChecker(time.Second, 1, discard())
	_, err := checker.Check(ctx, []ExternalRef{
		{Page: "a.md", URL: "https://example.com/"},
		{Page: "b.md", URL: "https://example.org/"},
	})
	require.ErrorIs(t, err, context.Canceled)
}
