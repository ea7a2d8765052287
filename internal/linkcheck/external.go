package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mkpages/mkpages/internal/logfields"
)

// userAgent identifies the checker in outgoing requests.
const userAgent = "mkpages-linkcheck/1.0"

// CacheEntry is one cached verification outcome, shared with the NATS KV
// cache.
type CacheEntry struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	Valid         bool      `json:"valid"`
	Error         string    `json:"error,omitempty"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count,omitempty"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// BrokenLinkEvent is published for every broken external link when a NATS
// subject is configured.
type BrokenLinkEvent struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	Error         string    `json:"error"`
	Page          string    `json:"page"`
	Line          int       `json:"line,omitempty"`
	BuildID       string    `json:"build_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	FailureCount  int       `json:"failure_count,omitempty"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// Cache stores verification results between runs and carries broken-link
// events to interested consumers. Implemented by the NATS client; nil means
// no caching.
type Cache interface {
	Get(ctx context.Context, url string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry) error
	Valid(entry *CacheEntry) bool
	PublishBroken(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// ExternalChecker verifies external URLs with bounded concurrency.
type ExternalChecker struct {
	client  *http.Client
	cache   Cache
	logger  *slog.Logger
	sem     chan struct{}
	buildID string
}

// ExternalOption adjusts an ExternalChecker.
type ExternalOption func(*ExternalChecker)

// WithCache attaches a result cache and event sink.
func WithCache(cache Cache) ExternalOption {
	return func(c *ExternalChecker) { c.cache = cache }
}

// WithBuildID stamps published events with the build identifier.
func WithBuildID(id string) ExternalOption {
	return func(c *ExternalChecker) { c.buildID = id }
}

// NewExternalChecker builds a checker with the given request timeout and
// concurrency bound.
func NewExternalChecker(timeout time.Duration, maxConcurrent int, logger *slog.Logger, opts ...ExternalOption) *ExternalChecker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &ExternalChecker{
		client: &http.Client{Timeout: timeout},
		logger: logger,
		sem:    make(chan struct{}, maxConcurrent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check verifies every reference. URLs appearing on multiple pages are
// fetched once; each referring page still gets its own finding.
func (c *ExternalChecker) Check(ctx context.Context, refs []ExternalRef) (*Result, error) {
	start := time.Now()
	res := &Result{}

	byURL := make(map[string][]ExternalRef)
	var order []string
	for _, ref := range refs {
		if _, seen := byURL[ref.URL]; !seen {
			order = append(order, ref.URL)
		}
		byURL[ref.URL] = append(byURL[ref.URL], ref)
	}

	type outcome struct {
		url    string
		status int
		err    error
	}
	outcomes := make(chan outcome, len(order))
	var wg sync.WaitGroup

	for _, u := range order {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case c.sem <- struct{}{}:
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-c.sem }()
			status, err := c.checkURL(ctx, u)
			outcomes <- outcome{url: u, status: status, err: err}
		}(u)
	}
	wg.Wait()
	close(outcomes)

	for out := range outcomes {
		res.LinksChecked += len(byURL[out.url])
		if out.err == nil {
			continue
		}
		for _, ref := range byURL[out.url] {
			res.Findings = append(res.Findings, Finding{
				Page:   ref.Page,
				URL:    ref.URL,
				Kind:   KindExternal,
				Reason: out.err.Error(),
				Line:   ref.Line,
				Status: out.status,
			})
			c.publishBroken(ctx, ref, out.status, out.err)
		}
	}

	res.Duration = time.Since(start)
	res.Sort()
	c.logger.Debug("external link check done",
		logfields.Count(res.LinksChecked),
		slog.Int("broken", len(res.Findings)))
	return res, nil
}

// checkURL consults the cache, then performs a HEAD request. Statuses that
// demand credentials (401, 403, 405) count as alive.
func (c *ExternalChecker) checkURL(ctx context.Context, u string) (int, error) {
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, u); err == nil && c.cache.Valid(entry) {
			if entry.Valid {
				return entry.Status, nil
			}
			return entry.Status, fmt.Errorf("%s", entry.Error)
		}
	}

	status, err := c.head(ctx, u)

	if c.cache != nil {
		entry := &CacheEntry{
			URL:         u,
			Status:      status,
			Valid:       err == nil,
			LastChecked: time.Now(),
		}
		if err != nil {
			entry.Error = err.Error()
			entry.FailureCount = 1
			entry.FirstFailedAt = time.Now()
			if prev, getErr := c.cache.Get(ctx, u); getErr == nil && prev != nil && !prev.Valid {
				entry.FailureCount = prev.FailureCount + 1
				if !prev.FirstFailedAt.IsZero() {
					entry.FirstFailedAt = prev.FirstFailedAt
				}
			}
		}
		if setErr := c.cache.Set(ctx, entry); setErr != nil {
			c.logger.Debug("link cache update failed",
				logfields.URL(u), logfields.Error(setErr))
		}
	}
	return status, err
}

func (c *ExternalChecker) head(ctx context.Context, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (c *ExternalChecker) publishBroken(ctx context.Context, ref ExternalRef, status int, cause error) {
	if c.cache == nil {
		return
	}
	event := &BrokenLinkEvent{
		URL:       ref.URL,
		Status:    status,
		Error:     cause.Error(),
		Page:      ref.Page,
		Line:      ref.Line,
		BuildID:   c.buildID,
		Timestamp: time.Now(),
	}
	if err := c.cache.PublishBroken(ctx, event); err != nil {
		c.logger.Warn("broken link event publish failed",
			logfields.URL(ref.URL), logfields.Error(err))
	}
}
