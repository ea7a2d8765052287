package linkcheck

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/logfields"
)

// NATSCache caches verification results in a JetStream KV bucket and
// publishes broken-link events to the configured subject.
type NATSCache struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string

	ttlOK   time.Duration
	ttlFail time.Duration
}

// NewNATSCache connects per validation config. Requires nats_url and
// kv_bucket; subject is optional (no publishing without it).
func NewNATSCache(cfg *config.ValidationConfig, logger *slog.Logger) (*NATSCache, error) {
	if cfg.NATSURL == "" || cfg.KVBucket == "" {
		return nil, errors.New("nats_url and kv_bucket are required for the link cache")
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	c := &NATSCache{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		ttlOK:   parseDurationOr(cfg.CacheTTL, 24*time.Hour),
		ttlFail: parseDurationOr(cfg.CacheTTLFailures, time.Hour),
	}
	if err := c.initBucket(cfg.KVBucket); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("link cache connected",
		logfields.URL(cfg.NATSURL),
		slog.String("bucket", cfg.KVBucket))
	return c, nil
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

func (c *NATSCache) initBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, bucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "mkpages link verification cache",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create kv bucket: %w", err)
	}
	c.kv = kv
	return nil
}

// Get returns the cached entry, or (nil, nil) when absent.
func (c *NATSCache) Get(ctx context.Context, url string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	raw, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(raw.Value(), &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores one entry.
func (c *NATSCache) Set(ctx context.Context, entry *CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Valid reports whether the entry is inside its TTL. Failures age out
// faster than successes so broken links get retried sooner.
func (c *NATSCache) Valid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttlOK
	if !entry.Valid {
		ttl = c.ttlFail
	}
	return time.Since(entry.LastChecked) < ttl
}

// PublishBroken publishes the event; a no-op without a subject.
func (c *NATSCache) PublishBroken(ctx context.Context, event *BrokenLinkEvent) error {
	if c.subject == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// cacheKey makes a URL safe as a KV key. NATS keys only allow a narrow
// character set, so the URL is base64url-encoded.
func cacheKey(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}
