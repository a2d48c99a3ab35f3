package logstream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string
	// Bucket name. Defaults to "logstream_cache".
	Bucket string
	// TTL of entries; also applied as the bucket max age on creation.
	TTL time.Duration
	// Conn reuses an existing connection. It is not closed by Close.
	Conn *nats.Conn
}

// NATSKVCache stores cached responses in a JetStream KV bucket so that
// several processes can share them.
type NATSKVCache struct {
	conn    *nats.Conn
	kv      nats.KeyValue
	ttl     time.Duration
	ownConn bool
	now     func() time.Time
}

// NewNATSKVCache connects to NATS and binds or creates the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = constants.CacheTTL
	}

	conn := config.Conn
	ownConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, nats.Name("logstream-client cache"))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownConn = true
	}

	kv, err := bindBucket(conn, bucket, ttl)
	if err != nil {
		if ownConn {
			conn.Close()
		}

		return nil, err
	}

	return &NATSKVCache{
		conn:    conn,
		kv:      kv,
		ttl:     ttl,
		ownConn: ownConn,
		now:     time.Now,
	}, nil
}

func bindBucket(conn *nats.Conn, bucket string, ttl time.Duration) (nats.KeyValue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("getting JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if err == nil {
		return kv, nil
	}

	if !errors.Is(err, nats.ErrBucketNotFound) {
		return nil, fmt.Errorf("binding KV bucket %s: %w", bucket, err)
	}

	kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      bucket,
		Description: "logstream-client response cache",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating KV bucket %s: %w", bucket, err)
	}

	return kv, nil
}

// Get retrieves an entry. The bucket max age removes entries eventually; an
// entry read past its TTL before that is deleted here.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(encodeKVKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading %s from KV: %w", key, err)
	}

	entry := &CacheEntry{
		Key:      key,
		Data:     kvEntry.Value(),
		StoredAt: kvEntry.Created(),
	}

	if c.now().Sub(entry.StoredAt) >= c.ttl {
		_ = c.kv.Delete(encodeKVKey(key))

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores an entry. StoredAt comes from the server's revision timestamp.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	_, err := c.kv.Put(encodeKVKey(key), entry.Data)
	if err != nil {
		return fmt.Errorf("writing %s to KV: %w", key, err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(encodeKVKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from KV: %w", key, err)
	}

	return nil
}

// Clear removes all entries in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys(nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing KV keys: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Delete(key)
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("clearing KV key %s: %w", key, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the connection if the cache opened it.
func (c *NATSKVCache) Close() {
	if c.ownConn {
		c.conn.Close()
	}
}

// KV keys only allow a restricted charset; stream names do not.
func encodeKVKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
