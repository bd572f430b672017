package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

const (
	defaultPrefix = "symbiolink:"
	defaultTTL    = 10 * time.Minute
)

// Serializer converts cached values to and from bytes.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// ResultCache stores serialized analysis results under a key prefix.
type ResultCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     float64
	serializer Serializer
}

// CacheOption configures a ResultCache.
type CacheOption func(*ResultCache)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithDefaultTTL is used when Set receives a zero ttl.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithJitter spreads expirations by ±fraction of the ttl.
func WithJitter(fraction float64) CacheOption {
	return func(c *ResultCache) { c.jitter = fraction }
}

// WithSerializer replaces the JSON serializer.
func WithSerializer(s Serializer) CacheOption {
	return func(c *ResultCache) { c.serializer = s }
}

// NewResultCache builds a cache over client. Prefix and TTL default to the
// client's configuration.
func NewResultCache(client *Client, log logging.Logger, opts ...CacheOption) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &ResultCache{
		client:     client,
		logger:     log.Named("cache"),
		prefix:     defaultPrefix,
		defaultTTL: defaultTTL,
		serializer: jsonSerializer{},
	}
	WithPrefix(client.cfg.KeyPrefix)(c)
	WithDefaultTTL(client.cfg.ResultTTL)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) fullKey(key string) string {
	return c.prefix + key
}

func (c *ResultCache) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if c.jitter <= 0 {
		return ttl
	}
	delta := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(delta)
}

// Get decodes the value stored at key into dest. A missing key returns
// ErrCacheMiss.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		c.logger.Warn("dropping undecodable cache entry", logging.String("key", key), logging.Err(err))
		_ = c.client.Del(ctx, c.fullKey(key)).Err()
		return ErrCacheMiss
	}
	return nil
}

// Set stores value at key for ttl, or the default TTL when ttl is zero.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.ttl(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache entry")
	}
	return nil
}

// Delete removes keys.
func (c *ResultCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache entries")
	}
	return nil
}

// Ping checks the backing connection.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
