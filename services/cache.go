package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by a CacheClient when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// CacheClient is the byte-level cache collaborator.
type CacheClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ComputeFunc recomputes an aggregate payload from the source of truth.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// AggregateCache fronts the read-aggregation queries. Entries expire by
// elapsed time only; a lost entry costs latency, never information.
type AggregateCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// RedisCacheClient adapts a go-redis client to CacheClient.
type RedisCacheClient struct {
	client *redis.Client
}

func NewRedisCacheClient(client *redis.Client) *RedisCacheClient {
	return &RedisCacheClient{client: client}
}

func (r *RedisCacheClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisCacheClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCacheClient) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// TTLCache implements AggregateCache over a CacheClient. A per-key in-flight
// lock keeps concurrent misses for the same key from recomputing twice.
type TTLCache struct {
	store    CacheClient
	logger   *log.Logger
	mu       sync.Mutex
	inflight map[string]*keyLock
}

func NewTTLCache(store CacheClient, logger *log.Logger) *TTLCache {
	if logger == nil {
		logger = log.Default()
	}
	return &TTLCache{
		store:    store,
		logger:   logger,
		inflight: make(map[string]*keyLock),
	}
}

func (c *TTLCache) lock(key string) *keyLock {
	c.mu.Lock()
	l := c.inflight[key]
	if l == nil {
		l = &keyLock{}
		c.inflight[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return l
}

func (c *TTLCache) unlock(key string, l *keyLock) {
	l.mu.Unlock()

	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
}

// GetOrCompute returns the cached payload verbatim on a hit. On a miss it
// runs compute, stores the result with the given TTL, and returns it. Cache
// backend failures degrade to recomputation rather than failing the request.
func (c *TTLCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	l := c.lock(key)
	defer c.unlock(key, l)

	payload, err := c.store.Get(ctx, key)
	if err == nil {
		return payload, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Printf("cache get failed for %s: %v", key, err)
	}

	payload, err = compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		c.logger.Printf("cache set failed for %s: %v", key, err)
	}

	return payload, nil
}

func (c *TTLCache) Invalidate(ctx context.Context, keys ...string) error {
	return c.store.Del(ctx, keys...)
}

// NoopCache is used when no cache backend is configured; every read
// recomputes from the stores.
type NoopCache struct{}

func (NoopCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	return compute(ctx)
}

func (NoopCache) Invalidate(ctx context.Context, keys ...string) error {
	return nil
}
