package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ammiranda/department_service/nestedset"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "departments"
	redisGenerationKey = redisKeyPrefix + ":generation"
)

// RedisCache implements CacheProvider using Redis. The generation lives in
// its own counter key and every entry key embeds it, so invalidation is a
// single INCR and retired entries age out through their TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache provider
func NewRedisCache(addr string) *RedisCache {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	return NewRedisCacheWithClient(client)
}

// NewRedisCacheWithClient creates a Redis cache provider over an existing client
func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Initialize checks that the server is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("error pinging redis: %w", err)
	}
	return nil
}

// Generation returns the current cache generation
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, redisGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading cache generation: %w", err)
	}
	return generation, nil
}

func entryKey(generation int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", redisKeyPrefix, generation, key)
}

// GetNodes retrieves a cached result if available
func (c *RedisCache) GetNodes(ctx context.Context, generation int64, key string) ([]nestedset.Node, bool) {
	data, err := c.client.Get(ctx, entryKey(generation, key)).Bytes()
	if err != nil {
		return nil, false
	}

	var nodes []nestedset.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, false
	}
	if nodes == nil {
		nodes = []nestedset.Node{}
	}
	return nodes, true
}

// SetNodes stores a result in cache
func (c *RedisCache) SetNodes(ctx context.Context, generation int64, key string, nodes []nestedset.Node) {
	if nodes == nil {
		nodes = []nestedset.Node{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return
	}

	c.client.Set(ctx, entryKey(generation, key), data, c.ttl)
}

// InvalidateCache moves readers to a fresh generation
func (c *RedisCache) InvalidateCache(ctx context.Context) error {
	if err := c.client.Incr(ctx, redisGenerationKey).Err(); err != nil {
		return fmt.Errorf("error advancing cache generation: %w", err)
	}
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
