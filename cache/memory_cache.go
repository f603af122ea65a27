package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ammiranda/department_service/nestedset"
)

type memoryEntry struct {
	nodes  []nestedset.Node
	expiry time.Time
}

// MemoryCache implements CacheProvider using in-memory storage. Only the
// current generation is kept; invalidation drops every entry.
type MemoryCache struct {
	mu         sync.RWMutex
	generation int64
	data       map[string]memoryEntry
	ttl        time.Duration
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:  DefaultTTL,
		data: make(map[string]memoryEntry),
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// Generation returns the current cache generation
func (c *MemoryCache) Generation(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// GetNodes retrieves a cached result if it is current and unexpired
func (c *MemoryCache) GetNodes(ctx context.Context, generation int64, key string) ([]nestedset.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if generation != c.generation {
		return nil, false
	}
	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return cloneNodes(entry.nodes), true
}

// SetNodes stores a result; results computed under a retired generation are dropped
func (c *MemoryCache) SetNodes(ctx context.Context, generation int64, key string, nodes []nestedset.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	if nodes == nil {
		nodes = []nestedset.Node{}
	}
	c.data[key] = memoryEntry{nodes: cloneNodes(nodes), expiry: time.Now().Add(c.ttl)}
}

// InvalidateCache removes all cached data and starts a new generation
func (c *MemoryCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.data = make(map[string]memoryEntry)
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	// Update all existing expiries
	now := time.Now()
	for key, entry := range c.data {
		entry.expiry = now.Add(ttl)
		c.data[key] = entry
	}
}

// Len reports how many entries are cached
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
