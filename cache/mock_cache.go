package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ammiranda/department_service/nestedset"
)

// MockCache is a cache provider that can be used for testing
type MockCache struct {
	mu              sync.RWMutex
	generation      int64
	data            map[string][]nestedset.Node
	ttl             time.Duration
	GenerationCalls int
	GetCalls        int
	SetCalls        int
	InvalidateCalls int
	SetTTLCalls     int
	InitCalls       int
	ShouldFail      bool
}

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{
		ttl:  DefaultTTL,
		data: make(map[string][]nestedset.Node),
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MockCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InitCalls++
	if c.ShouldFail {
		return ErrCacheInitialization
	}
	return nil
}

// Generation returns the current cache generation
func (c *MockCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GenerationCalls++
	if c.ShouldFail {
		return 0, ErrCacheUnavailable
	}
	return c.generation, nil
}

// GetNodes retrieves a result from cache if available
func (c *MockCache) GetNodes(ctx context.Context, generation int64, key string) ([]nestedset.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++

	if c.ShouldFail || generation != c.generation {
		return nil, false
	}
	nodes, ok := c.data[key]
	return cloneNodes(nodes), ok
}

// SetNodes stores a result in cache
func (c *MockCache) SetNodes(ctx context.Context, generation int64, key string, nodes []nestedset.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++

	if !c.ShouldFail && generation == c.generation {
		if nodes == nil {
			nodes = []nestedset.Node{}
		}
		c.data[key] = cloneNodes(nodes)
	}
}

// InvalidateCache drops every result
func (c *MockCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvalidateCalls++

	if c.ShouldFail {
		return ErrCacheUnavailable
	}
	c.generation++
	c.data = make(map[string][]nestedset.Node)
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetTTLCalls++

	if !c.ShouldFail {
		c.ttl = ttl
	}
}

// Reset resets all counters and state
func (c *MockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GenerationCalls = 0
	c.GetCalls = 0
	c.SetCalls = 0
	c.InvalidateCalls = 0
	c.SetTTLCalls = 0
	c.InitCalls = 0
	c.ShouldFail = false
	c.generation = 0
	c.data = make(map[string][]nestedset.Node)
}

// GetCallCounts returns the number of times each method was called
func (c *MockCache) GetCallCounts() (get, set, invalidate, setTTL, init int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GetCalls, c.SetCalls, c.InvalidateCalls, c.SetTTLCalls, c.InitCalls
}

// SetShouldFail makes the mock cache fail all operations
func (c *MockCache) SetShouldFail(shouldFail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ShouldFail = shouldFail
}

var (
	// ErrCacheInitialization is returned when the mock cache is configured to fail
	ErrCacheInitialization = errors.New("mock cache initialization failed")
	// ErrCacheUnavailable is returned by failing mock cache operations
	ErrCacheUnavailable = errors.New("mock cache unavailable")
)
