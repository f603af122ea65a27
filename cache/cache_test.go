package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/department_service/config"
	"github.com/ammiranda/department_service/nestedset"
)

func sampleNodes() []nestedset.Node {
	parent := int64(1)
	return []nestedset.Node{
		{ID: 1, Name: "Engineering", Left: 1, Right: 4, Level: 0, RootID: 1},
		{ID: 2, Name: "Platform", ParentID: &parent, Left: 2, Right: 3, Level: 1, RootID: 1},
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Initialize(context.Background()))

	testCacheProvider(t, c)
}

func TestDynamoDBCache(t *testing.T) {
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "")
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, 0, client.ItemCount(DefaultTableName))

	testCacheProvider(t, c)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := NewRedisCache(addr)
	require.NoError(t, c.Initialize(context.Background()))
	defer c.Close()

	testCacheProvider(t, c)
}

func TestMockCache(t *testing.T) {
	ctx := context.Background()
	mockCache := NewMockCache()
	require.NoError(t, mockCache.Initialize(ctx))

	testCacheProvider(t, mockCache)

	get, set, invalidate, setTTL, init := mockCache.GetCallCounts()
	assert.Greater(t, get, 0, "GetNodes should have been called")
	assert.Greater(t, set, 0, "SetNodes should have been called")
	assert.Greater(t, invalidate, 0, "InvalidateCache should have been called")
	assert.Greater(t, setTTL, 0, "SetCacheTTL should have been called")
	assert.Equal(t, 1, init, "Initialize should have been called once")

	// Failure mode
	mockCache.Reset()
	mockCache.SetShouldFail(true)
	assert.Error(t, mockCache.Initialize(ctx))
	_, err := mockCache.Generation(ctx)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	nodes, found := mockCache.GetNodes(ctx, 0, RootsKey)
	assert.Nil(t, nodes)
	assert.False(t, found)

	mockCache.Reset()
	get, set, invalidate, setTTL, init = mockCache.GetCallCounts()
	assert.Zero(t, get+set+invalidate+setTTL+init)
	assert.False(t, mockCache.ShouldFail)
}

func testCacheProvider(t *testing.T, provider CacheProvider) {
	ctx := context.Background()
	provider.SetCacheTTL(time.Minute)

	require.NoError(t, provider.InvalidateCache(ctx))
	generation, err := provider.Generation(ctx)
	require.NoError(t, err)

	key := Key("descendants", 1)
	_, found := provider.GetNodes(ctx, generation, key)
	assert.False(t, found, "empty cache should miss")

	provider.SetNodes(ctx, generation, key, sampleNodes())
	nodes, found := provider.GetNodes(ctx, generation, key)
	require.True(t, found)
	assert.Equal(t, sampleNodes(), nodes)

	// Empty results are cached too
	provider.SetNodes(ctx, generation, Key("children", 2), []nestedset.Node{})
	nodes, found = provider.GetNodes(ctx, generation, Key("children", 2))
	require.True(t, found)
	assert.Empty(t, nodes)

	// Invalidation retires the generation
	require.NoError(t, provider.InvalidateCache(ctx))
	next, err := provider.Generation(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, generation, next)
	_, found = provider.GetNodes(ctx, next, key)
	assert.False(t, found, "entries must not survive invalidation")

	// A result computed before the invalidation is never served afterwards
	provider.SetNodes(ctx, generation, RootsKey, sampleNodes()[:1])
	_, found = provider.GetNodes(ctx, next, RootsKey)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.SetCacheTTL(time.Millisecond)

	c.SetNodes(ctx, 0, RootsKey, sampleNodes())
	time.Sleep(5 * time.Millisecond)

	_, found := c.GetNodes(ctx, 0, RootsKey)
	assert.False(t, found)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.SetNodes(ctx, 0, RootsKey, sampleNodes())
	nodes, _ := c.GetNodes(ctx, 0, RootsKey)
	nodes[0].Name = "changed"
	*nodes[1].ParentID = 99

	again, _ := c.GetNodes(ctx, 0, RootsKey)
	assert.Equal(t, sampleNodes(), again)
	assert.Equal(t, 1, c.Len())
}

func TestDynamoDBCacheExpiredItemIsDeleted(t *testing.T) {
	ctx := context.Background()
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "departments-test")
	require.NoError(t, c.Initialize(ctx))

	c.SetCacheTTL(-time.Hour)
	c.SetNodes(ctx, 0, RootsKey, sampleNodes())
	assert.Equal(t, 1, client.ItemCount("departments-test"))

	_, found := c.GetNodes(ctx, 0, RootsKey)
	assert.False(t, found)
	assert.Equal(t, 0, client.ItemCount("departments-test"))
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultServiceConfig()
	provider, err := New(ctx, &cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, provider)

	cfg.CacheProvider = config.CacheNone
	provider, err = New(ctx, &cfg)
	require.NoError(t, err)
	assert.IsType(t, NoopCache{}, provider)

	cfg.CacheProvider = "memcached"
	_, err = New(ctx, &cfg)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ancestors:42", Key("ancestors", 42))
}
