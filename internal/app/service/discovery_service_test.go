package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anangai/civic-portal-backend/internal/cache"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedDiscovery(t *testing.T, env *testEnv) (DiscoveryService, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewDiscoveryService(env.registry, cache.NewRedisCache(client, "discovery:", time.Minute)), mr
}

func TestDiscoveryService_ListCategories(t *testing.T) {
	env := setupServiceTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "Places", "museums.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "Events", "events.txt"), nil, 0o644))

	categories, err := env.discovery.ListCategories()
	require.NoError(t, err)

	groups := map[catalog.Group][]string{}
	for _, c := range categories {
		groups[c.Type] = append(groups[c.Type], c.ID)
	}
	assert.Len(t, groups[catalog.GroupFood], len(catalog.FeaturedCategories))
	assert.Equal(t, []string{"museums"}, groups[catalog.GroupPlaces])
	assert.Equal(t, []string{"events"}, groups[catalog.GroupEvents])
}

func TestDiscoveryService_ListEntriesUnknown(t *testing.T) {
	env := setupServiceTest(t)

	_, err := env.discovery.ListEntries(context.Background(), "nowhere")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestDiscoveryService_CachesAndInvalidates(t *testing.T) {
	env := setupServiceTest(t)
	discovery, mr := setupCachedDiscovery(t, env)
	ctx := context.Background()

	list, err := discovery.ListEntries(ctx, "bakeries")
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
	assert.True(t, mr.Exists("discovery:bakeries"))

	ok, err := discovery.Export("bakeries", &catalog.FoodEntry{Name: "Bread Co", Location: "1 Loaf Ln"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("discovery:bakeries"))

	list, err = discovery.ListEntries(ctx, "bakeries")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Bread Co", list.Entries[0].EntryName())

	// served from cache even after the file changes underneath
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "Food", "bakeries.txt"), nil, 0o644))
	list, err = discovery.ListEntries(ctx, "bakeries")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	food, ok := list.Entries[0].(*catalog.FoodEntry)
	require.True(t, ok)
	assert.Equal(t, "1 Loaf Ln", food.Location)
}

func TestDiscoveryService_CorruptCacheFallsBack(t *testing.T) {
	env := setupServiceTest(t)
	discovery, mr := setupCachedDiscovery(t, env)
	require.NoError(t, mr.Set("discovery:shops", "not json"))

	_, err := discovery.Export("shops", &catalog.ShopEntry{Name: "Joe's", Category: "Retail"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("discovery:shops", "not json"))

	list, err := discovery.ListEntries(context.Background(), "shops")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Joe's", list.Entries[0].EntryName())
}

// hookCache is an in-memory cache that runs onSet once before the first write.
type hookCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	onSet func()
}

func (c *hookCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *hookCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	hook := c.onSet
	c.onSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *hookCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestDiscoveryService_ExportDuringCacheFill(t *testing.T) {
	env := setupServiceTest(t)
	c := &hookCache{data: make(map[string][]byte)}
	discovery := NewDiscoveryService(env.registry, c)
	ctx := context.Background()

	c.onSet = func() {
		ok, err := discovery.Export("shops", &catalog.ShopEntry{Name: "Joe's", Location: "123 Main"})
		require.NoError(t, err)
		require.True(t, ok)
	}

	list, err := discovery.ListEntries(ctx, "shops")
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
	assert.Contains(t, env.readCategory(t, "shops"), "Store Name: Joe's")

	list, err = discovery.ListEntries(ctx, "shops")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Joe's", list.Entries[0].EntryName())
}
