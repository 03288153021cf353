package embedding

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/storage"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache("m", nil, 10)

	cache.Put("h1", []float32{1, 2})
	vec, ok := cache.Get("h1")

	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2}, vec)

	_, ok = cache.Get("absent")
	assert.False(t, ok)
}

func TestCacheEvictsOldest(t *testing.T) {
	cache := NewCache("m", nil, 3)

	for i := 0; i < 4; i++ {
		cache.Put(fmt.Sprintf("h%d", i), []float32{float32(i)})
	}

	assert.Equal(t, 3, cache.Len())
	_, ok := cache.Get("h0")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = cache.Get("h3")
	assert.True(t, ok)
}

func TestCacheSnapshotRoundTrip(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	cache := NewCache("nomic-embed-text", store, 0)
	cache.Put("h1", []float32{1, 2, 3})
	cache.Put("h2", []float32{4, 5, 6})
	cache.Persist(ctx)

	restored := NewCache("nomic-embed-text", store, 0)
	restored.Load(ctx)

	assert.Equal(t, 2, restored.Len())
	vec, ok := restored.Get("h1")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestCacheSnapshotNamePerModel(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a := NewCache("model/a", store, 0)
	a.Put("h", []float32{1})
	a.Persist(ctx)

	b := NewCache("model-b", store, 0)
	b.Load(ctx)

	assert.Equal(t, 0, b.Len(), "snapshots must not leak across models")
}

func TestCacheLoadMissingSnapshot(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cache := NewCache("m", store, 0)
	cache.Load(context.Background())

	assert.Equal(t, 0, cache.Len())
}

func TestCachePersistSkipsWhenClean(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	cache := NewCache("m", store, 0)
	cache.Persist(ctx)

	_, err = store.Load(ctx, "embeddings_m.json")
	assert.Error(t, err, "no snapshot should be written without new entries")
}
