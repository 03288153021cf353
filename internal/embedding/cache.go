package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/seekr-dev/seekr/internal/storage"
)

// DefaultCacheMaxEntries bounds the in-memory cache.
const DefaultCacheMaxEntries = 100_000

// Cache is a bounded hash-to-vector map with snapshot persistence. Entries
// are evicted oldest-first when the bound is exceeded.
type Cache struct {
	mu         sync.Mutex
	entries    map[string][]float32
	order      []string
	maxEntries int
	dirty      bool

	model     string
	snapshots storage.SnapshotStore
}

// NewCache creates a cache for one model. A nil snapshot store disables
// persistence.
func NewCache(model string, snapshots storage.SnapshotStore, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		entries:    make(map[string][]float32),
		maxEntries: maxEntries,
		model:      model,
		snapshots:  snapshots,
	}
}

// Get returns the cached vector for a text hash.
func (c *Cache) Get(hash string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.entries[hash]
	return vec, ok
}

// Put stores a vector, evicting the oldest entry when full.
func (c *Cache) Put(hash string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[hash]; !exists {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, hash)
	}
	c.entries[hash] = vec
	c.dirty = true
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) snapshotName() string {
	return fmt.Sprintf("embeddings_%s.json", strings.ReplaceAll(c.model, "/", "_"))
}

type cacheSnapshot struct {
	Model   string               `json:"model"`
	Vectors map[string][]float32 `json:"vectors"`
}

// Load restores the cache from its snapshot. Missing or corrupt snapshots
// leave the cache empty; loading is best-effort.
func (c *Cache) Load(ctx context.Context) {
	if c.snapshots == nil {
		return
	}

	data, err := c.snapshots.Load(ctx, c.snapshotName())
	if err != nil {
		return
	}

	var snap cacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("embedding cache snapshot unreadable, starting fresh: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, vec := range snap.Vectors {
		if len(c.entries) >= c.maxEntries {
			break
		}
		c.entries[hash] = vec
		c.order = append(c.order, hash)
	}
	log.Printf("loaded %d cached embeddings for %s", len(c.entries), c.model)
}

// Persist writes the snapshot when the cache has new entries since the last
// save. Failures are logged, not returned; persistence is best-effort.
func (c *Cache) Persist(ctx context.Context) {
	if c.snapshots == nil {
		return
	}

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	snap := cacheSnapshot{Model: c.model, Vectors: make(map[string][]float32, len(c.entries))}
	for hash, vec := range c.entries {
		snap.Vectors[hash] = vec
	}
	c.dirty = false
	c.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("failed to encode embedding cache snapshot: %v", err)
		return
	}
	if err := c.snapshots.Save(ctx, c.snapshotName(), data); err != nil {
		log.Printf("failed to save embedding cache snapshot: %v", err)
	}
}
