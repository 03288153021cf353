//go:build integration

package qdrant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/testutil"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

func record(filePath string, line int, vec []float32) domain.VectorRecord {
	return domain.VectorRecord{
		PointID: uuid.NewString(),
		Vector:  vec,
		Chunk: domain.CodeChunk{
			ID:        domain.ChunkID(filePath, line, line+5, domain.ChunkKindFunction),
			Content:   "def f(): pass",
			Kind:      domain.ChunkKindFunction,
			Language:  "python",
			FilePath:  filePath,
			LineStart: line,
			LineEnd:   line + 5,
		},
		IndexedAt: time.Now().UTC(),
	}
}

func TestStoreIntegration(t *testing.T) {
	ctx := context.Background()

	qc := testutil.NewQdrantContainer(ctx, t)
	defer qc.Terminate(ctx)

	store := New(Config{
		URL:        qc.Endpoint(),
		Collection: "code_chunks_test",
	})
	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.HealthCheck(ctx))

	records := []domain.VectorRecord{
		record("auth.py", 1, []float32{1, 0, 0}),
		record("auth.py", 10, []float32{0.9, 0.1, 0}),
		record("db.go", 1, []float32{0, 1, 0}),
	}
	require.NoError(t, store.Upsert(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// Same point IDs replace rather than duplicate.
	require.NoError(t, store.Upsert(ctx, records))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	hits, err := store.Search(ctx, vectorstore.SearchParams{
		Vector:         []float32{1, 0, 0},
		Limit:          2,
		ScoreThreshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "auth.py", hits[0].Chunk.FilePath)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	hits, err = store.Search(ctx, vectorstore.SearchParams{
		Vector:  []float32{1, 0, 0},
		Limit:   10,
		Filters: domain.SearchFilters{"file_path": {"db.go"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "db.go", hits[0].Chunk.FilePath)

	require.NoError(t, store.DeleteByFile(ctx, "auth.py"))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
