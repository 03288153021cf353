package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

func newTestStore(handler http.Handler) (*Store, *httptest.Server) {
	server := httptest.NewServer(handler)
	store := New(Config{URL: server.URL, Collection: "code_chunks", APIKey: "secret"})
	return store, server
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var createdCollection bool
	var indexed []string

	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, "not found", http.StatusNotFound)
		case http.MethodPut:
			createdCollection = true
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]any)
			assert.Equal(t, float64(384), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			fmt.Fprint(w, `{"result":true}`)
		}
	})
	mux.HandleFunc("/collections/code_chunks/index", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		indexed = append(indexed, body["field_name"].(string))
		fmt.Fprint(w, `{"result":true}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	require.NoError(t, store.EnsureCollection(context.Background(), 384))
	assert.True(t, createdCollection)
	assert.Contains(t, indexed, "language")
	assert.Contains(t, indexed, "file_path")
	assert.Contains(t, indexed, "kind")
	assert.Contains(t, indexed, "complexity_score")
}

func TestEnsureCollectionKeepsMismatchedExisting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "existing collection must not be recreated")
		fmt.Fprint(w, `{"result":{"config":{"params":{"vectors":{"size":768}}}}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	// Mismatch is logged, not fatal.
	assert.NoError(t, store.EnsureCollection(context.Background(), 384))
}

func TestUpsertBatchesAndPayload(t *testing.T) {
	var batches [][]point

	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks/points", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		var body struct {
			Points []point `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batches = append(batches, body.Points)
		fmt.Fprint(w, `{"result":{"status":"completed"}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	records := make([]domain.VectorRecord, 150)
	for i := range records {
		records[i] = domain.VectorRecord{
			PointID: fmt.Sprintf("point-%d", i),
			Vector:  []float32{1, 2},
			Chunk: domain.CodeChunk{
				ID:        fmt.Sprintf("f.py:%d:%d:function", i+1, i+2),
				Content:   "def f(): pass",
				Kind:      domain.ChunkKindFunction,
				Language:  "python",
				FilePath:  "f.py",
				LineStart: i + 1,
				LineEnd:   i + 2,
			},
			IndexedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}

	require.NoError(t, store.Upsert(context.Background(), records))
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 50)

	payload := batches[0][0].Payload
	assert.Equal(t, "python", payload["language"])
	assert.Equal(t, "function", payload["kind"])
	assert.Equal(t, "2026-01-02T03:04:05Z", payload["indexed_at"])
}

func TestUpsertReportsFailingBatch(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks/points", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "disk full", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"result":{"status":"completed"}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	records := make([]domain.VectorRecord, 150)
	for i := range records {
		records[i] = domain.VectorRecord{PointID: fmt.Sprintf("p%d", i)}
	}

	err := store.Upsert(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "batch 1")
}

func TestSearchBuildsFilterAndParsesResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks/points/search", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, float64(5), req["limit"])
		assert.Equal(t, 0.7, req["score_threshold"])

		filter := req["filter"].(map[string]any)
		must := filter["must"].([]any)
		assert.Len(t, must, 1)
		should := must[0].(map[string]any)["should"].([]any)
		assert.Len(t, should, 2)

		fmt.Fprint(w, `{"result":[{"score":0.91,"payload":{
			"chunk_id":"a.py:1:3:function","content":"def f(): pass","language":"python",
			"file_path":"a.py","line_start":1,"line_end":3,"kind":"function",
			"complexity_score":1.5,"function_name":"f","class_name":"",
			"indexed_at":"2026-01-02T03:04:05Z"}}]}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	hits, err := store.Search(context.Background(), vectorstore.SearchParams{
		Vector:         []float32{1, 0},
		Limit:          5,
		ScoreThreshold: 0.7,
		Filters:        domain.SearchFilters{"kind": {"function", "method"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.InDelta(t, 0.91, float64(hits[0].Score), 1e-6)
	assert.Equal(t, "a.py:1:3:function", hits[0].Chunk.ID)
	assert.Equal(t, domain.ChunkKindFunction, hits[0].Chunk.Kind)
	assert.Equal(t, 1, hits[0].Chunk.LineStart)
	assert.Equal(t, 1.5, hits[0].Chunk.ComplexityScore)
	assert.Equal(t, 2026, hits[0].IndexedAt.Year())
}

func TestSearchStoreDown(t *testing.T) {
	store := New(Config{URL: "http://127.0.0.1:1", Collection: "code_chunks", Timeout: 100 * time.Millisecond})

	_, err := store.Search(context.Background(), vectorstore.SearchParams{Vector: []float32{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestDeleteByFile(t *testing.T) {
	var deleteBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks/points/delete", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteBody))
		fmt.Fprint(w, `{"result":{"status":"completed"}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	require.NoError(t, store.DeleteByFile(context.Background(), "src/old.py"))

	filter := deleteBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	assert.Equal(t, "file_path", cond["key"])
}

func TestCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/code_chunks/points/count", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"count":42}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), count)
}

func TestHealthCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"collections":[]}}`)
	})

	store, server := newTestStore(mux)
	defer server.Close()

	assert.NoError(t, store.HealthCheck(context.Background()))

	server.Close()
	assert.ErrorIs(t, store.HealthCheck(context.Background()), domain.ErrStoreUnavailable)
}
