package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaBackendEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{float32(i), 1}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "nomic-embed-text", 2, 0)
	vectors, err := backend.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
}

func TestOllamaBackendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "missing", 2, 0)
	_, err := backend.Embed(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaBackendCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "m", 1, 0)
	_, err := backend.Embed(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestOllamaBackendHonorsTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	backend := NewOllamaBackend(server.URL, "m", 2, 20*time.Millisecond)
	_, err := backend.Embed(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama embed request")
}

func TestOllamaBackendEmptyInput(t *testing.T) {
	backend := NewOllamaBackend("http://unused", "m", 2, 0)
	vectors, err := backend.Embed(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, vectors)
}
