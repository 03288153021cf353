//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seekr-dev/seekr/internal/api/handlers"
	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/chunker/languages"
	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/embedding"
	"github.com/seekr-dev/seekr/internal/indexer"
	"github.com/seekr-dev/seekr/internal/provider"
	"github.com/seekr-dev/seekr/internal/rag"
	"github.com/seekr-dev/seekr/internal/server"
	"github.com/seekr-dev/seekr/internal/session"
	"github.com/seekr-dev/seekr/internal/storage"
	"github.com/seekr-dev/seekr/internal/vectorstore/memory"
)

const (
	embedDimensions = 8
	chatAnswer      = "The indexed code defines a greeting helper."
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	Ollama       *httptest.Server
	ServerURL    string
	ServerCloser func()
	Sessions     *session.Manager
	HTTPClient   *http.Client
}

// APIResponse mirrors the server's success envelope
type APIResponse struct {
	Data json.RawMessage `json:"data"`
}

// embedVector derives a deterministic unit vector from text. The dominant
// first component keeps any two vectors well above the default score
// threshold so retrieval stays predictable.
func embedVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, embedDimensions)
	vec[0] = 1.0
	for i := 1; i < embedDimensions; i++ {
		vec[i] = float32(sum[i]) / 255.0 * 0.2
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	scale := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// newFakeOllama serves the three Ollama endpoints the server talks to.
func newFakeOllama() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "llama3.1"},
				{"name": "nomic-embed-text"},
			},
		})
	})

	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		embeddings := make([][]float32, len(req.Input))
		for i, text := range req.Input {
			embeddings[i] = embedVector(text)
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !req.Stream {
			json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": chatAnswer},
				"done":    true,
			})
			return
		}

		enc := json.NewEncoder(w)
		for _, word := range strings.Fields(chatAnswer) {
			enc.Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": word + " "},
				"done":    false,
			})
		}
		enc.Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": ""},
			"done":    true,
		})
	})

	return httptest.NewServer(mux)
}

// SetupE2EEnv wires the full server stack in process against a fake Ollama
// instance and an in-memory index store.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	ollama := newFakeOllama()

	store := memory.New()
	if err := store.EnsureCollection(ctx, embedDimensions); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	snapshots, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create snapshot store: %v", err)
	}
	backend := embedding.NewOllamaBackend(ollama.URL, "nomic-embed-text", embedDimensions, 5*time.Second)
	cache := embedding.NewCache(backend.Model(), snapshots, 1000)
	cache.Load(ctx)
	embedSvc := embedding.NewService(backend, cache, 32)

	registry := provider.NewRegistry(provider.NewOllama(ollama.URL, "llama3.1", 10*time.Second))
	registry.Sweep(ctx)

	orchestrator := rag.NewOrchestrator(embedSvc, store, registry, domain.ProcessingModeAuto, "ollama")

	chk := chunker.New(languages.Default())
	idx := indexer.New(chk, embedSvc, store, 1500, 2)

	sessions := session.NewManager(time.Minute)

	router := server.NewRouter(server.RouterConfig{
		RAGHandler:    handlers.NewRAGHandler(orchestrator),
		IndexHandler:  handlers.NewIndexHandler(idx, sessions, ""),
		HealthHandler: handlers.NewHealthHandler(store, registry),
		StreamHandler: handlers.NewStreamHandler(sessions, orchestrator),
	})

	srv := httptest.NewServer(router)

	env := &E2ETestEnv{
		T:         t,
		Ctx:       ctx,
		Ollama:    ollama,
		ServerURL: srv.URL,
		ServerCloser: func() {
			srv.Close()
		},
		Sessions:   sessions,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Sessions != nil {
		e.Sessions.Shutdown()
	}
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Ollama != nil {
		e.Ollama.Close()
	}
}

// Post sends a JSON POST request and parses the success envelope
func (e *E2ETestEnv) Post(path string, body any) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := e.HTTPClient.Post(e.ServerURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

// Get sends a GET request and parses the success envelope
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	resp, err := e.HTTPClient.Get(e.ServerURL + path)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

// Delete sends a JSON DELETE request and parses the success envelope
func (e *E2ETestEnv) Delete(path string, body any) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodDelete, e.ServerURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func parseResponse(resp *http.Response) (*APIResponse, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with %d: %s", resp.StatusCode, string(raw))
	}
	var parsed APIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid response body: %w", err)
	}
	return &parsed, nil
}
