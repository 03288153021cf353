package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds one embed call when no timeout is configured.
// Embedding requests are expected to fail fast.
const DefaultRequestTimeout = 8 * time.Second

// OllamaBackend calls the Ollama /api/embed endpoint.
type OllamaBackend struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// NewOllamaBackend creates a backend targeting the given Ollama instance.
// A non-positive timeout falls back to DefaultRequestTimeout.
func NewOllamaBackend(baseURL, model string, dimensions int, timeout time.Duration) *OllamaBackend {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &OllamaBackend{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured model name.
func (b *OllamaBackend) Model() string { return b.model }

// Dimensions returns the configured vector width.
func (b *OllamaBackend) Dimensions() int { return b.dimensions }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends a batch of texts to Ollama and returns their embeddings.
// The returned slice has the same length and order as the input.
func (b *OllamaBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{
		Model: b.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embed returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	return result.Embeddings, nil
}
