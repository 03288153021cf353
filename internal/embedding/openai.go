package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is the OpenAI model used for embeddings.
	DefaultOpenAIModel = openai.SmallEmbedding3
	// DefaultOpenAIDimensions is the dimension of text-embedding-3-small.
	DefaultOpenAIDimensions = 1536
)

// OpenAIBackend generates embeddings through the OpenAI API.
type OpenAIBackend struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIBackend creates an OpenAI embedding backend using defaults for
// an empty model, non-positive dimensions, or a non-positive timeout.
func NewOpenAIBackend(apiKey string, model openai.EmbeddingModel, dimensions int, timeout time.Duration) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if dimensions <= 0 {
		dimensions = DefaultOpenAIDimensions
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIBackend{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}
}

// Model returns the model name.
func (b *OpenAIBackend) Model() string { return string(b.model) }

// Dimensions returns the expected vector width.
func (b *OpenAIBackend) Dimensions() int { return b.dimensions }

// Embed calls the OpenAI embeddings API for a batch of texts.
func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := b.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: b.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding response count does not match input")
	}

	// Response order is not guaranteed; Index restores it.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	for i, vec := range vectors {
		if len(vec) != b.dimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(vec), b.dimensions)
		}
	}

	return vectors, nil
}
