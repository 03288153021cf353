// Package embedding turns code chunks and queries into vectors, with a
// persistent content-hash cache in front of the model backend.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/seekr-dev/seekr/internal/domain"
)

// DefaultBatchSize bounds how many texts go to the backend per request.
const DefaultBatchSize = 32

// Backend generates embeddings for batches of text.
type Backend interface {
	// Model identifies the embedding model; it keys the cache snapshot.
	Model() string
	// Dimensions reports the vector width the model produces.
	Dimensions() int
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkEmbedding pairs a chunk ID with its vector.
type ChunkEmbedding struct {
	ChunkID string
	Vector  []float32
}

// Service coordinates the backend and the cache.
type Service struct {
	backend   Backend
	cache     *Cache
	batchSize int
}

// NewService creates an embedding service. A nil cache disables caching.
func NewService(backend Backend, cache *Cache, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{backend: backend, cache: cache, batchSize: batchSize}
}

// Model returns the backend's model identifier.
func (s *Service) Model() string { return s.backend.Model() }

// Dimensions returns the backend's vector width.
func (s *Service) Dimensions() int { return s.backend.Dimensions() }

// EmbedChunks embeds a batch of chunks, returning vectors in chunk order.
// Cached texts are served from memory; the rest go to the backend in
// batches. The cache snapshot is persisted after any new generation.
func (s *Service) EmbedChunks(ctx context.Context, chunks []domain.CodeChunk) ([]ChunkEmbedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	results := make([]ChunkEmbedding, len(chunks))
	var (
		missTexts  []string
		missHashes []string
		missIdx    []int
	)

	for i := range chunks {
		text := EmbeddingText(&chunks[i])
		hash := TextHash(text)
		results[i].ChunkID = chunks[i].ID

		if s.cache != nil {
			if vec, ok := s.cache.Get(hash); ok {
				results[i].Vector = vec
				continue
			}
		}
		missTexts = append(missTexts, text)
		missHashes = append(missHashes, hash)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := s.embedBatched(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		results[missIdx[j]].Vector = vec
		if s.cache != nil {
			s.cache.Put(missHashes[j], vec)
		}
	}

	if s.cache != nil {
		s.cache.Persist(ctx)
	}
	return results, nil
}

// EmbedQuery embeds a single query string, using the same cache.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	hash := TextHash(query)
	if s.cache != nil {
		if vec, ok := s.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vectors, err := s.embedBatched(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	vec := vectors[0]

	if s.cache != nil {
		s.cache.Put(hash, vec)
		s.cache.Persist(ctx)
	}
	return vec, nil
}

func (s *Service) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.backend.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeModelUnavailable,
				fmt.Sprintf("embedding backend %s failed", s.backend.Model()), err)
		}
		if len(batch) != end-start {
			return nil, domain.NewDomainError(domain.ErrCodeModelUnavailable,
				fmt.Sprintf("embedding backend returned %d vectors for %d texts", len(batch), end-start))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbeddingText builds the deterministic text representation of a chunk.
// Identical chunk metadata and content always produce identical text, which
// keys the cache.
func EmbeddingText(chunk *domain.CodeChunk) string {
	parts := []string{fmt.Sprintf("Language: %s", chunk.Language)}

	if chunk.FunctionName != "" {
		parts = append(parts, fmt.Sprintf("Function: %s", chunk.FunctionName))
	}
	if chunk.ClassName != "" {
		parts = append(parts, fmt.Sprintf("Class: %s", chunk.ClassName))
	}
	if chunk.ModuleName != "" {
		parts = append(parts, fmt.Sprintf("Module: %s", chunk.ModuleName))
	}

	parts = append(parts, fmt.Sprintf("Type: %s", chunk.Kind))
	parts = append(parts, "Code:", chunk.Content)

	if chunk.Docstring != "" {
		parts = append(parts, "Documentation:", chunk.Docstring)
	}
	if chunk.Context != "" {
		parts = append(parts, "Context:", chunk.Context)
	}

	return strings.Join(parts, "\n")
}

// TextHash returns the hex SHA-256 of the embedding text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
