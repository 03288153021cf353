// Package vectorstore defines the index store contract and shared search
// semantics; backends live in subpackages.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/seekr-dev/seekr/internal/domain"
)

const (
	// DefaultUpsertBatch bounds how many points go to the backend per
	// upsert call.
	DefaultUpsertBatch = 100
	// DefaultSearchLimit applies when a search asks for zero results.
	DefaultSearchLimit = 10
	// DefaultScoreThreshold drops weak matches from search results.
	DefaultScoreThreshold = 0.7
)

// SearchParams describes one similarity search.
type SearchParams struct {
	Vector         []float32
	Limit          int
	ScoreThreshold float32
	Filters        domain.SearchFilters
}

// Store is the index store contract. Filters AND across fields and OR
// within a field's values. Transport failures surface as StoreUnavailable.
type Store interface {
	// EnsureCollection creates the collection when missing. An existing
	// collection with a different dimension logs a warning and is kept.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert writes records in batches, reporting the failing batch index
	// on error. Records never partially apply within a batch.
	Upsert(ctx context.Context, records []domain.VectorRecord) error
	// Search returns scored chunks at or above the threshold, best first.
	Search(ctx context.Context, params SearchParams) ([]domain.ScoredChunk, error)
	// DeleteByFile removes every record whose chunk belongs to the file.
	DeleteByFile(ctx context.Context, filePath string) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (uint64, error)
	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// FieldValue extracts a chunk's payload value for a filterable field.
func FieldValue(chunk *domain.CodeChunk, field string) string {
	switch field {
	case "language":
		return chunk.Language
	case "file_path":
		return chunk.FilePath
	case "function_name":
		return chunk.FunctionName
	case "class_name":
		return chunk.ClassName
	case "kind":
		return string(chunk.Kind)
	case "complexity_score":
		return fmt.Sprintf("%g", chunk.ComplexityScore)
	default:
		return ""
	}
}

// MatchesFilters applies the shared filter semantics to one chunk.
func MatchesFilters(chunk *domain.CodeChunk, filters domain.SearchFilters) bool {
	for field, values := range filters {
		if len(values) == 0 {
			continue
		}
		got := FieldValue(chunk, field)
		matched := false
		for _, v := range values {
			if got == v {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
