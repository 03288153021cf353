// Package memory is a brute-force in-memory index store, used for tests
// and single-process setups.
package memory

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/embedding"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

// Store keeps every record in a map and scans linearly on search.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.VectorRecord
}

func New() *Store {
	return &Store{records: make(map[string]domain.VectorRecord)}
}

func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewDomainError(domain.ErrCodeValidation, "collection dimension must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		log.Printf("memory store dimension mismatch: expected %d, got %d", dimension, s.dimension)
		return nil
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		s.records[records[i].PointID] = records[i]
	}
	return nil
}

func (s *Store) Search(_ context.Context, params vectorstore.SearchParams) ([]domain.ScoredChunk, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.ScoredChunk
	for _, rec := range s.records {
		if !vectorstore.MatchesFilters(&rec.Chunk, params.Filters) {
			continue
		}
		score := float32(embedding.CosineSimilarity(params.Vector, rec.Vector))
		if score < params.ScoreThreshold {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk:     rec.Chunk,
			Score:     score,
			IndexedAt: rec.IndexedAt,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) DeleteByFile(_ context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if rec.Chunk.FilePath == filePath {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *Store) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

func (s *Store) HealthCheck(context.Context) error { return nil }
