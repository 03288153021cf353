package domain

import (
	"fmt"
	"time"
)

// VectorRecord is what the index store holds for one chunk: a store-assigned
// point ID, the embedding vector, and the chunk payload with its ingestion
// timestamp. Records are replaced at file granularity, never patched.
type VectorRecord struct {
	PointID   string
	Vector    []float32
	Chunk     CodeChunk
	IndexedAt time.Time
}

// ScoredChunk is one search hit: the stored chunk payload and its similarity
// score against the query vector.
type ScoredChunk struct {
	Chunk     CodeChunk
	Score     float32
	IndexedAt time.Time
}

// SearchFilters maps payload field name to accepted values. Values within a
// field are OR'd; distinct fields are AND'd.
type SearchFilters map[string][]string

// FilterableFields lists the payload fields that carry secondary indexes and
// may appear in SearchFilters.
var FilterableFields = []string{
	"language",
	"file_path",
	"function_name",
	"class_name",
	"kind",
	"complexity_score",
}

// ValidateVectorRecord validates a VectorRecord against the collection
// dimensionality.
func ValidateVectorRecord(r *VectorRecord, dimension int) error {
	if r == nil {
		return fmt.Errorf("vector record cannot be nil")
	}
	if r.PointID == "" {
		return fmt.Errorf("vector record PointID is required")
	}
	if dimension > 0 && len(r.Vector) != dimension {
		return fmt.Errorf("vector record has %d dimensions, collection expects %d", len(r.Vector), dimension)
	}
	return ValidateCodeChunk(&r.Chunk)
}

// ValidateFilters rejects filters that reference unindexed payload fields.
func ValidateFilters(f SearchFilters) error {
	for field := range f {
		ok := false
		for _, known := range FilterableFields {
			if field == known {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unfilterable field: %q", field)
		}
	}
	return nil
}
