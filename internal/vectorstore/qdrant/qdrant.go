// Package qdrant is a minimal REST client to Qdrant implementing the index
// store contract.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

// Store talks to one Qdrant collection over HTTP.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// New creates a Qdrant-backed store. The collection is created lazily by
// EnsureCollection.
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// indexedFields get payload indexes for efficient filtering.
var indexedFields = []struct {
	name   string
	schema string
}{
	{"language", "keyword"},
	{"file_path", "keyword"},
	{"function_name", "keyword"},
	{"class_name", "keyword"},
	{"kind", "keyword"},
	{"complexity_score", "float"},
	{"indexed_at", "datetime"},
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewDomainError(domain.ErrCodeValidation, "collection dimension must be positive")
	}
	s.dimension = dimension

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.getJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), &info)
	if err == nil {
		if got := info.Result.Config.Params.Vectors.Size; got != 0 && got != dimension {
			log.Printf("collection %s dimension mismatch: expected %d, got %d", s.collection, dimension, got)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}

	for _, f := range indexedFields {
		idx := map[string]any{
			"field_name":   f.name,
			"field_schema": f.schema,
		}
		// Index creation failure is tolerable; filtering still works.
		if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/index", s.url, s.collection), idx); err != nil {
			log.Printf("payload index on %s not created: %v", f.name, err)
		}
	}
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func payloadFor(r *domain.VectorRecord) map[string]any {
	c := &r.Chunk
	return map[string]any{
		"chunk_id":         c.ID,
		"content":          c.Content,
		"language":         c.Language,
		"file_path":        c.FilePath,
		"line_start":       c.LineStart,
		"line_end":         c.LineEnd,
		"kind":             string(c.Kind),
		"complexity_score": c.ComplexityScore,
		"function_name":    c.FunctionName,
		"class_name":       c.ClassName,
		"module_name":      c.ModuleName,
		"docstring":        c.Docstring,
		"context":          c.Context,
		"dependencies":     c.Dependencies,
		"indexed_at":       r.IndexedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for batchIdx, start := 0, 0; start < len(records); batchIdx, start = batchIdx+1, start+vectorstore.DefaultUpsertBatch {
		end := start + vectorstore.DefaultUpsertBatch
		if end > len(records) {
			end = len(records)
		}

		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, point{
				ID:      records[i].PointID,
				Vector:  records[i].Vector,
				Payload: payloadFor(&records[i]),
			})
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
		if err := s.putJSON(ctx, url, map[string]any{"points": points}); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
				fmt.Sprintf("upsert batch %d failed", batchIdx), err)
		}
	}
	return nil
}

// filterFor builds the Qdrant filter: one must clause per field, each an OR
// over the field's accepted values.
func filterFor(filters domain.SearchFilters) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	var must []map[string]any
	for field, values := range filters {
		if len(values) == 0 {
			continue
		}
		var should []map[string]any
		for _, v := range values {
			should = append(should, map[string]any{
				"key":   field,
				"match": map[string]any{"value": v},
			})
		}
		must = append(must, map[string]any{"should": should})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (s *Store) Search(ctx context.Context, params vectorstore.SearchParams) ([]domain.ScoredChunk, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}

	req := map[string]any{
		"vector":       params.Vector,
		"limit":        limit,
		"with_payload": true,
	}
	if params.ScoreThreshold > 0 {
		req["score_threshold"] = params.ScoreThreshold
	}
	if f := filterFor(params.Filters); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "search failed", err)
	}

	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		sc := domain.ScoredChunk{Score: r.Score, Chunk: chunkFromPayload(r.Payload)}
		if ts, ok := r.Payload["indexed_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				sc.IndexedAt = t
			}
		}
		results = append(results, sc)
	}
	return results, nil
}

func chunkFromPayload(p map[string]any) domain.CodeChunk {
	str := func(key string) string {
		v, _ := p[key].(string)
		return v
	}
	num := func(key string) float64 {
		v, _ := p[key].(float64)
		return v
	}
	chunk := domain.CodeChunk{
		ID:              str("chunk_id"),
		Content:         str("content"),
		Kind:            domain.ChunkKind(str("kind")),
		Language:        str("language"),
		FilePath:        str("file_path"),
		LineStart:       int(num("line_start")),
		LineEnd:         int(num("line_end")),
		FunctionName:    str("function_name"),
		ClassName:       str("class_name"),
		ModuleName:      str("module_name"),
		Docstring:       str("docstring"),
		ComplexityScore: num("complexity_score"),
		Context:         str("context"),
	}
	if deps, ok := p["dependencies"].([]any); ok {
		for _, d := range deps {
			if dep, ok := d.(string); ok {
				chunk.Dependencies = append(chunk.Dependencies, dep)
			}
		}
	}
	return chunk
}

func (s *Store) DeleteByFile(ctx context.Context, filePath string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "file_path",
					"match": map[string]any{"value": filePath},
				},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	if err := s.postJSON(ctx, url, body, nil); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
			fmt.Sprintf("delete for %s failed", filePath), err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (uint64, error) {
	var resp struct {
		Result struct {
			Count uint64 `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	if err := s.postJSON(ctx, url, map[string]any{"exact": true}, &resp); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "count failed", err)
	}
	return resp.Result.Count, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	var out any
	if err := s.getJSON(ctx, s.url+"/collections", &out); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "qdrant unreachable", err)
	}
	return nil
}

func (s *Store) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s returned %s: %s", method, url, resp.Status, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, url string, out any) error {
	return s.do(ctx, http.MethodGet, url, nil, out)
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	return s.do(ctx, http.MethodPut, url, body, nil)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	return s.do(ctx, http.MethodPost, url, body, out)
}
