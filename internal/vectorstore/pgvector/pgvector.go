// Package pgvector backs the index store with Postgres and the pgvector
// extension. The code_chunks table is created by migrations.
package pgvector

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

// Store persists vector records in the code_chunks table.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewDomainError(domain.ErrCodeValidation, "collection dimension must be positive")
	}
	s.dimension = dimension

	var existing *int
	err := s.pool.QueryRow(ctx,
		`SELECT vector_dims(embedding) FROM code_chunks LIMIT 1`).Scan(&existing)
	if err == nil && existing != nil && *existing != dimension {
		log.Printf("code_chunks dimension mismatch: expected %d, got %d", dimension, *existing)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for batchIdx, start := 0, 0; start < len(records); batchIdx, start = batchIdx+1, start+vectorstore.DefaultUpsertBatch {
		end := start + vectorstore.DefaultUpsertBatch
		if end > len(records) {
			end = len(records)
		}
		if err := s.upsertBatch(ctx, records[start:end]); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
				fmt.Sprintf("upsert batch %d failed", batchIdx), err)
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, records []domain.VectorRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range records {
		r := &records[i]
		c := &r.Chunk
		_, err := tx.Exec(ctx,
			`INSERT INTO code_chunks
				(point_id, chunk_id, content, kind, language, file_path, line_start, line_end,
				 function_name, class_name, module_name, docstring, complexity_score, context,
				 dependencies, embedding, indexed_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			 ON CONFLICT (point_id) DO UPDATE SET
				chunk_id = EXCLUDED.chunk_id,
				content = EXCLUDED.content,
				kind = EXCLUDED.kind,
				language = EXCLUDED.language,
				file_path = EXCLUDED.file_path,
				line_start = EXCLUDED.line_start,
				line_end = EXCLUDED.line_end,
				function_name = EXCLUDED.function_name,
				class_name = EXCLUDED.class_name,
				module_name = EXCLUDED.module_name,
				docstring = EXCLUDED.docstring,
				complexity_score = EXCLUDED.complexity_score,
				context = EXCLUDED.context,
				dependencies = EXCLUDED.dependencies,
				embedding = EXCLUDED.embedding,
				indexed_at = EXCLUDED.indexed_at`,
			r.PointID, c.ID, c.Content, string(c.Kind), c.Language, c.FilePath,
			c.LineStart, c.LineEnd, c.FunctionName, c.ClassName, c.ModuleName,
			c.Docstring, c.ComplexityScore, c.Context, c.Dependencies,
			pgv.NewVector(r.Vector), r.IndexedAt.UTC(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// filterColumns maps filterable payload fields to table columns.
var filterColumns = map[string]string{
	"language":         "language",
	"file_path":        "file_path",
	"function_name":    "function_name",
	"class_name":       "class_name",
	"kind":             "kind",
	"complexity_score": "complexity_score::text",
}

func (s *Store) Search(ctx context.Context, params vectorstore.SearchParams) ([]domain.ScoredChunk, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}

	where := []string{"1 - (embedding <=> $1) >= $2"}
	args := []any{pgv.NewVector(params.Vector), params.ScoreThreshold}

	for field, values := range params.Filters {
		col, ok := filterColumns[field]
		if !ok || len(values) == 0 {
			continue
		}
		args = append(args, values)
		where = append(where, fmt.Sprintf("%s = ANY($%d)", col, len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT chunk_id, content, kind, language, file_path, line_start, line_end,
		        function_name, class_name, module_name, docstring, complexity_score,
		        context, dependencies, indexed_at,
		        1 - (embedding <=> $1) AS score
		 FROM code_chunks
		 WHERE %s
		 ORDER BY embedding <=> $1
		 LIMIT $%d`,
		strings.Join(where, " AND "), len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "search failed", err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		var kind string
		var score float64
		err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.Content, &kind, &sc.Chunk.Language,
			&sc.Chunk.FilePath, &sc.Chunk.LineStart, &sc.Chunk.LineEnd,
			&sc.Chunk.FunctionName, &sc.Chunk.ClassName, &sc.Chunk.ModuleName,
			&sc.Chunk.Docstring, &sc.Chunk.ComplexityScore, &sc.Chunk.Context,
			&sc.Chunk.Dependencies, &sc.IndexedAt, &score,
		)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "scan failed", err)
		}
		sc.Chunk.Kind = domain.ChunkKind(kind)
		sc.Score = float32(score)
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "search failed", err)
	}
	return results, nil
}

func (s *Store) DeleteByFile(ctx context.Context, filePath string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM code_chunks WHERE file_path = $1`, filePath)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
			fmt.Sprintf("delete for %s failed", filePath), err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM code_chunks`).Scan(&count); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "count failed", err)
	}
	return count, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "postgres unreachable", err)
	}
	return nil
}
