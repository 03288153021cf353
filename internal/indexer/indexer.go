// Package indexer walks a workspace, chunks source files, embeds the
// chunks, and replaces each file's vectors in the index store.
package indexer

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/embedding"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

const DefaultWorkers = 4

// Directories never descended into during a workspace walk. Dot-prefixed
// directories are skipped separately.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"venv":         true,
	"env":          true,
	"__pycache__":  true,
}

// Embedder is the slice of the embedding service the indexer needs.
type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []domain.CodeChunk) ([]embedding.ChunkEmbedding, error)
}

// FileError records a per-file failure during an indexing run. File
// failures are collected, not fatal to the run.
type FileError struct {
	FilePath string `json:"file_path"`
	Stage    string `json:"stage"` // read, parse, embed, or store
	Message  string `json:"message"`
}

// Result summarizes one indexing run.
type Result struct {
	FilesScanned  int           `json:"files_scanned"`
	FilesIndexed  int           `json:"files_indexed"`
	FilesSkipped  int           `json:"files_skipped"`
	ChunksWritten int           `json:"chunks_written"`
	Duration      time.Duration `json:"duration"`
	FileErrors    []FileError   `json:"file_errors,omitempty"`
}

// Stats reports the current index size alongside the last run summary.
type Stats struct {
	ChunkCount uint64    `json:"chunk_count"`
	LastRun    *Result   `json:"last_run,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
}

// Indexer coordinates the parse, embed, and store pipeline. Distinct
// files index concurrently under a bounded worker count; operations on
// the same path serialize so delete-then-upsert never interleaves.
type Indexer struct {
	chunker      *chunker.Chunker
	embedder     Embedder
	store        vectorstore.Store
	maxChunkSize int
	workers      int

	pathLocks sync.Map // file path -> *sync.Mutex

	mu        sync.Mutex
	lastRun   *Result
	lastRunAt time.Time
}

func New(c *chunker.Chunker, embedder Embedder, store vectorstore.Store, maxChunkSize, workers int) *Indexer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Indexer{
		chunker:      c,
		embedder:     embedder,
		store:        store,
		maxChunkSize: maxChunkSize,
		workers:      workers,
	}
}

// IndexWorkspace walks root and indexes every supported source file.
func (ix *Indexer) IndexWorkspace(ctx context.Context, root string) (*Result, error) {
	started := time.Now()

	paths, err := ix.collectFiles(root)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to walk workspace", err)
	}

	result := &Result{FilesScanned: len(paths)}
	log.Printf("indexing workspace %s: %d candidate files, %d workers", root, len(paths), ix.workers)

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, ix.workers)
		rmu sync.Mutex
	)

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			written, ferr := ix.indexOne(ctx, root, path)

			rmu.Lock()
			defer rmu.Unlock()
			switch {
			case ferr != nil:
				result.FileErrors = append(result.FileErrors, *ferr)
			case written == 0:
				result.FilesSkipped++
			default:
				result.FilesIndexed++
				result.ChunksWritten += written
			}
		}(path)
	}
	wg.Wait()

	result.Duration = time.Since(started)
	log.Printf("workspace indexed: %d files, %d chunks, %d errors in %v",
		result.FilesIndexed, result.ChunksWritten, len(result.FileErrors), result.Duration)

	ix.mu.Lock()
	ix.lastRun = result
	ix.lastRunAt = time.Now()
	ix.mu.Unlock()

	return result, nil
}

// IndexFile reindexes a single file, replacing its stored vectors.
// It returns the number of chunks written.
func (ix *Indexer) IndexFile(ctx context.Context, root, path string) (int, error) {
	written, ferr := ix.indexOne(ctx, root, path)
	if ferr != nil {
		return 0, domain.NewDomainError(domain.ErrCodeParseFailure, ferr.Stage+": "+ferr.Message)
	}
	return written, nil
}

// DeleteFile removes every stored vector belonging to the file.
func (ix *Indexer) DeleteFile(ctx context.Context, root, path string) error {
	rel := ix.relPath(root, path)
	unlock := ix.lockPath(rel)
	defer unlock()
	return ix.store.DeleteByFile(ctx, rel)
}

// Stats returns the current chunk count and the last run summary.
func (ix *Indexer) Stats(ctx context.Context) (*Stats, error) {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	return &Stats{ChunkCount: count, LastRun: ix.lastRun, LastRunAt: ix.lastRunAt}, nil
}

// indexOne runs the parse, embed, delete, upsert pipeline for one file.
// A zero chunk count with no error means the file produced nothing to
// store and its previous vectors were left untouched.
func (ix *Indexer) indexOne(ctx context.Context, root, path string) (int, *FileError) {
	rel := ix.relPath(root, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &FileError{FilePath: rel, Stage: "read", Message: err.Error()}
	}
	if !isText(data) {
		return 0, nil
	}

	chunks, err := ix.chunker.Parse(rel, string(data), ix.maxChunkSize)
	if err != nil {
		return 0, &FileError{FilePath: rel, Stage: "parse", Message: err.Error()}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := ix.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return 0, &FileError{FilePath: rel, Stage: "embed", Message: err.Error()}
	}

	now := time.Now().UTC()
	records := make([]domain.VectorRecord, len(chunks))
	for i := range chunks {
		records[i] = domain.VectorRecord{
			PointID:   uuid.NewString(),
			Vector:    embeddings[i].Vector,
			Chunk:     chunks[i],
			IndexedAt: now,
		}
	}

	unlock := ix.lockPath(rel)
	defer unlock()

	if err := ix.store.DeleteByFile(ctx, rel); err != nil {
		return 0, &FileError{FilePath: rel, Stage: "store", Message: err.Error()}
	}
	if err := ix.store.Upsert(ctx, records); err != nil {
		return 0, &FileError{FilePath: rel, Stage: "store", Message: err.Error()}
	}

	return len(records), nil
}

// collectFiles walks root and returns paths with registered extensions,
// skipping dot-directories and common dependency or build trees.
func (ix *Indexer) collectFiles(root string) ([]string, error) {
	exts := ix.chunker.Registry().Extensions()

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if exts[strings.ToLower(ext)] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// lockPath serializes store writes for one file path.
func (ix *Indexer) lockPath(rel string) func() {
	v, _ := ix.pathLocks.LoadOrStore(rel, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (ix *Indexer) relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isText rejects binary content by scanning the first KB for NUL bytes.
func isText(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return true
}
