package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/seekr-dev/seekr/internal/api"
	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/indexer"
)

// IndexService is the slice of the indexer the handlers need.
type IndexService interface {
	IndexWorkspace(ctx context.Context, root string) (*indexer.Result, error)
	IndexFile(ctx context.Context, root, path string) (int, error)
	DeleteFile(ctx context.Context, root, path string) error
	Stats(ctx context.Context) (*indexer.Stats, error)
}

// SessionLister reads the session manager's live-session snapshot.
type SessionLister interface {
	Sessions() []domain.StreamingSession
}

type IndexHandler struct {
	svc      IndexService
	sessions SessionLister
	// workspaceRoot anchors relative file paths in requests.
	workspaceRoot string
}

func NewIndexHandler(svc IndexService, sessions SessionLister, workspaceRoot string) *IndexHandler {
	return &IndexHandler{svc: svc, sessions: sessions, workspaceRoot: workspaceRoot}
}

type IndexRequest struct {
	// Root overrides the configured workspace root for this run.
	Root string `json:"root"`
	// FilePath limits the run to a single file, relative to the root.
	FilePath string `json:"file_path"`
}

type IndexFileResponse struct {
	FilePath      string `json:"file_path"`
	ChunksWritten int    `json:"chunks_written"`
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	root := req.Root
	if root == "" {
		root = h.workspaceRoot
	}
	if root == "" {
		api.Error(w, http.StatusBadRequest, "root is required")
		return
	}

	if req.FilePath != "" {
		written, err := h.svc.IndexFile(r.Context(), root, req.FilePath)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusOK, IndexFileResponse{
			FilePath:      req.FilePath,
			ChunksWritten: written,
		})
		return
	}

	result, err := h.svc.IndexWorkspace(r.Context(), root)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

func (h *IndexHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FilePath == "" {
		api.Error(w, http.StatusBadRequest, "file_path is required")
		return
	}

	root := req.Root
	if root == "" {
		root = h.workspaceRoot
	}

	if err := h.svc.DeleteFile(r.Context(), root, req.FilePath); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"deleted": req.FilePath})
}

type StatsResponse struct {
	ChunkCount        uint64          `json:"chunk_count"`
	LastRun           *indexer.Result `json:"last_run,omitempty"`
	LastRunAt         time.Time       `json:"last_run_at,omitempty"`
	ActiveSessions    int             `json:"active_sessions"`
	StreamingSessions int             `json:"streaming_sessions"`
}

func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := StatsResponse{
		ChunkCount: stats.ChunkCount,
		LastRun:    stats.LastRun,
		LastRunAt:  stats.LastRunAt,
	}
	for _, s := range h.sessions.Sessions() {
		resp.ActiveSessions++
		if s.IsStreaming() {
			resp.StreamingSessions++
		}
	}
	api.Success(w, http.StatusOK, resp)
}
