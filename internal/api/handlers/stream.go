package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/seekr-dev/seekr/internal/api"
	"github.com/seekr-dev/seekr/internal/rag"
	"github.com/seekr-dev/seekr/internal/session"
)

// Streamer runs a query and delivers output incrementally.
type Streamer interface {
	StreamQuery(ctx context.Context, req rag.QueryRequest, fn func(chunk string) error) (*rag.Result, error)
}

type StreamHandler struct {
	sessions *session.Manager
	svc      Streamer
}

func NewStreamHandler(sessions *session.Manager, svc Streamer) *StreamHandler {
	return &StreamHandler{sessions: sessions, svc: svc}
}

// sseSink delivers session messages as server-sent events. terminal is
// closed once a stream_complete or stream_error message has been written.
type sseSink struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	flusher  http.Flusher
	terminal chan struct{}
	done     bool
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher) *sseSink {
	return &sseSink{w: w, flusher: flusher, terminal: make(chan struct{})}
}

func (s *sseSink) Send(msg session.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()

	if !s.done && (msg.Type == session.MessageStreamComplete || msg.Type == session.MessageStreamError) {
		s.done = true
		close(s.terminal)
	}
	return nil
}

func (s *sseSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.done {
		s.done = true
		close(s.terminal)
	}
	return nil
}

// Stream serves GET /stream?q=... as one single-task SSE session.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	maxResults := 0
	if v := r.URL.Query().Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		maxResults = n
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.NewString()
	taskID := uuid.NewString()
	sink := newSSESink(w, flusher)

	if err := h.sessions.Connect(clientID, sink); err != nil {
		return
	}
	defer h.sessions.Disconnect(clientID)

	req := rag.QueryRequest{
		Query:      query,
		MaxResults: maxResults,
		Provider:   r.URL.Query().Get("provider"),
		Model:      r.URL.Query().Get("model"),
	}

	err := h.sessions.StartStream(r.Context(), clientID, taskID,
		func(ctx context.Context, emit func(chunk string) error) (map[string]any, error) {
			result, err := h.svc.StreamQuery(ctx, req, emit)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"model_used":      result.ModelUsed,
				"retrieval_score": result.RetrievalScore,
				"chunks":          len(result.RetrievedChunks),
			}, nil
		})
	if err != nil {
		return
	}

	select {
	case <-sink.terminal:
	case <-r.Context().Done():
	}
}
