// Package session manages streaming client sessions and their
// cancellable generation tasks.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/seekr-dev/seekr/internal/domain"
)

const DefaultIdleTimeout = 5 * time.Minute

// MessageType tags the wire envelope.
type MessageType string

const (
	MessageStatus         MessageType = "status_update"
	MessageStreamChunk    MessageType = "stream_chunk"
	MessageStreamComplete MessageType = "stream_complete"
	MessageStreamError    MessageType = "stream_error"
	MessagePong           MessageType = "pong"
)

// Message is one envelope delivered to a session's sink.
type Message struct {
	Type      MessageType    `json:"type"`
	TaskID    string         `json:"task_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Chunk     string         `json:"chunk,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink delivers messages to one client over whatever transport the edge
// layer speaks. Send must be safe for concurrent use.
type Sink interface {
	Send(msg Message) error
	Close() error
}

// StreamFunc produces generation output by calling emit for each chunk,
// in order. It returns completion metadata, or an error. It must honor
// ctx cancellation between chunks.
type StreamFunc func(ctx context.Context, emit func(chunk string) error) (map[string]any, error)

type task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

type clientSession struct {
	clientID     string
	sink         Sink
	connectedAt  time.Time
	lastActivity time.Time
	streaming    bool
	task         *task
}

// Manager tracks sessions and enforces at most one active generation
// task per session.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*clientSession
	idleTimeout time.Duration
	closed      bool
}

func NewManager(idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		sessions:    make(map[string]*clientSession),
		idleTimeout: idleTimeout,
	}
}

// Connect registers a session and emits the initial status message.
func (m *Manager) Connect(clientID string, sink Sink) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.NewDomainError(domain.ErrCodeInternalError, "session manager is shut down")
	}
	if _, ok := m.sessions[clientID]; ok {
		m.mu.Unlock()
		return domain.NewDomainError(domain.ErrCodeValidation, "client already connected")
	}
	now := time.Now()
	s := &clientSession{
		clientID:     clientID,
		sink:         sink,
		connectedAt:  now,
		lastActivity: now,
	}
	m.sessions[clientID] = s
	m.mu.Unlock()

	log.Printf("session connected: %s", clientID)
	return sink.Send(Message{
		Type:      MessageStatus,
		Status:    "connected",
		Timestamp: now,
	})
}

// Disconnect cancels the session's active task, waits for its terminal
// message, closes the sink, and discards the session.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, clientID)
	t := s.task
	m.mu.Unlock()

	if t != nil {
		t.cancel()
		<-t.done
	}
	if err := s.sink.Close(); err != nil {
		log.Printf("error closing sink for %s: %v", clientID, err)
	}
	log.Printf("session disconnected: %s", clientID)
}

// StartStream runs stream as the session's generation task. An in-flight
// task is cancelled first and its terminal message delivered before the
// new task starts.
func (m *Manager) StartStream(ctx context.Context, clientID, taskID string, stream StreamFunc) error {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	prev := s.task
	m.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{id: taskID, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	if cur, ok := m.sessions[clientID]; !ok || cur != s || s.task != nil {
		// Disconnected, or a competing StartStream won the race.
		m.mu.Unlock()
		cancel()
		close(t.done)
		return domain.ErrSessionNotFound
	}
	s.task = t
	s.streaming = true
	s.lastActivity = time.Now()
	m.mu.Unlock()

	go m.runTask(taskCtx, s, t, stream)
	return nil
}

// StopGeneration cancels the session's active task, if any, and reports
// whether one was running.
func (m *Manager) StopGeneration(clientID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if !ok || s.task == nil {
		m.mu.Unlock()
		return false
	}
	t := s.task
	m.mu.Unlock()

	t.cancel()
	<-t.done
	return true
}

// Ping refreshes the session's activity clock and answers with a pong.
func (m *Manager) Ping(clientID string) error {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	s.lastActivity = time.Now()
	m.mu.Unlock()

	return s.sink.Send(Message{Type: MessagePong, Timestamp: time.Now()})
}

// SweepIdle disconnects sessions inactive past the idle timeout. It is
// run from the periodic background worker.
func (m *Manager) SweepIdle(ctx context.Context) error {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		if s.lastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		log.Printf("disconnecting idle session: %s", id)
		m.Disconnect(id)
	}
	return ctx.Err()
}

// Shutdown cancels every task and closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Disconnect(id)
	}
	log.Printf("session manager shut down")
}

// ConnectionCount returns the number of live sessions.
func (m *Manager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sessions returns a point-in-time snapshot of every live session.
func (m *Manager) Sessions() []domain.StreamingSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.StreamingSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		snap := domain.StreamingSession{
			ClientID:     s.clientID,
			ConnectedAt:  s.connectedAt,
			LastActivity: s.lastActivity,
			State:        domain.SessionStateIdle,
		}
		if s.task != nil {
			snap.State = domain.SessionStateStreaming
			snap.CurrentTaskID = s.task.id
		}
		out = append(out, snap)
	}
	return out
}

// StreamingCount returns the number of sessions with an active task.
func (m *Manager) StreamingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.streaming {
			n++
		}
	}
	return n
}

// runTask drives one generation task and guarantees exactly one terminal
// message, then clears the session's task slot.
func (m *Manager) runTask(ctx context.Context, s *clientSession, t *task, stream StreamFunc) {
	defer func() {
		m.mu.Lock()
		if s.task == t {
			s.task = nil
			s.streaming = false
			s.lastActivity = time.Now()
		}
		m.mu.Unlock()
		t.cancel()
		close(t.done)
	}()

	emit := func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.touch(s)
		return s.sink.Send(Message{
			Type:      MessageStreamChunk,
			TaskID:    t.id,
			Chunk:     chunk,
			Timestamp: time.Now(),
		})
	}

	metadata, err := stream(ctx, emit)

	var terminal Message
	switch {
	case err == nil && ctx.Err() == nil:
		terminal = Message{
			Type:      MessageStreamComplete,
			TaskID:    t.id,
			Metadata:  metadata,
			Timestamp: time.Now(),
		}
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		terminal = Message{
			Type:      MessageStreamError,
			TaskID:    t.id,
			Error:     "generation stopped",
			Timestamp: time.Now(),
		}
	default:
		terminal = Message{
			Type:      MessageStreamError,
			TaskID:    t.id,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
	}

	if err := s.sink.Send(terminal); err != nil {
		log.Printf("error sending terminal message for task %s: %v", t.id, err)
	}
}

func (m *Manager) touch(s *clientSession) {
	m.mu.Lock()
	s.lastActivity = time.Now()
	m.mu.Unlock()
}
