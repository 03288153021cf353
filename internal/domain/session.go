package domain

import (
	"fmt"
	"time"
)

// SessionState tracks where a streaming session is in its lifecycle
type SessionState string

const (
	SessionStateConnecting SessionState = "connecting"
	SessionStateIdle       SessionState = "idle"
	SessionStateStreaming  SessionState = "streaming"
	SessionStateClosed     SessionState = "closed"
)

// StreamingSession is one logical client connection. A session carries at
// most one active generation task; starting a new one cancels the previous.
type StreamingSession struct {
	ClientID      string
	ConnectedAt   time.Time
	LastActivity  time.Time
	State         SessionState
	CurrentTaskID string
}

// IsStreaming reports whether the session has an in-flight generation task.
func (s *StreamingSession) IsStreaming() bool {
	return s.State == SessionStateStreaming
}

// IdleSince reports how long the session has been without activity.
func (s *StreamingSession) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// ValidateStreamingSession validates a StreamingSession instance
func ValidateStreamingSession(s *StreamingSession) error {
	if s == nil {
		return fmt.Errorf("streaming session cannot be nil")
	}
	if s.ClientID == "" {
		return fmt.Errorf("streaming session ClientID is required")
	}
	if !isValidSessionState(s.State) {
		return fmt.Errorf("streaming session State is invalid: %s", s.State)
	}
	if s.State == SessionStateStreaming && s.CurrentTaskID == "" {
		return fmt.Errorf("streaming session in state %s must have a task", s.State)
	}
	if s.State != SessionStateStreaming && s.CurrentTaskID != "" {
		return fmt.Errorf("streaming session in state %s cannot have a task", s.State)
	}
	return nil
}

func isValidSessionState(s SessionState) bool {
	switch s {
	case SessionStateConnecting, SessionStateIdle, SessionStateStreaming, SessionStateClosed:
		return true
	}
	return false
}
