package adapter

import (
	"context"
	"time"
)

const (
	EventAgentCompleted    = "agent_completed"
	EventWorkflowCompleted = "workflow_completed"
)

// SessionEvent is a notification about progress inside a session.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Workflow  string    `json:"workflow"`
	Agent     string    `json:"agent,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev SessionEvent) error
}
