package repository

import (
	"context"

	"job-search-mas/internal/domain/model"
)

// SessionStore holds per-session context and the agent workspace, both with expiry.
// GetContext and GetWorkspace return domain.ErrNotFound for unknown or expired sessions.
type SessionStore interface {
	GetContext(ctx context.Context, sessionID string) (*model.SessionContext, error)
	SetContext(ctx context.Context, sessionID string, sc *model.SessionContext) error
	// UpdateContext applies fn to the stored context (or a fresh one when absent) and writes it back.
	UpdateContext(ctx context.Context, sessionID string, fn func(sc *model.SessionContext)) (*model.SessionContext, error)

	GetWorkspace(ctx context.Context, sessionID string) (*model.Workspace, error)
	// PutAgentOutput overwrites the agent's slot in the workspace.
	PutAgentOutput(ctx context.Context, sessionID, agent string, output any) error

	// Clear deletes both the context and the workspace of a session.
	Clear(ctx context.Context, sessionID string) error
}
