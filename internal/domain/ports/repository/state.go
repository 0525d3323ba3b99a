package repository

import (
	"context"
)

const StepAwaitingResume = "awaiting_resume"

// ConversationState holds the user's progress in a multi-step bot conversation.
type ConversationState struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data,omitempty"`
}

// StateRepository is the port for managing a chat user's conversational state.
// GetState returns domain.ErrNotFound when no state is stored.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
