package application

import (
	"context"

	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----

type SimilarJobsFinder interface {
	Similar(ctx context.Context, query string, limit int) ([]model.SimilarJob, error)
}

// Facade is the surface shared by the HTTP API, the Telegram bot and the operator CLI.
type Facade interface {
	SubmitTask(ctx context.Context, req model.TaskRequest) (*model.TaskResponse, error)
	RunFullJourney(ctx context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error)
	ParseResume(ctx context.Context, userID string, text string, file *model.ResumeFile) (*ParseOutcome, error)

	Session(ctx context.Context, sessionID string) (*SessionView, error)
	ClearSession(ctx context.Context, sessionID string) error

	Applications(ctx context.Context, userID string) (*usecase.AnalyticsResult, error)
	Metrics(ctx context.Context, userID string) (*model.KPIMetrics, error)
	UpdateApplicationStatus(ctx context.Context, applicationID, status string) (*usecase.AnalyticsResult, error)

	SimilarJobs(ctx context.Context, query string, limit int) ([]model.SimilarJob, error)
}

// ParseOutcome is the result of a standalone résumé parse.
type ParseOutcome struct {
	UserID     string              `json:"user_id"`
	Filename   string              `json:"filename,omitempty"`
	ArchiveKey string              `json:"archive_key,omitempty"`
	Data       *model.ParsedResume `json:"data"`
}

// SessionView is the stored state of a session; either part may be missing.
type SessionView struct {
	SessionID string                `json:"session_id"`
	Context   *model.SessionContext `json:"context"`
	Workspace *model.Workspace      `json:"workspace"`
}
