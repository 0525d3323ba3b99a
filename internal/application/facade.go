package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/usecase"
)

const minResumeRunes = 10

var _ Facade = (*JobSearchFacade)(nil)

// JobSearchFacade composes the orchestrator, the analytics agent and the supporting
// services into the operations exposed to users.
type JobSearchFacade struct {
	orchestrator usecase.OrchestratorUseCase
	analytics    usecase.Agent
	parser       adapter.ResumeParser
	sessions     repository.SessionStore
	similar      SimilarJobsFinder
	archive      adapter.ResumeArchive
	log          *zerolog.Logger
}

// NewJobSearchFacade wires the facade. archive and similar may be nil.
func NewJobSearchFacade(
	orchestrator usecase.OrchestratorUseCase,
	analytics usecase.Agent,
	parser adapter.ResumeParser,
	sessions repository.SessionStore,
	similar SimilarJobsFinder,
	archive adapter.ResumeArchive,
	logger *zerolog.Logger,
) *JobSearchFacade {
	l := logger.With().Str("component", "Facade").Logger()
	return &JobSearchFacade{
		orchestrator: orchestrator,
		analytics:    analytics,
		parser:       parser,
		sessions:     sessions,
		similar:      similar,
		archive:      archive,
		log:          &l,
	}
}

// NewUserID returns an anonymous user id of the form user_<12 hex>.
func NewUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (f *JobSearchFacade) SubmitTask(ctx context.Context, req model.TaskRequest) (*model.TaskResponse, error) {
	if err := ValidateTask(req); err != nil {
		logging.With(ctx, f.log).Warn().Err(err).Str("user_id", req.UserID).Msg("task rejected")
		return nil, err
	}
	if file := req.Input.ResumeFile(); file != nil {
		if err := checkResumeFile(file); err != nil {
			return nil, err
		}
		f.archiveFile(ctx, req.UserID, file)
	}
	resp := f.orchestrator.Execute(ctx, req)
	return SanitizeResponse(resp), nil
}

// RunFullJourney runs the full_journey workflow in a fresh session. The result is not sanitized.
func (f *JobSearchFacade) RunFullJourney(ctx context.Context, userID string, in model.TaskInput) (*model.TaskResponse, error) {
	if userID == "" {
		userID = NewUserID()
	}
	file := in.ResumeFile()
	switch {
	case file != nil:
		if err := checkResumeFile(file); err != nil {
			return nil, err
		}
	case strings.TrimSpace(in.ResumeText) == "":
		return nil, &ValidationError{Reason: "Either file (PDF) or resume_text must be provided"}
	case len([]rune(strings.TrimSpace(in.ResumeText))) < minResumeRunes:
		return nil, &RequestError{Msg: "Resume text is too short", Err: domain.ErrResumeTooShort}
	default:
		in.ResumeText = strings.TrimSpace(in.ResumeText)
	}

	req := model.TaskRequest{
		UserID:    userID,
		TaskType:  string(model.WorkflowFullJourney),
		SessionID: uuid.NewString(),
		Input:     in,
	}
	if err := ValidateTask(req); err != nil {
		return nil, err
	}
	if file != nil {
		f.archiveFile(ctx, userID, file)
	}
	return f.orchestrator.Execute(ctx, req), nil
}

func (f *JobSearchFacade) ParseResume(ctx context.Context, userID string, text string, file *model.ResumeFile) (*ParseOutcome, error) {
	if userID == "" {
		userID = NewUserID()
	}
	out := &ParseOutcome{UserID: userID}
	in := adapter.ResumeInput{}
	if !file.Empty() || (file != nil && file.Name != "") {
		if err := checkResumeFile(file); err != nil {
			return nil, err
		}
		out.Filename = file.Name
		out.ArchiveKey = f.archiveFile(ctx, userID, file)
		in.File = file
	} else {
		text = strings.TrimSpace(text)
		if len([]rune(text)) < minResumeRunes {
			return nil, &RequestError{Msg: "Resume text is too short", Err: domain.ErrResumeTooShort}
		}
		in.Text = text
	}

	parsed, err := f.parser.Parse(ctx, in)
	if err != nil {
		return nil, &RequestError{Msg: "Failed to parse resume: " + err.Error(), Err: err}
	}
	out.Data = parsed
	return out, nil
}

func (f *JobSearchFacade) Session(ctx context.Context, sessionID string) (*SessionView, error) {
	view := &SessionView{SessionID: sessionID}
	sc, err := f.sessions.GetContext(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	view.Context = sc
	ws, err := f.sessions.GetWorkspace(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	view.Workspace = ws
	return view, nil
}

func (f *JobSearchFacade) ClearSession(ctx context.Context, sessionID string) error {
	return f.sessions.Clear(ctx, sessionID)
}

func (f *JobSearchFacade) Applications(ctx context.Context, userID string) (*usecase.AnalyticsResult, error) {
	return f.runAnalytics(ctx, usecase.AgentTask{Op: usecase.OpGetApplications, UserID: userID})
}

func (f *JobSearchFacade) Metrics(ctx context.Context, userID string) (*model.KPIMetrics, error) {
	res, err := f.runAnalytics(ctx, usecase.AgentTask{Op: usecase.OpGetMetrics, UserID: userID})
	if err != nil {
		return nil, err
	}
	return res.Metrics, nil
}

func (f *JobSearchFacade) UpdateApplicationStatus(ctx context.Context, applicationID, status string) (*usecase.AnalyticsResult, error) {
	if _, err := model.ParseApplicationStatus(status); err != nil {
		return nil, invalid("Invalid status: %s", status)
	}
	return f.runAnalytics(ctx, usecase.AgentTask{Op: usecase.OpUpdateStatus, ApplicationID: applicationID, Status: status})
}

func (f *JobSearchFacade) SimilarJobs(ctx context.Context, query string, limit int) ([]model.SimilarJob, error) {
	if f.similar == nil {
		return nil, errors.New("job memory is not configured")
	}
	if DetectInjection(query) {
		return nil, invalid("Invalid input detected in field: q")
	}
	return f.similar.Similar(ctx, query, limit)
}

func (f *JobSearchFacade) runAnalytics(ctx context.Context, task usecase.AgentTask) (*usecase.AnalyticsResult, error) {
	res, ok := f.analytics.Process(ctx, task, nil).(*usecase.AnalyticsResult)
	if !ok {
		return nil, fmt.Errorf("unexpected analytics result")
	}
	if !res.Succeeded() {
		if res.Failure() == usecase.MsgApplicationNotFound {
			return nil, &RequestError{Msg: res.Failure(), Err: domain.ErrNotFound}
		}
		return nil, errors.New(res.Failure())
	}
	return res, nil
}

// archiveFile stores the upload when an archive is configured. Failures are logged only.
func (f *JobSearchFacade) archiveFile(ctx context.Context, userID string, file *model.ResumeFile) string {
	if f.archive == nil || file.Empty() {
		return ""
	}
	key, err := f.archive.Put(ctx, userID, file)
	if err != nil {
		logging.With(ctx, f.log).Warn().Err(err).Str("user_id", userID).Msg("resume archive failed")
		return ""
	}
	return key
}

// checkResumeFile accepts PDF and DOCX uploads by extension.
func checkResumeFile(file *model.ResumeFile) error {
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".pdf", ".docx":
	default:
		return &RequestError{Msg: "Only PDF and DOCX files are supported", Err: domain.ErrUnsupportedFile}
	}
	if file.Empty() {
		return &RequestError{Msg: "Empty file", Err: domain.ErrEmptyFile}
	}
	return nil
}
