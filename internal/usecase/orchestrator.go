// File: internal/usecase/orchestrator.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/infra/metrics"
)

const (
	errProfileAnalysisFailed = "Profile analysis failed"
	errJobMatchesMissing     = "Job matches not found. Run find_jobs first."
)

// OrchestratorUseCase runs a workflow over the session-scoped agents.
type OrchestratorUseCase interface {
	Execute(ctx context.Context, req model.TaskRequest) *model.TaskResponse
}

var _ OrchestratorUseCase = (*orchestratorUC)(nil)

type workflowFunc func(ctx context.Context, sessionID string, req model.TaskRequest) *model.TaskResponse

type orchestratorUC struct {
	store           repository.SessionStore
	strategy        Agent
	market          Agent
	personalization Agent
	recorder        Recorder
	events          adapter.EventPublisher
	log             *zerolog.Logger

	workflows map[model.Workflow]workflowFunc
}

func NewOrchestrator(
	store repository.SessionStore,
	strategy, market, personalization Agent,
	recorder Recorder,
	events adapter.EventPublisher,
	logger *zerolog.Logger,
) *orchestratorUC {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	l := logger.With().Str("component", "Orchestrator").Logger()
	o := &orchestratorUC{
		store:           store,
		strategy:        strategy,
		market:          market,
		personalization: personalization,
		recorder:        recorder,
		events:          events,
		log:             &l,
	}
	o.workflows = map[model.Workflow]workflowFunc{
		model.WorkflowAnalyzeProfile:    o.analyzeProfile,
		model.WorkflowFindJobs:          o.findJobs,
		model.WorkflowCreateApplication: o.createApplication,
		model.WorkflowFullJourney:       o.fullJourney,
	}
	return o
}

func (o *orchestratorUC) Execute(ctx context.Context, req model.TaskRequest) *model.TaskResponse {
	start := time.Now()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx = logging.WithSessID(ctx, sessionID)
	ctx = logging.WithUserID(ctx, req.UserID)
	ctx = logging.WithWorkflow(ctx, req.TaskType)
	log := logging.With(ctx, o.log)

	wf := model.Workflow(req.TaskType)
	if _, err := o.store.UpdateContext(ctx, sessionID, func(sc *model.SessionContext) { sc.Restart(req.UserID, wf) }); err != nil {
		log.Warn().Err(err).Msg("failed to initialize session context")
	}

	run, known := o.workflows[wf]
	var resp *model.TaskResponse
	if !known {
		resp = o.response(ctx, sessionID, model.TaskFailed, nil, fmt.Sprintf("Unknown task type: %s", req.TaskType))
	} else {
		resp = run(ctx, sessionID, req)
	}

	metrics.IncWorkflow(string(wf), string(resp.Status))
	o.publish(ctx, adapter.SessionEvent{
		Type:      adapter.EventWorkflowCompleted,
		SessionID: sessionID,
		UserID:    req.UserID,
		Workflow:  string(wf),
		Success:   resp.Completed(),
		Error:     resp.Error,
	})
	log.Info().
		Str("status", string(resp.Status)).
		Strs("agent_trace", resp.AgentTrace).
		Dur("duration", time.Since(start)).
		Msg("workflow finished")
	return resp
}

func (o *orchestratorUC) analyzeProfile(ctx context.Context, sessionID string, req model.TaskRequest) *model.TaskResponse {
	res := o.runAgent(ctx, sessionID, req, o.strategy, resumeTask(sessionID, req))
	return o.fromResult(ctx, sessionID, res)
}

func (o *orchestratorUC) findJobs(ctx context.Context, sessionID string, req model.TaskRequest) *model.TaskResponse {
	sc := o.loadContext(ctx, sessionID)
	if sc == nil || sc.Profile == nil {
		res := o.runAgent(ctx, sessionID, req, o.strategy, resumeTask(sessionID, req))
		if !res.Succeeded() {
			return o.response(ctx, sessionID, model.TaskFailed, nil, errProfileAnalysisFailed)
		}
	}
	res := o.runAgent(ctx, sessionID, req, o.market, AgentTask{SessionID: sessionID, UserID: req.UserID})
	return o.fromResult(ctx, sessionID, res)
}

func (o *orchestratorUC) createApplication(ctx context.Context, sessionID string, req model.TaskRequest) *model.TaskResponse {
	sc := o.loadContext(ctx, sessionID)
	if sc == nil || !sc.HasJobMatches() {
		return o.response(ctx, sessionID, model.TaskFailed, nil, errJobMatchesMissing)
	}
	res := o.runAgent(ctx, sessionID, req, o.personalization, AgentTask{
		SessionID: sessionID,
		UserID:    req.UserID,
		JobID:     req.Input.JobID,
	})
	return o.fromResult(ctx, sessionID, res)
}

func (o *orchestratorUC) fullJourney(ctx context.Context, sessionID string, req model.TaskRequest) *model.TaskResponse {
	analysis := o.analyzeProfile(ctx, sessionID, req)
	if !analysis.Completed() {
		return analysis
	}
	search := o.findJobs(ctx, sessionID, req)
	if !search.Completed() {
		return search
	}

	out := &model.JourneyResult{
		ProfileAnalysis: analysis,
		JobSearch:       search,
		Applications:    []model.JourneyApplication{},
	}
	var top []model.JobMatch
	if sc := o.loadContext(ctx, sessionID); sc != nil {
		top = sc.JobMatches
	}
	if len(top) > model.JourneyApplications {
		top = top[:model.JourneyApplications]
	}
	for _, m := range top {
		if m.Job.JobID == "" {
			continue
		}
		appReq := req
		appReq.Input = model.TaskInput{JobID: m.Job.JobID}
		resp := o.createApplication(ctx, sessionID, appReq)
		if !resp.Completed() {
			continue
		}
		entry := model.JourneyApplication{JobID: m.Job.JobID, JobTitle: m.Job.Title, Company: m.Job.Company}
		if pr, ok := resp.Result.(*PersonalizationResult); ok {
			entry.Application = pr.Application
		}
		out.Applications = append(out.Applications, entry)
	}
	out.ApplicationsCount = len(out.Applications)
	return o.response(ctx, sessionID, model.TaskCompleted, out, "")
}

// runAgent re-reads the session context, appends the agent to the trace, runs it and
// writes the context back. Side effects after the agent returns are best-effort.
func (o *orchestratorUC) runAgent(ctx context.Context, sessionID string, req model.TaskRequest, agent Agent, task AgentTask) AgentResult {
	log := logging.With(ctx, o.log)
	name := agent.Name()

	sc, err := o.store.UpdateContext(ctx, sessionID, func(sc *model.SessionContext) {
		if sc.UserID == "" {
			sc.UserID = req.UserID
		}
		sc.AppendTrace(name)
	})
	if err != nil {
		log.Warn().Err(err).Str("agent", name).Msg("failed to update session trace")
		sc = model.NewSessionContext(req.UserID, model.Workflow(req.TaskType))
		sc.AppendTrace(name)
	}

	start := time.Now()
	res := agent.Process(ctx, task, sc)
	metrics.ObserveAgent(name, res.Succeeded(), time.Since(start))

	sc.UpdatedAt = time.Now().UTC()
	if err := o.store.SetContext(ctx, sessionID, sc); err != nil {
		log.Warn().Err(err).Str("agent", name).Msg("failed to save session context")
	}
	if err := o.store.PutAgentOutput(ctx, sessionID, name, res); err != nil {
		log.Warn().Err(err).Str("agent", name).Msg("failed to publish agent output")
	}
	if res.Succeeded() {
		o.record(ctx, res)
	}
	o.publish(ctx, adapter.SessionEvent{
		Type:      adapter.EventAgentCompleted,
		SessionID: sessionID,
		UserID:    req.UserID,
		Workflow:  req.TaskType,
		Agent:     name,
		Success:   res.Succeeded(),
		Error:     res.Failure(),
	})
	return res
}

func (o *orchestratorUC) record(ctx context.Context, res AgentResult) {
	switch r := res.(type) {
	case *StrategyResult:
		o.recorder.RecordStrategy(ctx, r.Profile, r.Strategy)
	case *MarketResult:
		if !r.Placeholder {
			o.recorder.RecordJobs(ctx, r.Jobs)
		}
	case *PersonalizationResult:
		o.recorder.RecordApplication(ctx, r.Application)
	}
}

func (o *orchestratorUC) publish(ctx context.Context, ev adapter.SessionEvent) {
	if o.events == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := o.events.Publish(ctx, ev); err != nil {
		logging.With(ctx, o.log).Debug().Err(err).Str("event", ev.Type).Msg("event not published")
	}
}

func (o *orchestratorUC) loadContext(ctx context.Context, sessionID string) *model.SessionContext {
	sc, err := o.store.GetContext(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.With(ctx, o.log).Warn().Err(err).Msg("failed to read session context")
		}
		return nil
	}
	return sc
}

func (o *orchestratorUC) fromResult(ctx context.Context, sessionID string, res AgentResult) *model.TaskResponse {
	if res.Succeeded() {
		return o.response(ctx, sessionID, model.TaskCompleted, res, "")
	}
	return o.response(ctx, sessionID, model.TaskFailed, res, res.Failure())
}

func (o *orchestratorUC) response(ctx context.Context, sessionID string, status model.TaskStatus, result any, errMsg string) *model.TaskResponse {
	trace := []string{}
	if sc := o.loadContext(ctx, sessionID); sc != nil {
		trace = sc.Trace()
	}
	return &model.TaskResponse{
		TaskID:     ulid.Make().String(),
		SessionID:  sessionID,
		Status:     status,
		Result:     result,
		Error:      errMsg,
		AgentTrace: trace,
	}
}

func resumeTask(sessionID string, req model.TaskRequest) AgentTask {
	return AgentTask{
		SessionID:  sessionID,
		UserID:     req.UserID,
		ResumeText: req.Input.ResumeText,
		ResumeFile: req.Input.ResumeFile(),
	}
}
