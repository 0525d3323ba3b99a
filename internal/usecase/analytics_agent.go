// File: internal/usecase/analytics_agent.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
)

var _ Agent = (*AnalyticsAgent)(nil)

type AnalyticsOp string

const (
	OpGetMetrics      AnalyticsOp = "get_metrics"
	OpUpdateStatus    AnalyticsOp = "update_status"
	OpGetApplications AnalyticsOp = "get_applications"
)

type AnalyticsResult struct {
	resultBase
	Metrics       *model.KPIMetrics    `json:"metrics,omitempty"`
	Applications  []*model.Application `json:"applications"`
	Count         int                  `json:"count"`
	ApplicationID string               `json:"application_id,omitempty"`
	Status        string               `json:"status,omitempty"`
}

// MsgApplicationNotFound is the failure reported for an unknown application id.
const MsgApplicationNotFound = "Application not found"

// AnalyticsAgent reports on stored applications and moves them through the funnel.
// It is invoked directly rather than from a workflow and does not touch the session context.
type AnalyticsAgent struct {
	apps repository.ApplicationRepository
	tm   repository.TransactionManager
	now  func() time.Time
	log  *zerolog.Logger
}

func NewAnalyticsAgent(apps repository.ApplicationRepository, tm repository.TransactionManager, logger *zerolog.Logger) *AnalyticsAgent {
	l := logger.With().Str("component", AgentAnalytics).Logger()
	return &AnalyticsAgent{apps: apps, tm: tm, now: func() time.Time { return time.Now().UTC() }, log: &l}
}

func (a *AnalyticsAgent) Name() string { return AgentAnalytics }

func (a *AnalyticsAgent) Process(ctx context.Context, task AgentTask, _ *model.SessionContext) AgentResult {
	switch task.Op {
	case OpGetMetrics:
		return a.metrics(ctx, task.UserID)
	case OpUpdateStatus:
		return a.updateStatus(ctx, task.ApplicationID, task.Status)
	case OpGetApplications:
		return a.applications(ctx, task.UserID)
	default:
		return &AnalyticsResult{resultBase: failed("Unknown analytics operation: " + string(task.Op))}
	}
}

func (a *AnalyticsAgent) metrics(ctx context.Context, userID string) *AnalyticsResult {
	end := a.now()
	start := end.Add(-model.KPIWindow)
	apps, err := a.apps.ListByUserSince(ctx, nil, userID, start)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", userID).Msg("load applications for metrics")
		return &AnalyticsResult{resultBase: failed(err.Error())}
	}
	m := model.ComputeKPI(userID, apps, start, end)
	return &AnalyticsResult{resultBase: succeeded(), Metrics: m, Count: m.TotalApplications}
}

func (a *AnalyticsAgent) updateStatus(ctx context.Context, applicationID, status string) *AnalyticsResult {
	st, err := model.ParseApplicationStatus(status)
	if err != nil {
		return &AnalyticsResult{resultBase: failed("Invalid status: " + status)}
	}

	err = a.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		app, err := a.apps.FindByID(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		app.SetStatus(st, a.now())
		return a.apps.Save(ctx, tx, app)
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &AnalyticsResult{resultBase: failed(MsgApplicationNotFound)}
	case err != nil:
		a.log.Error().Err(err).Str("application_id", applicationID).Msg("update application status")
		return &AnalyticsResult{resultBase: failed(err.Error())}
	}
	a.log.Info().Str("application_id", applicationID).Str("status", string(st)).Msg("application status updated")
	return &AnalyticsResult{resultBase: succeeded(), ApplicationID: applicationID, Status: string(st)}
}

func (a *AnalyticsAgent) applications(ctx context.Context, userID string) *AnalyticsResult {
	apps, err := a.apps.ListByUser(ctx, nil, userID)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", userID).Msg("list applications")
		return &AnalyticsResult{resultBase: failed(err.Error())}
	}
	if apps == nil {
		apps = []*model.Application{}
	}
	return &AnalyticsResult{resultBase: succeeded(), Applications: apps, Count: len(apps)}
}
