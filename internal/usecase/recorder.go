// File: internal/usecase/recorder.go
package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/metrics"
)

// Recorder persists agent outputs as a side effect of a workflow run.
// Failures are logged and swallowed; they never change a workflow result.
type Recorder interface {
	RecordStrategy(ctx context.Context, p *model.Profile, s *model.Strategy)
	RecordJobs(ctx context.Context, matches []model.JobMatch)
	RecordApplication(ctx context.Context, app *model.Application)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordStrategy(context.Context, *model.Profile, *model.Strategy) {}
func (NopRecorder) RecordJobs(context.Context, []model.JobMatch)                   {}
func (NopRecorder) RecordApplication(context.Context, *model.Application)          {}

// JobIndexer schedules embedding of stored postings.
type JobIndexer interface {
	IndexAsync(jobs []model.JobPosting)
}

var _ Recorder = (*repoRecorder)(nil)

type repoRecorder struct {
	profiles   repository.ProfileRepository
	strategies repository.StrategyRepository
	jobs       repository.JobRepository
	apps       repository.ApplicationRepository
	tm         repository.TransactionManager
	indexer    JobIndexer
	log        *zerolog.Logger
}

func NewRecorder(
	profiles repository.ProfileRepository,
	strategies repository.StrategyRepository,
	jobs repository.JobRepository,
	apps repository.ApplicationRepository,
	tm repository.TransactionManager,
	indexer JobIndexer,
	logger *zerolog.Logger,
) Recorder {
	l := logger.With().Str("component", "Recorder").Logger()
	return &repoRecorder{
		profiles:   profiles,
		strategies: strategies,
		jobs:       jobs,
		apps:       apps,
		tm:         tm,
		indexer:    indexer,
		log:        &l,
	}
}

func (r *repoRecorder) RecordStrategy(ctx context.Context, p *model.Profile, s *model.Strategy) {
	if p == nil || s == nil {
		return
	}
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := r.profiles.Save(ctx, tx, p); err != nil {
			return err
		}
		return r.strategies.Save(ctx, tx, s)
	})
	if err != nil {
		metrics.IncPersistenceFailure("strategy")
		r.log.Warn().Err(err).Str("user_id", p.UserID).Msg("failed to save profile and strategy")
		return
	}
	r.log.Debug().Str("user_id", p.UserID).Msg("profile and strategy saved")
}

func (r *repoRecorder) RecordJobs(ctx context.Context, matches []model.JobMatch) {
	if len(matches) == 0 {
		return
	}
	saved := make([]model.JobPosting, 0, len(matches))
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, m := range matches {
			if m.Job.JobID == "" {
				continue
			}
			job := m.Job
			score := m.RelevanceScore
			job.RelevanceScore = &score
			if err := r.jobs.Save(ctx, tx, &job); err != nil {
				return err
			}
			saved = append(saved, job)
		}
		return nil
	})
	if err != nil {
		metrics.IncPersistenceFailure("job_posting")
		r.log.Warn().Err(err).Int("jobs", len(matches)).Msg("failed to save job postings")
		return
	}
	if r.indexer != nil {
		r.indexer.IndexAsync(saved)
	}
}

func (r *repoRecorder) RecordApplication(ctx context.Context, app *model.Application) {
	if app == nil {
		return
	}
	if err := r.apps.Save(ctx, nil, app); err != nil {
		metrics.IncPersistenceFailure("application")
		r.log.Warn().Err(err).Str("application_id", app.ApplicationID).Msg("failed to save application")
	}
}
