// File: internal/usecase/personalization_agent.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
)

var _ Agent = (*PersonalizationAgent)(nil)

type PersonalizationResult struct {
	resultBase
	Application          *model.Application `json:"application,omitempty"`
	CoverLetterGenerated bool               `json:"cover_letter_generated"`
	ResumeAdapted        bool               `json:"resume_adapted"`
}

// PersonalizationAgent writes the application materials for one matched job.
// Reads SessionContext.Profile and SessionContext.JobMatches; writes SessionContext.Application.
type PersonalizationAgent struct {
	content adapter.ContentGenerator
	log     *zerolog.Logger
}

func NewPersonalizationAgent(content adapter.ContentGenerator, logger *zerolog.Logger) *PersonalizationAgent {
	l := logger.With().Str("component", AgentPersonalization).Logger()
	return &PersonalizationAgent{content: content, log: &l}
}

func (a *PersonalizationAgent) Name() string { return AgentPersonalization }

func (a *PersonalizationAgent) Process(ctx context.Context, task AgentTask, sc *model.SessionContext) AgentResult {
	if sc == nil {
		return &PersonalizationResult{resultBase: failed(fmt.Sprintf("Job %s not found in matches", task.JobID))}
	}
	match, found := sc.FindJobMatch(task.JobID)
	if !found {
		return &PersonalizationResult{resultBase: failed(fmt.Sprintf("Job %s not found in matches", task.JobID))}
	}
	profile := sc.Profile
	if profile == nil {
		profile = model.NewProfile(task.UserID, "", nil)
	}
	job := match.Job

	app := model.NewApplication(task.UserID, job.JobID)

	// the two generations are independent; either may fail alone
	if text, err := a.content.Generate(ctx, adapter.ContentCoverLetter, profile, &job); err != nil {
		a.log.Warn().Err(err).Str("job_id", job.JobID).Msg("cover letter generation failed")
	} else {
		app.CoverLetter = text
	}
	if text, err := a.content.Generate(ctx, adapter.ContentAdaptedResume, profile, &job); err != nil {
		a.log.Warn().Err(err).Str("job_id", job.JobID).Msg("resume adaptation failed")
	} else {
		app.AdaptedResume = text
	}

	sc.Application = app
	return &PersonalizationResult{
		resultBase:           succeeded(),
		Application:          app,
		CoverLetterGenerated: app.CoverLetter != "",
		ResumeAdapted:        app.AdaptedResume != "",
	}
}
