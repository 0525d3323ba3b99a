// File: internal/usecase/strategy_agent.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/infra/metrics"
	"job-search-mas/internal/llmjson"
)

var _ Agent = (*StrategyAgent)(nil)

const maxReactIterations = 3

type strategyState int

const (
	stateParse strategyState = iota
	stateGenerateStrategy
	stateAcceptFallback
	stateDone
)

func (s strategyState) String() string {
	switch s {
	case stateParse:
		return "parse"
	case stateGenerateStrategy:
		return "generate_strategy"
	case stateAcceptFallback:
		return "accept_fallback"
	default:
		return "done"
	}
}

type StrategyResult struct {
	resultBase
	Profile         *model.Profile  `json:"profile,omitempty"`
	Strategy        *model.Strategy `json:"strategy,omitempty"`
	ReactIterations int             `json:"react_iterations"`
}

// StrategyAgent parses the résumé and derives a search strategy.
// Writes SessionContext.Profile and SessionContext.Strategy.
type StrategyAgent struct {
	parser adapter.ResumeParser
	ai     adapter.AIServiceAdapter
	model  string
	log    *zerolog.Logger
}

func NewStrategyAgent(parser adapter.ResumeParser, ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *StrategyAgent {
	l := logger.With().Str("component", AgentStrategy).Logger()
	return &StrategyAgent{parser: parser, ai: ai, model: modelName, log: &l}
}

func (a *StrategyAgent) Name() string { return AgentStrategy }

func (a *StrategyAgent) Process(ctx context.Context, task AgentTask, sc *model.SessionContext) AgentResult {
	if strings.TrimSpace(task.ResumeText) == "" && task.ResumeFile.Empty() {
		return &StrategyResult{resultBase: failed("Resume text or PDF is required")}
	}

	var (
		profile  *model.Profile
		strategy *model.Strategy
		state    = stateParse
		iter     int
	)
	for state != stateDone && iter < maxReactIterations {
		iter++
		a.log.Debug().Int("iteration", iter).Stringer("state", state).Msg("strategy step")

		switch state {
		case stateParse:
			parsed, err := a.parser.Parse(ctx, adapter.ResumeInput{Text: task.ResumeText, File: task.ResumeFile})
			if err != nil {
				return &StrategyResult{resultBase: failed(parseFailureMessage(err)), ReactIterations: iter}
			}
			profile = model.NewProfile(task.UserID, task.ResumeText, parsed)
			state = stateGenerateStrategy

		case stateGenerateStrategy:
			strategy = a.generate(ctx, task.UserID, profile)
			if strategy.Complete() {
				state = stateDone
			} else {
				a.log.Warn().Msg("strategy incomplete, retrying once")
				state = stateAcceptFallback
			}

		case stateAcceptFallback:
			strategy = a.generate(ctx, task.UserID, profile)
			state = stateDone
		}
	}

	if sc != nil {
		sc.Profile = profile
		sc.Strategy = strategy
	}
	metrics.ObserveStrategyIterations(iter)
	a.log.Info().Int("iterations", iter).Int("skills", len(profile.Skills)).Msg("strategy analysis completed")
	return &StrategyResult{resultBase: succeeded(), Profile: profile, Strategy: strategy, ReactIterations: iter}
}

type strategyReply struct {
	Objectives      llmjson.Strings `json:"objectives"`
	TargetPositions llmjson.Strings `json:"target_positions"`
	TargetCompanies llmjson.Strings `json:"target_companies"`
	PrioritySkills  llmjson.Strings `json:"priority_skills"`
	Timeline        llmjson.Text    `json:"timeline"`
}

// generate never fails: model or decoding errors yield the fallback strategy.
func (a *StrategyAgent) generate(ctx context.Context, userID string, p *model.Profile) *model.Strategy {
	msgs := []adapter.Message{
		adapter.SystemMessage(strategySystemPrompt),
		adapter.UserMessage(buildStrategyPrompt(p)),
	}
	reply, err := a.ai.Chat(ctx, a.model, msgs)
	if err != nil {
		a.log.Error().Err(err).Msg("strategy generation failed; using fallback")
		return model.FallbackStrategy(userID)
	}
	var r strategyReply
	if err := llmjson.DecodeObject(reply, &r); err != nil {
		a.log.Error().Err(err).Msg("strategy reply is not valid JSON; using fallback")
		return model.FallbackStrategy(userID)
	}
	return &model.Strategy{
		StrategyID:      model.StrategyIDFor(userID),
		UserID:          userID,
		Objectives:      r.Objectives.Or(),
		TargetPositions: r.TargetPositions.Or(),
		TargetCompanies: r.TargetCompanies.Or(),
		PrioritySkills:  r.PrioritySkills.Or(),
		Timeline:        string(r.Timeline),
		CreatedAt:       time.Now().UTC(),
	}
}

func parseFailureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrResumeTooShort):
		return "Resume text is too short or empty"
	case errors.Is(err, domain.ErrUnsupportedFile):
		return "Only PDF and DOCX files are supported"
	default:
		return "Resume parsing failed: " + err.Error()
	}
}
