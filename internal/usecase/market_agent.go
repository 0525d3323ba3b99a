// File: internal/usecase/market_agent.go
package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/llmjson"
)

var _ Agent = (*MarketAgent)(nil)

const defaultSearchQuery = "разработчик"

type MarketResult struct {
	resultBase
	Jobs        []model.JobMatch `json:"jobs"`
	TotalFound  int              `json:"total_found"`
	SearchQuery string           `json:"search_query"`
	Placeholder bool             `json:"placeholder,omitempty"`
}

// MarketAgent searches the job board and ranks postings against the profile.
// Reads SessionContext.Profile and SessionContext.Strategy; writes SessionContext.JobMatches.
type MarketAgent struct {
	search adapter.JobSearchProvider
	ai     adapter.AIServiceAdapter
	model  string
	log    *zerolog.Logger
}

func NewMarketAgent(search adapter.JobSearchProvider, ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *MarketAgent {
	l := logger.With().Str("component", AgentMarket).Logger()
	return &MarketAgent{search: search, ai: ai, model: modelName, log: &l}
}

func (a *MarketAgent) Name() string { return AgentMarket }

func (a *MarketAgent) Process(ctx context.Context, task AgentTask, sc *model.SessionContext) AgentResult {
	var (
		profile  *model.Profile
		strategy *model.Strategy
	)
	if sc != nil {
		profile, strategy = sc.Profile, sc.Strategy
	}

	query := buildSearchQuery(profile, strategy)
	q := adapter.JobQuery{Text: query, PerPage: model.MaxJobMatches}
	if profile != nil {
		q.Area = profile.Location
		q.Salary = profile.SalaryExpectations
	}

	found, err := a.search.Search(ctx, q)
	if err != nil {
		a.log.Error().Err(err).Str("query", query).Msg("job search failed")
		return &MarketResult{resultBase: failed("Job search failed: " + err.Error()), SearchQuery: query}
	}
	a.log.Info().Int("jobs", len(found.Jobs)).Bool("placeholder", found.Placeholder).Msg("jobs received")

	ranked := a.rank(ctx, found.Jobs, profile, strategy)
	if len(ranked) > model.MaxJobMatches {
		ranked = ranked[:model.MaxJobMatches]
	}
	if sc != nil {
		sc.SetJobMatches(ranked)
	}
	return &MarketResult{
		resultBase:  succeeded(),
		Jobs:        ranked,
		TotalFound:  len(ranked),
		SearchQuery: query,
		Placeholder: found.Placeholder,
	}
}

func buildSearchQuery(p *model.Profile, s *model.Strategy) string {
	if s != nil && len(s.TargetPositions) > 0 && strings.TrimSpace(s.TargetPositions[0]) != "" {
		return s.TargetPositions[0]
	}
	if names := p.SkillNames(3); len(names) > 0 {
		return strings.Join(names, " ")
	}
	return defaultSearchQuery
}

type jobRanking struct {
	JobID          llmjson.Text    `json:"job_id"`
	RelevanceScore llmjson.Float   `json:"relevance_score"`
	MatchReasons   llmjson.Strings `json:"match_reasons"`
	Gaps           llmjson.Strings `json:"gaps"`
}

// rank never fails: on model error every job is scored with the default relevance.
func (a *MarketAgent) rank(ctx context.Context, jobs []model.JobPosting, p *model.Profile, s *model.Strategy) []model.JobMatch {
	if len(jobs) == 0 {
		return []model.JobMatch{}
	}
	msgs := []adapter.Message{
		adapter.SystemMessage(rankingSystemPrompt),
		adapter.UserMessage(buildRankingPrompt(jobs, p, s)),
	}
	reply, err := a.ai.Chat(ctx, a.model, msgs)
	if err != nil {
		a.log.Error().Err(err).Msg("ranking failed; default scores applied")
		return defaultRanking(jobs)
	}
	var rankings []jobRanking
	if err := llmjson.DecodeArray(reply, &rankings); err != nil {
		a.log.Error().Err(err).Msg("ranking reply is not valid JSON; default scores applied")
		return defaultRanking(jobs)
	}
	merged := mergeRankings(jobs, rankings)
	a.log.Debug().Int("ranked_by_model", len(rankings)).Int("total", len(merged)).Msg("ranking merged")
	return merged
}

// mergeRankings returns every input job exactly once: scored jobs in model
// order, then unscored jobs in input order with the default score, stably
// sorted by relevance descending. Unknown or repeated job ids are ignored.
func mergeRankings(jobs []model.JobPosting, rankings []jobRanking) []model.JobMatch {
	byID := make(map[string]int, len(jobs))
	for i, j := range jobs {
		if _, dup := byID[j.JobID]; !dup {
			byID[j.JobID] = i
		}
	}

	out := make([]model.JobMatch, 0, len(byID))
	used := make(map[string]bool, len(byID))
	for _, r := range rankings {
		id := string(r.JobID)
		idx, known := byID[id]
		if !known || used[id] {
			continue
		}
		score := model.DefaultRelevance
		if r.RelevanceScore.Valid {
			score = r.RelevanceScore.Value
		}
		m := model.NewJobMatch(jobs[idx], score)
		m.MatchReasons = r.MatchReasons.Or()
		m.Gaps = r.Gaps.Or()
		out = append(out, m)
		used[id] = true
	}
	for i, j := range jobs {
		if used[j.JobID] || byID[j.JobID] != i {
			continue
		}
		out = append(out, model.NewJobMatch(j, model.DefaultRelevance))
		used[j.JobID] = true
	}

	sort.SliceStable(out, func(i, k int) bool {
		return out[i].RelevanceScore > out[k].RelevanceScore
	})
	for i := range out {
		score := out[i].RelevanceScore
		out[i].Job.RelevanceScore = &score
	}
	return out
}

func defaultRanking(jobs []model.JobPosting) []model.JobMatch {
	out := make([]model.JobMatch, 0, len(jobs))
	for _, j := range jobs {
		m := model.NewJobMatch(j, model.DefaultRelevance)
		score := m.RelevanceScore
		m.Job.RelevanceScore = &score
		out = append(out, m)
	}
	return out
}
