//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/usecase"
)

const completeStrategyReply = "```json\n" + `{
  "objectives": ["Grow into a senior backend role"],
  "target_positions": ["Senior Go Developer", "Backend Engineer"],
  "target_companies": ["Yandex"],
  "priority_skills": ["Go", "Kubernetes"],
  "timeline": "3 months"
}` + "\n```"

func TestStrategyAgent(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should finish in two iterations when the first strategy is complete", func(t *testing.T) {
		ai := &MockAI{ChatFunc: func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			return completeStrategyReply, nil
		}}
		agent := usecase.NewStrategyAgent(&MockParser{}, ai, "test-model", testLogger)
		sc := model.NewSessionContext("u1", model.WorkflowAnalyzeProfile)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", ResumeText: "Go developer with five years"}, sc)

		sr, ok := res.(*usecase.StrategyResult)
		if !ok || !sr.Succeeded() {
			t.Fatalf("expected a successful strategy result, got %#v", res)
		}
		if sr.ReactIterations != 2 {
			t.Errorf("expected 2 iterations, got %d", sr.ReactIterations)
		}
		if ai.CallCount() != 1 {
			t.Errorf("expected one model call, got %d", ai.CallCount())
		}
		if sr.Strategy.TargetPositions[0] != "Senior Go Developer" {
			t.Errorf("unexpected target positions %v", sr.Strategy.TargetPositions)
		}
		if sc.Profile == nil || sc.Strategy == nil {
			t.Fatal("expected profile and strategy to be written to the session context")
		}
		if sc.Profile.UserID != "u1" || sc.Profile.ResumeText != "Go developer with five years" {
			t.Errorf("unexpected profile %+v", sc.Profile)
		}
	})

	t.Run("should regenerate once when the strategy is incomplete", func(t *testing.T) {
		ai := &MockAI{}
		ai.ChatFunc = func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			if ai.CallCount() == 1 {
				return `{"objectives": [], "target_positions": [], "timeline": "first draft"}`, nil
			}
			return `{"objectives": ["Ship"], "target_positions": [], "timeline": "second draft"}`, nil
		}
		agent := usecase.NewStrategyAgent(&MockParser{}, ai, "test-model", testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", ResumeText: "some resume text"}, nil)

		sr := res.(*usecase.StrategyResult)
		if !sr.Succeeded() {
			t.Fatalf("expected success, got %q", sr.Failure())
		}
		if sr.ReactIterations != 3 {
			t.Errorf("expected 3 iterations, got %d", sr.ReactIterations)
		}
		if ai.CallCount() != 2 {
			t.Errorf("expected two model calls, got %d", ai.CallCount())
		}
		if sr.Strategy.Timeline != "second draft" || len(sr.Strategy.Objectives) != 1 {
			t.Errorf("expected the second attempt to be kept, got %+v", sr.Strategy)
		}
		if len(sr.Strategy.TargetPositions) != 0 {
			t.Errorf("expected the incomplete second attempt as is, got %v", sr.Strategy.TargetPositions)
		}
	})

	t.Run("should use the fallback strategy when the model fails", func(t *testing.T) {
		ai := &MockAI{ChatFunc: func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			return "", errors.New("provider down")
		}}
		agent := usecase.NewStrategyAgent(&MockParser{}, ai, "test-model", testLogger)

		sr := agent.Process(ctx, usecase.AgentTask{UserID: "u1", ResumeText: "some resume text"}, nil).(*usecase.StrategyResult)

		if !sr.Succeeded() {
			t.Fatalf("expected success, got %q", sr.Failure())
		}
		if got := sr.Strategy.TargetPositions; len(got) != 1 || got[0] != "Software Developer" {
			t.Errorf("expected fallback target positions, got %v", got)
		}
		if sr.Strategy.Timeline != "3-6 months" {
			t.Errorf("expected fallback timeline, got %q", sr.Strategy.Timeline)
		}
	})

	t.Run("should fail without resume input", func(t *testing.T) {
		agent := usecase.NewStrategyAgent(&MockParser{}, &MockAI{}, "test-model", testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", ResumeText: "   "}, nil)

		if res.Succeeded() || res.Failure() != "Resume text or PDF is required" {
			t.Errorf("unexpected result %#v", res)
		}
	})

	t.Run("should surface parser failures as the result error", func(t *testing.T) {
		cases := map[error]string{
			domain.ErrResumeTooShort:  "Resume text is too short or empty",
			domain.ErrUnsupportedFile: "Only PDF and DOCX files are supported",
			errors.New("broken pdf"):  "Resume parsing failed: broken pdf",
		}
		for parseErr, want := range cases {
			parser := &MockParser{ParseFunc: func(ctx context.Context, in adapter.ResumeInput) (*model.ParsedResume, error) {
				return model.DefaultParsedResume(in.Text), parseErr
			}}
			ai := &MockAI{}
			agent := usecase.NewStrategyAgent(parser, ai, "test-model", testLogger)

			res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", ResumeText: "text"}, nil)

			if res.Succeeded() || res.Failure() != want {
				t.Errorf("expected %q, got %q", want, res.Failure())
			}
			if ai.CallCount() != 0 {
				t.Errorf("expected no model calls after a parse failure")
			}
		}
	})
}

func TestMarketAgent(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	sessionWithProfile := func() *model.SessionContext {
		sc := model.NewSessionContext("u1", model.WorkflowFindJobs)
		salary := 250000
		sc.Profile = model.NewProfile("u1", "resume", &model.ParsedResume{
			Skills:             []model.Skill{{Name: "Go"}, {Name: "PostgreSQL"}, {Name: "Redis"}, {Name: "Kafka"}},
			Location:           "Москва",
			SalaryExpectations: &salary,
		})
		return sc
	}

	t.Run("should merge model rankings with unscored jobs", func(t *testing.T) {
		ai := &MockAI{ChatFunc: func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			return `Here you go: [
				{"job_id": "c", "relevance_score": 0.9, "match_reasons": ["Go"]},
				{"job_id": "unknown", "relevance_score": 1.0},
				{"job_id": "a"},
				{"job_id": "c", "relevance_score": 0.1},
				{"job_id": "d", "relevance_score": "0.7", "gaps": "Kubernetes"}
			]`, nil
		}}
		search := &MockSearch{}
		agent := usecase.NewMarketAgent(search, ai, "test-model", testLogger)
		sc := sessionWithProfile()

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sc).(*usecase.MarketResult)

		if !res.Succeeded() {
			t.Fatalf("expected success, got %q", res.Failure())
		}
		var ids []string
		for _, m := range res.Jobs {
			ids = append(ids, m.Job.JobID)
		}
		if got := strings.Join(ids, ","); got != "c,d,a,b" {
			t.Errorf("expected order c,d,a,b, got %s", got)
		}
		if res.Jobs[0].RelevanceScore != 0.9 || res.Jobs[2].RelevanceScore != 0.5 {
			t.Errorf("unexpected scores %+v", res.Jobs)
		}
		if res.Jobs[1].Gaps[0] != "Kubernetes" {
			t.Errorf("expected single-string gaps to be accepted, got %v", res.Jobs[1].Gaps)
		}
		if res.Jobs[0].Job.RelevanceScore == nil || *res.Jobs[0].Job.RelevanceScore != 0.9 {
			t.Errorf("expected the posting to carry its relevance score")
		}
		if res.TotalFound != 4 || len(sc.JobMatches) != 4 {
			t.Errorf("expected 4 matches, got %d / %d", res.TotalFound, len(sc.JobMatches))
		}
		q := search.Queries[0]
		if q.Text != "Go PostgreSQL Redis" || q.Area != "Москва" || q.PerPage != 20 || *q.Salary != 250000 {
			t.Errorf("unexpected search query %+v", q)
		}
	})

	t.Run("should search by the first target position when a strategy exists", func(t *testing.T) {
		search := &MockSearch{SearchFunc: func(ctx context.Context, q adapter.JobQuery) (*adapter.JobSearchResult, error) {
			return &adapter.JobSearchResult{Jobs: []model.JobPosting{}}, nil
		}}
		agent := usecase.NewMarketAgent(search, &MockAI{}, "test-model", testLogger)
		sc := sessionWithProfile()
		sc.Strategy = &model.Strategy{TargetPositions: []string{"Backend Engineer"}, Objectives: []string{"x"}}

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sc).(*usecase.MarketResult)

		if res.SearchQuery != "Backend Engineer" {
			t.Errorf("expected query from strategy, got %q", res.SearchQuery)
		}
		if !sc.HasJobMatches() || len(sc.JobMatches) != 0 {
			t.Errorf("expected an empty but present job match list")
		}
	})

	t.Run("should fall back to the default query without a profile", func(t *testing.T) {
		search := &MockSearch{}
		agent := usecase.NewMarketAgent(search, &MockAI{}, "test-model", testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, model.NewSessionContext("u1", model.WorkflowFindJobs)).(*usecase.MarketResult)

		if res.SearchQuery != "разработчик" {
			t.Errorf("expected default query, got %q", res.SearchQuery)
		}
	})

	t.Run("should give every job the default score when ranking fails", func(t *testing.T) {
		agent := usecase.NewMarketAgent(&MockSearch{}, &MockAI{}, "test-model", testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sessionWithProfile()).(*usecase.MarketResult)

		if !res.Succeeded() {
			t.Fatalf("expected success, got %q", res.Failure())
		}
		for i, want := range []string{"a", "b", "c", "d"} {
			if res.Jobs[i].Job.JobID != want || res.Jobs[i].RelevanceScore != model.DefaultRelevance {
				t.Errorf("position %d: expected %s at 0.5, got %s at %v", i, want, res.Jobs[i].Job.JobID, res.Jobs[i].RelevanceScore)
			}
		}
	})

	t.Run("should clamp out-of-range scores", func(t *testing.T) {
		ai := &MockAI{ChatFunc: func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			return `[{"job_id": "b", "relevance_score": 1.7}, {"job_id": "a", "relevance_score": -2}]`, nil
		}}
		agent := usecase.NewMarketAgent(&MockSearch{}, ai, "test-model", testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sessionWithProfile()).(*usecase.MarketResult)

		if res.Jobs[0].Job.JobID != "b" || res.Jobs[0].RelevanceScore != 1 {
			t.Errorf("expected b clamped to 1, got %+v", res.Jobs[0])
		}
		last := res.Jobs[len(res.Jobs)-1]
		if last.Job.JobID != "a" || last.RelevanceScore != 0 {
			t.Errorf("expected a clamped to 0 at the end, got %+v", last)
		}
	})

	t.Run("should give non-finite scores the default", func(t *testing.T) {
		ai := &MockAI{ChatFunc: func(ctx context.Context, model string, messages []adapter.Message) (string, error) {
			return `[{"job_id": "a", "relevance_score": "NaN"}, {"job_id": "b", "relevance_score": "Infinity"}, {"job_id": "c", "relevance_score": 0.8}]`, nil
		}}
		agent := usecase.NewMarketAgent(&MockSearch{}, ai, "test-model", testLogger)
		sc := sessionWithProfile()

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sc).(*usecase.MarketResult)

		var ids []string
		for _, m := range res.Jobs {
			ids = append(ids, m.Job.JobID)
			if m.RelevanceScore < 0 || m.RelevanceScore > 1 {
				t.Errorf("score of %s out of range: %v", m.Job.JobID, m.RelevanceScore)
			}
		}
		if got := strings.Join(ids, ","); got != "c,a,b,d" {
			t.Errorf("expected order c,a,b,d, got %s", got)
		}
		if res.Jobs[1].RelevanceScore != model.DefaultRelevance || res.Jobs[2].RelevanceScore != model.DefaultRelevance {
			t.Errorf("expected default scores, got %+v", res.Jobs)
		}
		if _, err := json.Marshal(sc); err != nil {
			t.Errorf("expected the session context to stay serialisable, got %v", err)
		}
	})

	t.Run("should fail when the job board fails", func(t *testing.T) {
		search := &MockSearch{SearchFunc: func(ctx context.Context, q adapter.JobQuery) (*adapter.JobSearchResult, error) {
			return nil, errors.New("timeout")
		}}
		agent := usecase.NewMarketAgent(search, &MockAI{}, "test-model", testLogger)
		sc := sessionWithProfile()

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1"}, sc)

		if res.Succeeded() || res.Failure() != "Job search failed: timeout" {
			t.Errorf("unexpected result %#v", res)
		}
		if sc.HasJobMatches() {
			t.Error("expected job matches to stay absent")
		}
	})
}

func TestPersonalizationAgent(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	withMatches := func() *model.SessionContext {
		sc := model.NewSessionContext("u1", model.WorkflowCreateApplication)
		sc.Profile = model.NewProfile("u1", "resume", nil)
		sc.SetJobMatches([]model.JobMatch{model.NewJobMatch(sampleJobs("j1")[0], 0.8)})
		return sc
	}

	t.Run("should produce both documents for a matched job", func(t *testing.T) {
		content := &MockContent{}
		agent := usecase.NewPersonalizationAgent(content, testLogger)
		sc := withMatches()

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", JobID: "j1"}, sc).(*usecase.PersonalizationResult)

		if !res.Succeeded() || !res.CoverLetterGenerated || !res.ResumeAdapted {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.Application.ApplicationID != "app_u1_j1" || res.Application.Status != model.ApplicationDraft {
			t.Errorf("unexpected application %+v", res.Application)
		}
		if sc.Application == nil || sc.Application.CoverLetter != "cover_letter for j1" {
			t.Errorf("expected the application to be written to the session context")
		}
	})

	t.Run("should keep going when one generation fails", func(t *testing.T) {
		content := &MockContent{GenerateFunc: func(ctx context.Context, kind adapter.ContentKind, p *model.Profile, job *model.JobPosting) (string, error) {
			if kind == adapter.ContentCoverLetter {
				return "", errors.New("model down")
			}
			return "adapted", nil
		}}
		agent := usecase.NewPersonalizationAgent(content, testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", JobID: "j1"}, withMatches()).(*usecase.PersonalizationResult)

		if !res.Succeeded() || res.CoverLetterGenerated || !res.ResumeAdapted {
			t.Errorf("unexpected result %+v", res)
		}
		if content.CallCount() != 2 {
			t.Errorf("expected two generation calls, got %d", content.CallCount())
		}
	})

	t.Run("should fail for a job outside the matches", func(t *testing.T) {
		content := &MockContent{}
		agent := usecase.NewPersonalizationAgent(content, testLogger)

		res := agent.Process(ctx, usecase.AgentTask{UserID: "u1", JobID: "missing"}, withMatches())

		if res.Succeeded() || res.Failure() != "Job missing not found in matches" {
			t.Errorf("unexpected result %#v", res)
		}
		if content.CallCount() != 0 {
			t.Errorf("expected no generation calls")
		}
	})
}

func TestAnalyticsAgent(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	now := time.Now().UTC()

	seed := func() *MockApplicationRepo {
		mk := func(job string, st model.ApplicationStatus, age time.Duration, rel *float64) *model.Application {
			a := model.NewApplication("u1", job)
			a.Status = st
			a.CreatedAt = now.Add(-age)
			a.JobRelevance = rel
			return a
		}
		return NewMockApplicationRepo(
			mk("j1", model.ApplicationDraft, time.Hour, floatPtr(0.8)),
			mk("j2", model.ApplicationViewed, 2*time.Hour, floatPtr(0.6)),
			mk("j3", model.ApplicationInterview, 3*time.Hour, nil),
			mk("j4", model.ApplicationAccepted, 4*time.Hour, nil),
			mk("j5", model.ApplicationAccepted, 40*24*time.Hour, nil),
		)
	}

	t.Run("should compute the 30-day KPI snapshot", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(seed(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpGetMetrics, UserID: "u1"}, nil).(*usecase.AnalyticsResult)

		if !res.Succeeded() {
			t.Fatalf("expected success, got %q", res.Failure())
		}
		m := res.Metrics
		if m.TotalApplications != 4 || m.ApplicationsViewed != 3 || m.InterviewsScheduled != 2 || m.OffersReceived != 1 {
			t.Errorf("unexpected counts %+v", m)
		}
		if m.ClickThroughRate != 75 || m.InterviewRate != 50 || m.OfferRate != 25 {
			t.Errorf("unexpected rates %+v", m)
		}
		if diff := m.AverageRelevanceScore - 0.7; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("expected average relevance 0.7, got %v", m.AverageRelevanceScore)
		}
	})

	t.Run("should report zero rates without applications", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(NewMockApplicationRepo(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpGetMetrics, UserID: "nobody"}, nil).(*usecase.AnalyticsResult)

		if res.Metrics.TotalApplications != 0 || res.Metrics.ClickThroughRate != 0 {
			t.Errorf("unexpected metrics %+v", res.Metrics)
		}
	})

	t.Run("should stamp timestamps on the first transition only", func(t *testing.T) {
		repo := seed()
		agent := usecase.NewAnalyticsAgent(repo, NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpUpdateStatus, ApplicationID: "app_u1_j1", Status: "viewed"}, nil)
		if !res.Succeeded() {
			t.Fatalf("expected success, got %q", res.Failure())
		}
		first, _ := repo.FindByID(ctx, nil, "app_u1_j1")
		if first.ViewedAt == nil {
			t.Fatal("expected viewed_at to be stamped")
		}
		stamped := *first.ViewedAt

		agent.Process(ctx, usecase.AgentTask{Op: usecase.OpUpdateStatus, ApplicationID: "app_u1_j1", Status: "viewed"}, nil)
		second, _ := repo.FindByID(ctx, nil, "app_u1_j1")
		if !second.ViewedAt.Equal(stamped) {
			t.Errorf("expected viewed_at to stay %v, got %v", stamped, second.ViewedAt)
		}
	})

	t.Run("should reject an invalid status", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(seed(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpUpdateStatus, ApplicationID: "app_u1_j1", Status: "hired"}, nil)

		if res.Succeeded() || res.Failure() != "Invalid status: hired" {
			t.Errorf("unexpected result %#v", res)
		}
	})

	t.Run("should report a missing application", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(seed(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpUpdateStatus, ApplicationID: "nope", Status: "viewed"}, nil)

		if res.Succeeded() || res.Failure() != "Application not found" {
			t.Errorf("unexpected result %#v", res)
		}
	})

	t.Run("should list applications newest first", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(seed(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: usecase.OpGetApplications, UserID: "u1"}, nil).(*usecase.AnalyticsResult)

		if res.Count != 5 || res.Applications[0].JobID != "j1" || res.Applications[4].JobID != "j5" {
			t.Errorf("unexpected listing %+v", res.Applications)
		}
	})

	t.Run("should reject an unknown operation", func(t *testing.T) {
		agent := usecase.NewAnalyticsAgent(seed(), NewMockTxManager(), testLogger)

		res := agent.Process(ctx, usecase.AgentTask{Op: "export"}, nil)

		if res.Succeeded() || res.Failure() != "Unknown analytics operation: export" {
			t.Errorf("unexpected result %#v", res)
		}
	})
}
