package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/llmjson"
)

const strategySystemPrompt = `You are an expert career consultant. Based on the candidate's résumé and profile,
create a personalised job search strategy. Return a JSON object with:
- objectives: list of career objectives
- target_positions: list of target job titles
- target_companies: list of target company types or names (may be empty)
- priority_skills: list of skills to develop or highlight
- timeline: suggested timeline for the job search
Return ONLY valid JSON.`

const rankingSystemPrompt = `You are a job matching expert. Rank jobs by relevance to the candidate.
Return a JSON array of objects with job_id, relevance_score (0.0-1.0),
and optionally match_reasons and gaps (lists of short strings). Return ONLY valid JSON.`

func buildStrategyPrompt(p *model.Profile) string {
	location := p.Location
	if location == "" {
		location = "Not specified"
	}
	objectives := p.CareerObjectives
	if objectives == "" {
		objectives = "Career growth"
	}
	seniority := p.Seniority
	if seniority == "" {
		seniority = model.SeniorityMiddle
	}
	var b strings.Builder
	b.WriteString("Create a job search strategy for this candidate:\n\n")
	fmt.Fprintf(&b, "Resume: %s\n", llmjson.Truncate(p.ResumeText, 1000))
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.SkillNames(0), ", "))
	fmt.Fprintf(&b, "Seniority: %s\n", seniority)
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Career Objectives: %s\n", objectives)
	fmt.Fprintf(&b, "Preferred Industries: %s\n\n", strings.Join(p.PreferredIndustries, ", "))
	b.WriteString("Generate the strategy:")
	return b.String()
}

type jobSummary struct {
	JobID          string   `json:"job_id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	SkillsRequired []string `json:"skills_required"`
	Description    string   `json:"description"`
}

func buildRankingPrompt(jobs []model.JobPosting, p *model.Profile, s *model.Strategy) string {
	n := len(jobs)
	if n > model.MaxJobMatches {
		n = model.MaxJobMatches
	}
	summaries := make([]jobSummary, 0, n)
	for _, j := range jobs[:n] {
		summaries = append(summaries, jobSummary{
			JobID:          j.JobID,
			Title:          j.Title,
			Company:        j.Company,
			SkillsRequired: j.SkillsRequired,
			Description:    llmjson.Truncate(j.Description, 200),
		})
	}
	raw, _ := json.Marshal(summaries)

	seniority := model.SeniorityMiddle
	var targets []string
	if p != nil && p.Seniority != "" {
		seniority = p.Seniority
	}
	if s != nil {
		targets = s.TargetPositions
	}

	var b strings.Builder
	b.WriteString("Rank these jobs for the candidate:\n\n")
	fmt.Fprintf(&b, "Candidate Skills: %s\n", strings.Join(p.SkillNames(0), ", "))
	fmt.Fprintf(&b, "Candidate Seniority: %s\n", seniority)
	fmt.Fprintf(&b, "Target Positions: %s\n\n", strings.Join(targets, ", "))
	fmt.Fprintf(&b, "Jobs:\n%s\n\n", raw)
	b.WriteString("Return JSON array with job_id and relevance_score:")
	return b.String()
}
