package model

import (
	"math"
	"time"
)

const (
	DefaultJobSource    = "hh.ru"
	DefaultRelevance    = 0.5
	MaxJobMatches       = 20
	JourneyApplications = 3
)

type JobPosting struct {
	JobID          string     `json:"job_id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Description    string     `json:"description"`
	Requirements   []string   `json:"requirements"`
	SkillsRequired []string   `json:"skills_required"`
	Location       string     `json:"location,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SeniorityLevel Seniority  `json:"seniority_level,omitempty"`
	URL            string     `json:"url,omitempty"`
	Source         string     `json:"source"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	RelevanceScore *float64   `json:"relevance_score,omitempty"`
}

// JobMatch is a posting scored against a candidate profile.
type JobMatch struct {
	Job            JobPosting `json:"job"`
	RelevanceScore float64    `json:"relevance_score"`
	MatchReasons   []string   `json:"match_reasons"`
	Gaps           []string   `json:"gaps"`
}

func NewJobMatch(job JobPosting, score float64) JobMatch {
	return JobMatch{
		Job:            job,
		RelevanceScore: ClampScore(score),
		MatchReasons:   []string{},
		Gaps:           []string{},
	}
}

// ClampScore keeps relevance inside [0,1]. NaN maps to DefaultRelevance.
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return DefaultRelevance
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// SimilarJob is a stored posting ranked by embedding similarity to a query.
type SimilarJob struct {
	Job        JobPosting `json:"job"`
	Similarity float64    `json:"similarity"`
}
