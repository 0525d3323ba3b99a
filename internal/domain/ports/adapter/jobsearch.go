package adapter

import (
	"context"

	"job-search-mas/internal/domain/model"
)

type JobQuery struct {
	Text       string
	Area       string
	Salary     *int
	Experience string
	PerPage    int
}

type JobSearchResult struct {
	Jobs []model.JobPosting
	// Placeholder is set when the provider could not be reached and Jobs holds stand-ins.
	Placeholder bool
}

type JobSearchProvider interface {
	Search(ctx context.Context, q JobQuery) (*JobSearchResult, error)
}
