package adapter

import (
	"context"

	"job-search-mas/internal/domain/model"
)

type ContentKind string

const (
	ContentCoverLetter   ContentKind = "cover_letter"
	ContentAdaptedResume ContentKind = "adapted_resume"
)

type ContentGenerator interface {
	Generate(ctx context.Context, kind ContentKind, profile *model.Profile, job *model.JobPosting) (string, error)
}
