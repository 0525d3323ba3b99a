package adapter

import (
	"context"

	"job-search-mas/internal/domain/model"
)

type ResumeInput struct {
	Text string
	File *model.ResumeFile
}

// ResumeParser extracts a structured profile from résumé text or a document.
// On failure it returns the default payload together with the error.
type ResumeParser interface {
	Parse(ctx context.Context, in ResumeInput) (*model.ParsedResume, error)
}
