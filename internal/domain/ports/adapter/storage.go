package adapter

import (
	"context"

	"job-search-mas/internal/domain/model"
)

// ResumeArchive keeps the original uploaded documents.
type ResumeArchive interface {
	Put(ctx context.Context, userID string, file *model.ResumeFile) (key string, err error)
}
