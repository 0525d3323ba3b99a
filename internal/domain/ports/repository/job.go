package repository

import (
	"context"

	"job-search-mas/internal/domain/model"
)

// JobEmbedding pairs a stored posting with its embedding vector.
type JobEmbedding struct {
	Job    model.JobPosting
	Vector []float64
}

type JobRepository interface {
	// Save upserts by job id; the relevance score of the posting is stored as well.
	Save(ctx context.Context, tx Tx, job *model.JobPosting) error
	FindByID(ctx context.Context, tx Tx, jobID string) (*model.JobPosting, error)
	SaveEmbedding(ctx context.Context, tx Tx, jobID string, vector []float64) error
	ListEmbedded(ctx context.Context, tx Tx, limit int) ([]JobEmbedding, error)
}
