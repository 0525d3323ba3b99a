// File: internal/usecase/job_memory_uc.go
package usecase

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/llmjson"
)

const (
	maxEmbeddingText = 5000
	similarScanLimit = 1000
)

// Submitter queues background work.
type Submitter interface {
	Submit(task func(ctx context.Context) error) error
}

// JobMemoryUseCase keeps embeddings of stored postings and answers similarity queries.
type JobMemoryUseCase interface {
	JobIndexer
	Index(ctx context.Context, job model.JobPosting) error
	Similar(ctx context.Context, query string, limit int) ([]model.SimilarJob, error)
}

var _ JobMemoryUseCase = (*jobMemoryUC)(nil)

type jobMemoryUC struct {
	jobs     repository.JobRepository
	embedder adapter.Embedder
	queue    Submitter
	log      *zerolog.Logger
}

func NewJobMemoryUseCase(jobs repository.JobRepository, embedder adapter.Embedder, queue Submitter, logger *zerolog.Logger) *jobMemoryUC {
	l := logger.With().Str("component", "JobMemory").Logger()
	return &jobMemoryUC{jobs: jobs, embedder: embedder, queue: queue, log: &l}
}

// EmbeddingText is the text embedded for a posting.
func EmbeddingText(job model.JobPosting) string {
	text := job.Title + " " + job.Description + " " + strings.Join(job.SkillsRequired, " ")
	return llmjson.Truncate(text, maxEmbeddingText)
}

func (m *jobMemoryUC) Index(ctx context.Context, job model.JobPosting) error {
	vec, err := m.embedder.Embed(ctx, EmbeddingText(job))
	if err != nil {
		return err
	}
	return m.jobs.SaveEmbedding(ctx, nil, job.JobID, vec)
}

func (m *jobMemoryUC) IndexAsync(jobs []model.JobPosting) {
	if len(jobs) == 0 || m.queue == nil {
		return
	}
	batch := make([]model.JobPosting, len(jobs))
	copy(batch, jobs)
	err := m.queue.Submit(func(ctx context.Context) error {
		var failedN int
		for _, j := range batch {
			if err := m.Index(ctx, j); err != nil {
				failedN++
				m.log.Warn().Err(err).Str("job_id", j.JobID).Msg("embedding failed")
			}
		}
		if failedN > 0 {
			return errors.New("some job embeddings failed")
		}
		return nil
	})
	if err != nil {
		m.log.Warn().Err(err).Int("jobs", len(batch)).Msg("embedding batch dropped")
	}
}

func (m *jobMemoryUC) Similar(ctx context.Context, query string, limit int) ([]model.SimilarJob, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		limit = 10
	}
	qv, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	stored, err := m.jobs.ListEmbedded(ctx, nil, similarScanLimit)
	if err != nil {
		return nil, err
	}

	out := make([]model.SimilarJob, 0, len(stored))
	for _, s := range stored {
		sim, ok := cosine(qv, s.Vector)
		if !ok {
			continue
		}
		out = append(out, model.SimilarJob{Job: s.Job, Similarity: sim})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
