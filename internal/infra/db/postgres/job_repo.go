package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

var _ repository.JobRepository = (*JobRepo)(nil)

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = `job_id, title, company, description, requirements, skills_required, location,
	salary_min, salary_max, seniority_level, url, source, posted_at, relevance_score`

// Save keeps a previously stored embedding; the vector is written by SaveEmbedding only.
func (r *JobRepo) Save(ctx context.Context, tx repository.Tx, job *model.JobPosting) error {
	if job == nil || job.JobID == "" {
		return domain.ErrInvalidArgument
	}
	reqs, err := json.Marshal(nonNil(job.Requirements))
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}
	skills, err := json.Marshal(nonNil(job.SkillsRequired))
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	source := job.Source
	if source == "" {
		source = model.DefaultJobSource
	}
	q := `
INSERT INTO job_postings (` + jobColumns + `, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, NOW())
ON CONFLICT (job_id) DO UPDATE SET
  title = EXCLUDED.title,
  company = EXCLUDED.company,
  description = EXCLUDED.description,
  requirements = EXCLUDED.requirements,
  skills_required = EXCLUDED.skills_required,
  location = EXCLUDED.location,
  salary_min = EXCLUDED.salary_min,
  salary_max = EXCLUDED.salary_max,
  seniority_level = EXCLUDED.seniority_level,
  url = EXCLUDED.url,
  source = EXCLUDED.source,
  posted_at = EXCLUDED.posted_at,
  relevance_score = COALESCE(EXCLUDED.relevance_score, job_postings.relevance_score),
  updated_at = NOW();
`
	_, err = execSQL(ctx, r.pool, tx, q,
		job.JobID, job.Title, job.Company, job.Description, reqs, skills, job.Location,
		job.SalaryMin, job.SalaryMax, string(job.SeniorityLevel), job.URL, source, job.PostedAt, job.RelevanceScore,
	)
	return err
}

func (r *JobRepo) FindByID(ctx context.Context, tx repository.Tx, jobID string) (*model.JobPosting, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM job_postings WHERE job_id = $1`, jobID)
	if err != nil {
		return nil, err
	}
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) SaveEmbedding(ctx context.Context, tx repository.Tx, jobID string, vector []float64) error {
	if len(vector) == 0 {
		return domain.ErrInvalidArgument
	}
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE job_postings SET embedding = $2, updated_at = NOW() WHERE job_id = $1`, jobID, vector)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListEmbedded returns the most recently updated postings that carry an embedding.
func (r *JobRepo) ListEmbedded(ctx context.Context, tx repository.Tx, limit int) ([]repository.JobEmbedding, error) {
	if limit <= 0 {
		limit = 1000
	}
	q := `
SELECT ` + jobColumns + `, embedding
FROM job_postings
WHERE embedding IS NOT NULL
ORDER BY updated_at DESC
LIMIT $1;
`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.JobEmbedding
	for rows.Next() {
		var vec []float64
		job, err := scanJob(rows, &vec)
		if err != nil {
			return nil, err
		}
		out = append(out, repository.JobEmbedding{Job: *job, Vector: vec})
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row, extra ...interface{}) (*model.JobPosting, error) {
	var (
		j            model.JobPosting
		reqs, skills []byte
		seniority    string
	)
	dest := []interface{}{
		&j.JobID, &j.Title, &j.Company, &j.Description, &reqs, &skills, &j.Location,
		&j.SalaryMin, &j.SalaryMax, &seniority, &j.URL, &j.Source, &j.PostedAt, &j.RelevanceScore,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if seniority != "" {
		j.SeniorityLevel = model.Seniority(seniority)
	}
	if err := json.Unmarshal(reqs, &j.Requirements); err != nil {
		return nil, fmt.Errorf("unmarshal requirements: %w", err)
	}
	if err := json.Unmarshal(skills, &j.SkillsRequired); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	return &j, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
