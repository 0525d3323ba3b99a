package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
)

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

var _ repository.ApplicationRepository = (*ApplicationRepo)(nil)

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

const applicationSelect = `
SELECT a.application_id, a.user_id, a.job_id, a.status, a.cover_letter, a.adapted_resume,
       a.submitted_at, a.viewed_at, a.interview_at, a.notes, a.created_at, a.updated_at,
       j.relevance_score
FROM applications a
LEFT JOIN job_postings j ON j.job_id = a.job_id
`

// Save upserts by application id. Milestone timestamps already set on the
// stored row win over the incoming ones.
func (r *ApplicationRepo) Save(ctx context.Context, tx repository.Tx, app *model.Application) error {
	if app == nil || app.ApplicationID == "" {
		return domain.ErrInvalidArgument
	}
	q := `
INSERT INTO applications (application_id, user_id, job_id, status, cover_letter, adapted_resume,
  submitted_at, viewed_at, interview_at, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (application_id) DO UPDATE SET
  status = EXCLUDED.status,
  cover_letter = EXCLUDED.cover_letter,
  adapted_resume = EXCLUDED.adapted_resume,
  submitted_at = COALESCE(applications.submitted_at, EXCLUDED.submitted_at),
  viewed_at = COALESCE(applications.viewed_at, EXCLUDED.viewed_at),
  interview_at = COALESCE(applications.interview_at, EXCLUDED.interview_at),
  notes = EXCLUDED.notes,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		app.ApplicationID, app.UserID, app.JobID, string(app.Status), app.CoverLetter, app.AdaptedResume,
		app.SubmittedAt, app.ViewedAt, app.InterviewAt, app.Notes, app.CreatedAt, app.UpdatedAt,
	)
	return err
}

func (r *ApplicationRepo) FindByID(ctx context.Context, tx repository.Tx, applicationID string) (*model.Application, error) {
	row, err := pickRow(ctx, r.pool, tx, applicationSelect+`WHERE a.application_id = $1`, applicationID)
	if err != nil {
		return nil, err
	}
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Application, error) {
	return r.list(ctx, tx, applicationSelect+`WHERE a.user_id = $1 ORDER BY a.created_at DESC`, userID)
}

func (r *ApplicationRepo) ListByUserSince(ctx context.Context, tx repository.Tx, userID string, since time.Time) ([]*model.Application, error) {
	return r.list(ctx, tx, applicationSelect+`WHERE a.user_id = $1 AND a.created_at >= $2 ORDER BY a.created_at DESC`, userID, since)
}

func (r *ApplicationRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Application, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var (
		a      model.Application
		status string
	)
	if err := row.Scan(
		&a.ApplicationID, &a.UserID, &a.JobID, &status, &a.CoverLetter, &a.AdaptedResume,
		&a.SubmittedAt, &a.ViewedAt, &a.InterviewAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		&a.JobRelevance,
	); err != nil {
		return nil, err
	}
	a.Status = model.ApplicationStatus(status)
	return &a, nil
}
