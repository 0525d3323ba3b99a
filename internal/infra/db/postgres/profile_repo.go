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

// FieldSealer encrypts sensitive columns at rest. Open must accept plaintext
// written before encryption was enabled.
type FieldSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

type ProfileRepo struct {
	pool   *pgxpool.Pool
	sealer FieldSealer
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo stores resume_text sealed when sealer is non-nil.
func NewProfileRepo(pool *pgxpool.Pool, sealer FieldSealer) *ProfileRepo {
	return &ProfileRepo{pool: pool, sealer: sealer}
}

const profileColumns = `user_id, name, email, resume_text, skills, seniority, mobility,
	location, salary_expectations, career_objectives, preferred_industries, created_at, updated_at`

func (r *ProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	if p == nil || p.UserID == "" {
		return domain.ErrInvalidArgument
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	industries, err := json.Marshal(p.PreferredIndustries)
	if err != nil {
		return fmt.Errorf("marshal industries: %w", err)
	}
	resume := p.ResumeText
	if r.sealer != nil {
		if resume, err = r.sealer.Seal(resume); err != nil {
			return fmt.Errorf("seal resume: %w", err)
		}
	}

	q := `
INSERT INTO profiles (` + profileColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (user_id) DO UPDATE SET
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  resume_text = EXCLUDED.resume_text,
  skills = EXCLUDED.skills,
  seniority = EXCLUDED.seniority,
  mobility = EXCLUDED.mobility,
  location = EXCLUDED.location,
  salary_expectations = EXCLUDED.salary_expectations,
  career_objectives = EXCLUDED.career_objectives,
  preferred_industries = EXCLUDED.preferred_industries,
  updated_at = EXCLUDED.updated_at;
`
	_, err = execSQL(ctx, r.pool, tx, q,
		p.UserID, p.Name, p.Email, resume, skills, string(p.Seniority), string(p.Mobility),
		p.Location, p.SalaryExpectations, p.CareerObjectives, industries, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	var (
		p                   model.Profile
		skills, industries  []byte
		seniority, mobility string
	)
	if err := row.Scan(
		&p.UserID, &p.Name, &p.Email, &p.ResumeText, &skills, &seniority, &mobility,
		&p.Location, &p.SalaryExpectations, &p.CareerObjectives, &industries, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Seniority = model.ParseSeniority(seniority)
	p.Mobility = model.ParseMobility(mobility)
	if err := json.Unmarshal(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(industries, &p.PreferredIndustries); err != nil {
		return nil, fmt.Errorf("unmarshal industries: %w", err)
	}
	if r.sealer != nil {
		if p.ResumeText, err = r.sealer.Open(p.ResumeText); err != nil {
			return nil, fmt.Errorf("open resume: %w", err)
		}
	}
	return &p, nil
}
