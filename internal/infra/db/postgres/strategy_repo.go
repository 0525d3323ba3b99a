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

type StrategyRepo struct {
	pool *pgxpool.Pool
}

var _ repository.StrategyRepository = (*StrategyRepo)(nil)

func NewStrategyRepo(pool *pgxpool.Pool) *StrategyRepo {
	return &StrategyRepo{pool: pool}
}

// strategyBody is the JSONB payload; identity columns live outside it.
type strategyBody struct {
	Objectives      []string `json:"objectives"`
	TargetPositions []string `json:"target_positions"`
	TargetCompanies []string `json:"target_companies"`
	PrioritySkills  []string `json:"priority_skills"`
}

func (r *StrategyRepo) Save(ctx context.Context, tx repository.Tx, s *model.Strategy) error {
	if s == nil || s.StrategyID == "" || s.UserID == "" {
		return domain.ErrInvalidArgument
	}
	body, err := json.Marshal(strategyBody{
		Objectives:      s.Objectives,
		TargetPositions: s.TargetPositions,
		TargetCompanies: s.TargetCompanies,
		PrioritySkills:  s.PrioritySkills,
	})
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	q := `
INSERT INTO strategies (strategy_id, user_id, body, timeline, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (strategy_id) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  body = EXCLUDED.body,
  timeline = EXCLUDED.timeline,
  created_at = EXCLUDED.created_at;
`
	_, err = execSQL(ctx, r.pool, tx, q, s.StrategyID, s.UserID, body, s.Timeline, s.CreatedAt)
	return err
}

func (r *StrategyRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Strategy, error) {
	q := `
SELECT strategy_id, user_id, body, timeline, created_at
FROM strategies
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var (
		s    model.Strategy
		raw  []byte
		body strategyBody
	)
	if err := row.Scan(&s.StrategyID, &s.UserID, &raw, &s.Timeline, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("unmarshal strategy: %w", err)
	}
	s.Objectives = body.Objectives
	s.TargetPositions = body.TargetPositions
	s.TargetCompanies = body.TargetCompanies
	s.PrioritySkills = body.PrioritySkills
	return &s, nil
}
