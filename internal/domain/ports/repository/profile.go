package repository

import (
	"context"

	"job-search-mas/internal/domain/model"
)

type ProfileRepository interface {
	// Save upserts by user id.
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Profile, error)
}

type StrategyRepository interface {
	// Save upserts by strategy id.
	Save(ctx context.Context, tx Tx, s *model.Strategy) error
	FindLatestByUser(ctx context.Context, tx Tx, userID string) (*model.Strategy, error)
}
