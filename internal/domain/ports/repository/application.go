package repository

import (
	"context"
	"time"

	"job-search-mas/internal/domain/model"
)

type ApplicationRepository interface {
	// Save upserts by application id. created_at of an existing row is preserved.
	Save(ctx context.Context, tx Tx, app *model.Application) error
	FindByID(ctx context.Context, tx Tx, applicationID string) (*model.Application, error)
	// ListByUser returns applications newest first, with the linked job relevance.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Application, error)
	ListByUserSince(ctx context.Context, tx Tx, userID string, since time.Time) ([]*model.Application, error)
}
