package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept nil for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction, committing when
// fn returns nil and rolling back otherwise.
//
//	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		if err := profiles.Save(ctx, tx, p); err != nil {
//			return err
//		}
//		return strategies.Save(ctx, tx, s)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
