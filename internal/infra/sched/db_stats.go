package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"job-search-mas/internal/infra/metrics"
)

// DBStatsReporter publishes pgx pool statistics as gauges.
type DBStatsReporter struct {
	interval time.Duration
	pool     *pgxpool.Pool
	log      *zerolog.Logger
}

func NewDBStatsReporter(interval time.Duration, pool *pgxpool.Pool, logger *zerolog.Logger) *DBStatsReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "DBStatsReporter").Logger()
	return &DBStatsReporter{interval: interval, pool: pool, log: &l}
}

func (r *DBStatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s := r.pool.Stat()
			metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns(), s.MaxConns(), s.AcquireCount())
		}
	}
}
