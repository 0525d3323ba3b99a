package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"job-search-mas/internal/infra/metrics"
)

// Sweeper drops expired entries and reports how many went.
type Sweeper interface {
	Sweep(now time.Time) int
}

// SessionJanitor periodically evicts expired sessions from the in-process fallback store.
type SessionJanitor struct {
	interval time.Duration
	store    Sweeper
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionJanitor(interval time.Duration, store Sweeper, logger *zerolog.Logger) *SessionJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "SessionJanitor").Logger()
	return &SessionJanitor{interval: interval, store: store, now: time.Now, log: &l}
}

func (j *SessionJanitor) Run(ctx context.Context) error {
	j.log.Info().Dur("interval", j.interval).Msg("Starting session janitor")
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("Stopping session janitor")
			return ctx.Err()
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

func (j *SessionJanitor) SweepOnce() int {
	n := j.store.Sweep(j.now())
	if n > 0 {
		metrics.AddJanitorEvicted(n)
		j.log.Debug().Int("evicted", n).Msg("expired sessions evicted")
	}
	return n
}
