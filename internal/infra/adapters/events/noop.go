package events

import (
	"context"

	"job-search-mas/internal/domain/ports/adapter"
)

var _ adapter.EventPublisher = Noop{}

// Noop drops events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, adapter.SessionEvent) error { return nil }
