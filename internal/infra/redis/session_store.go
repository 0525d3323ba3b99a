package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"job-search-mas/internal/config"
	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/model"
	"job-search-mas/internal/domain/ports/repository"
	"job-search-mas/internal/infra/metrics"
)

const (
	sessionKeyPrefix   = "session:"
	workspaceKeyPrefix = "workspace:"
)

// KeyValue is the subset of RedisClient the session store needs; MemoryKV implements it too.
type KeyValue interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps session contexts and workspaces in Redis with expiry.
// Any Redis failure is logged and the call is served by the in-process fallback.
type SessionStore struct {
	primary      KeyValue
	fallback     *MemoryKV
	sessionTTL   time.Duration
	workspaceTTL time.Duration
	log          *zerolog.Logger

	// serialises read-modify-write cycles inside this process
	mu sync.Mutex
}

// NewSessionStore builds the store. primary is nil when Redis was unavailable at startup.
func NewSessionStore(primary KeyValue, fallback *MemoryKV, cfg config.RedisConfig, logger *zerolog.Logger) *SessionStore {
	l := logger.With().Str("component", "SessionStore").Logger()
	s := &SessionStore{
		primary:      primary,
		fallback:     fallback,
		sessionTTL:   cfg.SessionTTL,
		workspaceTTL: cfg.WorkspaceTTL,
		log:          &l,
	}
	if s.fallback == nil {
		s.fallback = NewMemoryKV()
	}
	if s.primary == nil {
		l.Warn().Msg("redis unavailable, sessions are kept in memory")
	}
	return s
}

func (s *SessionStore) GetContext(ctx context.Context, sessionID string) (*model.SessionContext, error) {
	raw, err := s.get(ctx, "get_context", sessionKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	var sc model.SessionContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, err
	}
	if sc.Version == 0 {
		sc.Version = model.SessionContextVersion
	}
	if sc.AgentTrace == nil {
		sc.AgentTrace = []string{}
	}
	return &sc, nil
}

func (s *SessionStore) SetContext(ctx context.Context, sessionID string, sc *model.SessionContext) error {
	sc.Version = model.SessionContextVersion
	raw, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return s.set(ctx, "set_context", sessionKeyPrefix+sessionID, raw, s.sessionTTL)
}

func (s *SessionStore) UpdateContext(ctx context.Context, sessionID string, fn func(sc *model.SessionContext)) (*model.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.GetContext(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sc = model.NewSessionContext("", "")
	case err != nil:
		return nil, err
	}
	fn(sc)
	sc.UpdatedAt = time.Now().UTC()
	if err := s.SetContext(ctx, sessionID, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *SessionStore) GetWorkspace(ctx context.Context, sessionID string) (*model.Workspace, error) {
	raw, err := s.get(ctx, "get_workspace", workspaceKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	ws := model.NewWorkspace()
	if err := json.Unmarshal([]byte(raw), ws); err != nil {
		return nil, err
	}
	if ws.AgentOutputs == nil {
		ws.AgentOutputs = map[string]json.RawMessage{}
	}
	return ws, nil
}

func (s *SessionStore) PutAgentOutput(ctx context.Context, sessionID, agent string, output any) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.GetWorkspace(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ws = model.NewWorkspace()
	case err != nil:
		return err
	}
	ws.AgentOutputs[agent] = payload
	ws.LastUpdated = time.Now().UTC()

	raw, err := json.Marshal(ws)
	if err != nil {
		return err
	}
	return s.set(ctx, "put_agent_output", workspaceKeyPrefix+sessionID, raw, s.workspaceTTL)
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	keys := []string{sessionKeyPrefix + sessionID, workspaceKeyPrefix + sessionID}
	_ = s.fallback.Del(ctx, keys...)
	if s.primary == nil {
		return nil
	}
	if err := s.primary.Del(ctx, keys...); err != nil {
		s.degraded("clear", err)
	}
	return nil
}

func (s *SessionStore) get(ctx context.Context, op, key string) (string, error) {
	if s.primary != nil {
		v, err := s.primary.Get(ctx, key)
		switch {
		case err == nil:
			return v, nil
		case !errors.Is(err, domain.ErrNotFound):
			s.degraded(op, err)
		}
	}
	// written during an outage, or never reached Redis
	return s.fallback.Get(ctx, key)
}

func (s *SessionStore) set(ctx context.Context, op, key string, raw []byte, ttl time.Duration) error {
	if s.primary != nil {
		err := s.primary.Set(ctx, key, raw, ttl)
		if err == nil {
			_ = s.fallback.Del(ctx, key)
			return nil
		}
		s.degraded(op, err)
	}
	return s.fallback.Set(ctx, key, raw, ttl)
}

func (s *SessionStore) degraded(op string, err error) {
	metrics.IncSessionFallback(op)
	s.log.Warn().Err(err).Str("op", op).Msg("redis call failed, using in-memory store")
}
