package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"job-search-mas/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo manages the bot conversation state of a Telegram user in Redis.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateRepo(client RedisClient, ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &StateRepo{client: client, ttl: ttl}
}

func (s *StateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("bot_state:%d", tgID)
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		return nil, err
	}
	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
