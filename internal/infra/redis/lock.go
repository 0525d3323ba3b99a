// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"job-search-mas/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// JourneyLockKey guards the single in-flight résumé of a Telegram user.
func JourneyLockKey(tgID int64) string {
	return fmt.Sprintf("lock:journey:%d", tgID)
}

// TryLock returns domain.ErrJourneyInProgress while another holder owns key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < 3; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return token, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrJourneyInProgress
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
