package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"job-search-mas/internal/domain"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

var _ RedisClient = (*MemoryKV)(nil)

// MemoryKV is the in-process stand-in used when Redis is unreachable.
// Expired entries are invisible to Get and removed by Sweep.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: s}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return "", domain.ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Incr keeps the expiry of a live key, like Redis INCR.
func (m *MemoryKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		e = memEntry{value: "0"}
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer", key)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.data[key] = e
	return n, nil
}

func (m *MemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	e.expiresAt = m.now().Add(ttl)
	m.data[key] = e
	return nil
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }

// Sweep drops expired entries and reports how many were removed.
func (m *MemoryKV) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
			n++
		}
	}
	return n
}

func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
