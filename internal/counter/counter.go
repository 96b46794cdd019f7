package counter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Endpoint families with their own click counter.
const (
	FamilyCart     = "cart"
	FamilyFavorite = "favorite"
	FamilyCoupon   = "coupon"
)

// Counter hands out the per-family request sequence numbers the modulus
// policy keys on. Incr returns the value after incrementing, starting at 1.
type Counter interface {
	Incr(ctx context.Context, family string) (int64, error)
}

// Memory keeps counters in process. Increments are atomic, so under
// concurrent load every n-th request still sees a distinct n.
type Memory struct {
	mu       sync.Mutex
	families map[string]*atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{families: make(map[string]*atomic.Int64)}
}

func (m *Memory) counter(family string) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.families[family]
	if !ok {
		c = new(atomic.Int64)
		m.families[family] = c
	}
	return c
}

func (m *Memory) Incr(_ context.Context, family string) (int64, error) {
	return m.counter(family).Add(1), nil
}

// Redis keeps counters in Redis so they survive restarts and are shared by
// every replica pointed at the same server.
type Redis struct {
	redis  *redis.Client
	prefix string
}

// constructor; prefix namespaces the keys, empty means "bisney:clicks:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "bisney:clicks:"
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
	}
}

func (r *Redis) Incr(ctx context.Context, family string) (int64, error) {
	n, err := r.redis.Incr(ctx, r.prefix+family).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s counter: %w", family, err)
	}
	return n, nil
}
