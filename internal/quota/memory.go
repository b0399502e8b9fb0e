package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps counters in process. Counters of past days are dropped
// lazily.
type MemoryLimiter struct {
	limit int
	now   func() time.Time

	mu     sync.Mutex
	day    string
	counts map[string]int
}

// NewMemoryLimiter creates a limiter allowing limit generations per user per day.
func NewMemoryLimiter(limit int) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, now: time.Now, counts: make(map[string]int)}
}

func (m *MemoryLimiter) CheckAndIncrement(ctx context.Context, user string) (Decision, error) {
	if user == "" {
		return denyUnauthenticated(), nil
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if day := DayKey(m.now()); day != m.day {
		m.day = day
		m.counts = make(map[string]int)
	}

	used := m.counts[user]
	if used >= m.limit {
		return denyLimit(m.limit, used), nil
	}
	m.counts[user] = used + 1
	return Decision{Allowed: true, Used: used + 1}, nil
}
