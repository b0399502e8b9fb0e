package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Yates-Labs/gamebible/internal/config"
)

// counters outlive their day so a late check near midnight still sees them
const keyTTL = 48 * time.Hour

// checkAndIncr returns {allowed, count}. The counter only moves when allowed.
var checkAndIncr = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisLimiter keeps counters in Redis so several API replicas share them.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	prefix string
	now    func() time.Time
}

// NewRedisClient opens a client for the quota store.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// NewRedisLimiter creates a limiter over client.
func NewRedisLimiter(client redis.UniversalClient, limit int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, prefix: "quota", now: time.Now}
}

func (r *RedisLimiter) key(user string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, user, DayKey(r.now()))
}

func (r *RedisLimiter) CheckAndIncrement(ctx context.Context, user string) (Decision, error) {
	if user == "" {
		return denyUnauthenticated(), nil
	}

	res, err := checkAndIncr.Run(ctx, r.client, []string{r.key(user)}, r.limit, int(keyTTL.Seconds())).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("quota check for %s: %w", user, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("quota check for %s: unexpected script reply %v", user, res)
	}

	used := int(res[1])
	if res[0] == 0 {
		return denyLimit(r.limit, used), nil
	}
	return Decision{Allowed: true, Used: used}, nil
}

// Ping verifies the store is reachable.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
