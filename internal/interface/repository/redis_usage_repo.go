package repository

import (
	"context"
	"fmt"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// usageKeyTTL keeps a day's counter around past the UTC day it counts
const usageKeyTTL = 48 * time.Hour

// reserveScript increments the counter only while it is below the quota
var reserveScript = redis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
if used >= tonumber(ARGV[1]) then
  return {used, 0}
end
used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return {used, 1}
`)

// RedisUsageRepository implements UsageRepository on a shared Redis counter
type RedisUsageRepository struct {
	client redis.Scripter
	prefix string
}

// NewRedisUsageRepository creates a usage counter with keys under prefix
func NewRedisUsageRepository(client redis.Scripter, prefix string) repository.UsageRepository {
	if prefix == "" {
		prefix = "dealwatch"
	}
	return &RedisUsageRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisUsageRepository) key(key entity.UsageKey) string {
	return fmt.Sprintf("%s:usage:%s:%s", r.prefix, key.Identity, key.Day)
}

// Reserve takes one call from key's budget if any is left
func (r *RedisUsageRepository) Reserve(ctx context.Context, key entity.UsageKey, quota int64) (int64, bool, error) {
	res, err := reserveScript.Run(ctx, r.client, []string{r.key(key)}, quota, int64(usageKeyTTL/time.Second)).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("reserve usage: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("reserve usage: unexpected reply %v", res)
	}
	return res[0], res[1] == 1, nil
}
