// Package redis holds the shared fixed-window rate store.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"

	redis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "taskflow:ratelimit:"

// checkAndIncrementScript returns {count, remaining window ms}. A key without a TTL
// is treated as a fresh window. The counter stops one past the ceiling.
var checkAndIncrementScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('SET', KEYS[1], '1', 'PX', ARGV[2])
  return {1, tonumber(ARGV[2])}
end
local count = tonumber(redis.call('GET', KEYS[1]))
if count <= tonumber(ARGV[1]) then
  count = redis.call('INCR', KEYS[1])
end
return {count, ttl}
`)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ portsout.RateWindowStore = (*Store)(nil)

// NewClient connects and pings so a bad address fails at startup.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) CheckAndIncrement(
	ctx context.Context,
	command dto.CheckRateLimitCommand,
) (dto.RateLimitDecision, *apperrors.AppError) {
	windowMS := command.Window.Milliseconds()
	if command.Ceiling <= 0 || windowMS <= 0 {
		return dto.RateLimitDecision{}, apperrors.NewValidation(
			"rate_limit_rule_invalid",
			"rate limit ceiling and window must be greater than zero",
			map[string]any{"key": command.Key},
		)
	}

	values, err := checkAndIncrementScript.Run(
		ctx,
		s.client,
		[]string{s.prefix + command.Key},
		command.Ceiling,
		windowMS,
	).Int64Slice()
	if err != nil {
		return dto.RateLimitDecision{}, apperrors.NewInternal(
			"rate_limit_store_unavailable",
			"failed to update rate window",
			map[string]any{"error": err.Error(), "key": command.Key},
		)
	}
	if len(values) != 2 {
		return dto.RateLimitDecision{}, apperrors.NewInternal(
			"rate_limit_store_unavailable",
			"unexpected rate window script result",
			map[string]any{"key": command.Key, "values": len(values)},
		)
	}

	now := command.Now.UTC()
	count := values[0]
	resetAt := now.Add(time.Duration(values[1]) * time.Millisecond)
	remaining := command.Ceiling - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return dto.RateLimitDecision{
		Allowed:    count <= int64(command.Ceiling),
		Key:        command.Key,
		Limit:      command.Ceiling,
		Count:      count,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}, nil
}
