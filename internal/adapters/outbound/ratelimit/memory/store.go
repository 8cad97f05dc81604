// Package memory holds a process-local fixed-window rate store.
package memory

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const DefaultShardCount = 64

// Store shards windows by key hash; a check-and-increment holds only its shard lock.
type Store struct {
	shards []*shard
	logger *log.Logger
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start  time.Time
	length time.Duration
	count  int64
}

var _ portsout.RateWindowStore = (*Store)(nil)

func NewStore(shardCount int, logger *log.Logger) *Store {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{windows: map[string]*window{}}
	}
	return &Store{shards: shards, logger: logger}
}

func (s *Store) CheckAndIncrement(
	_ context.Context,
	command dto.CheckRateLimitCommand,
) (dto.RateLimitDecision, *apperrors.AppError) {
	if command.Ceiling <= 0 || command.Window <= 0 {
		return dto.RateLimitDecision{}, apperrors.NewValidation(
			"rate_limit_rule_invalid",
			"rate limit ceiling and window must be greater than zero",
			map[string]any{"key": command.Key},
		)
	}

	now := command.Now.UTC()
	bucket := s.shardFor(command.Key)

	bucket.mu.Lock()
	current, ok := bucket.windows[command.Key]
	if !ok || !now.Before(current.start.Add(current.length)) {
		current = &window{start: now, length: command.Window}
		bucket.windows[command.Key] = current
	}
	// Stop counting one past the ceiling so a flood never grows the counter.
	if current.count <= int64(command.Ceiling) {
		current.count++
	}
	count := current.count
	resetAt := current.start.Add(current.length)
	bucket.mu.Unlock()

	return buildDecision(command, count, resetAt, now), nil
}

// Sweep drops windows that have elapsed by now and reports how many were removed.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, bucket := range s.shards {
		bucket.mu.Lock()
		for key, current := range bucket.windows {
			if !now.Before(current.start.Add(current.length)) {
				delete(bucket.windows, key)
				removed++
			}
		}
		bucket.mu.Unlock()
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if removed := s.Sweep(tick.UTC()); removed > 0 {
				s.logf("rate window sweep removed=%d", removed)
			}
		}
	}
}

// Len reports the number of tracked windows.
func (s *Store) Len() int {
	total := 0
	for _, bucket := range s.shards {
		bucket.mu.Lock()
		total += len(bucket.windows)
		bucket.mu.Unlock()
	}
	return total
}

func (s *Store) shardFor(key string) *shard {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(key))
	return s.shards[hasher.Sum32()%uint32(len(s.shards))]
}

func (s *Store) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

func buildDecision(command dto.CheckRateLimitCommand, count int64, resetAt time.Time, now time.Time) dto.RateLimitDecision {
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
	}
}
