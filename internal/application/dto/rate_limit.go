package dto

import "time"

type RateLimitScope string

const (
	RateLimitScopeIP    RateLimitScope = "ip"
	RateLimitScopeToken RateLimitScope = "token"
)

type RateLimitRule struct {
	Ceiling int
	Window  time.Duration
}

type CheckRateLimitCommand struct {
	Key     string
	Ceiling int
	Window  time.Duration
	Now     time.Time
}

type RateLimitDecision struct {
	Allowed    bool
	Scope      RateLimitScope
	Key        string
	Limit      int
	Count      int64
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the remaining window up to whole seconds, never below one.
func (d RateLimitDecision) RetryAfterSeconds() int {
	seconds := int((d.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
