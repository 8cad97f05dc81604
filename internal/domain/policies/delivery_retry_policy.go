package policies

import "time"

const DefaultDeliveryMaxAttempts = 5

var DefaultDeliveryRetrySchedule = []time.Duration{
	time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

type DeliveryOutcome string

const (
	DeliveryOutcomeRetry  DeliveryOutcome = "retry"
	DeliveryOutcomeFailed DeliveryOutcome = "failed"
)

// ResolveFailedAttempt decides what follows a failed attempt. attempts is the count
// including the attempt that just failed. The last schedule entry repeats.
func ResolveFailedAttempt(
	attempts int,
	maxAttempts int,
	schedule []time.Duration,
	failedAt time.Time,
) (DeliveryOutcome, time.Time) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultDeliveryMaxAttempts
	}
	if attempts >= maxAttempts {
		return DeliveryOutcomeFailed, time.Time{}
	}
	if len(schedule) == 0 {
		schedule = DefaultDeliveryRetrySchedule
	}

	index := attempts - 1
	if index < 0 {
		index = 0
	}
	if index >= len(schedule) {
		index = len(schedule) - 1
	}
	return DeliveryOutcomeRetry, failedAt.Add(schedule[index])
}
