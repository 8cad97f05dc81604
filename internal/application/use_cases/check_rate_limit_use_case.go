package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type checkRateLimitUseCase struct {
	store portsout.RateWindowStore
	clock Clock
}

func NewCheckRateLimitUseCase(store portsout.RateWindowStore, clock Clock) portsin.CheckRateLimitUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &checkRateLimitUseCase{
		store: store,
		clock: clock,
	}
}

func (u *checkRateLimitUseCase) Execute(
	ctx context.Context,
	command dto.CheckRateLimitCommand,
) (dto.RateLimitDecision, *apperrors.AppError) {
	if u.store == nil {
		return dto.RateLimitDecision{}, apperrors.NewInternal(
			"rate_window_store_missing",
			"rate window store is required",
			nil,
		)
	}

	command.Key = strings.TrimSpace(command.Key)
	if command.Key == "" {
		return dto.RateLimitDecision{}, apperrors.NewValidation(
			"rate_limit_key_invalid",
			"rate limit key is required",
			nil,
		)
	}
	if command.Ceiling <= 0 {
		return dto.RateLimitDecision{}, apperrors.NewValidation(
			"rate_limit_ceiling_invalid",
			"rate limit ceiling must be greater than zero",
			map[string]any{"ceiling": command.Ceiling},
		)
	}
	if command.Window <= 0 {
		return dto.RateLimitDecision{}, apperrors.NewValidation(
			"rate_limit_window_invalid",
			"rate limit window must be greater than zero",
			map[string]any{"window": command.Window.String()},
		)
	}
	if command.Now.IsZero() {
		command.Now = u.clock.NowUTC()
	}

	return u.store.CheckAndIncrement(ctx, command)
}
