package use_cases

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const unknownClientIP = "unknown"

type admitRequestUseCase struct {
	validateToken portsin.ValidateTokenUseCase
	rateLimit     portsin.CheckRateLimitUseCase
	ipRule        dto.RateLimitRule
	tokenRule     dto.RateLimitRule
	clock         Clock
}

func NewAdmitRequestUseCase(
	validateToken portsin.ValidateTokenUseCase,
	rateLimit portsin.CheckRateLimitUseCase,
	ipRule dto.RateLimitRule,
	tokenRule dto.RateLimitRule,
	clock Clock,
) portsin.AdmitRequestUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &admitRequestUseCase{
		validateToken: validateToken,
		rateLimit:     rateLimit,
		ipRule:        ipRule,
		tokenRule:     tokenRule,
		clock:         clock,
	}
}

// Execute walks Received -> Authenticated -> RateChecked. A request that fails the
// auth gate is still charged to its IP window, and an exhausted IP window answers
// 429 ahead of the auth failure.
func (u *admitRequestUseCase) Execute(
	ctx context.Context,
	command dto.AdmitRequestCommand,
) (dto.AdmissionOutput, *apperrors.AppError) {
	output := dto.AdmissionOutput{Stage: dto.AdmissionStageReceived}
	if u.validateToken == nil || u.rateLimit == nil {
		return output, apperrors.NewInternal(
			"admission_not_configured",
			"request admission is not configured",
			nil,
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}
	clientIP := strings.TrimSpace(command.ClientIP)
	if clientIP == "" {
		clientIP = unknownClientIP
	}

	var authErr *apperrors.AppError
	if command.RequireAuth {
		rawToken, ok := valueobjects.ParseBearerAuthorization(command.Authorization)
		if !ok {
			authErr = apperrors.NewUnauthorized(
				"unauthorized",
				"a bearer token is required",
				nil,
			)
		} else {
			principal, appErr := u.validateToken.Execute(ctx, dto.ValidateTokenQuery{Token: rawToken})
			switch {
			case appErr == nil:
				output.Stage = dto.AdmissionStageAuthenticated
				output.Principal = &principal
			case appErr.Is(apperrors.TypeUnauthorized):
				authErr = appErr
			default:
				return output, appErr
			}
		}
	}

	ipDecision, appErr := u.check(ctx, dto.RateLimitScopeIP, "ip:"+clientIP, u.ipRule, now)
	if appErr != nil {
		return output, appErr
	}
	output.Decisions = append(output.Decisions, ipDecision)
	if !ipDecision.Allowed {
		return output, rateLimitedError(ipDecision)
	}
	if authErr != nil {
		return output, authErr
	}

	if output.Principal != nil {
		tokenDecision, appErr := u.check(
			ctx,
			dto.RateLimitScopeToken,
			"token:"+output.Principal.TokenID,
			u.tokenRule,
			now,
		)
		if appErr != nil {
			return output, appErr
		}
		output.Decisions = append(output.Decisions, tokenDecision)
		if !tokenDecision.Allowed {
			return output, rateLimitedError(tokenDecision)
		}
	}

	output.Stage = dto.AdmissionStageRateChecked
	return output, nil
}

func (u *admitRequestUseCase) check(
	ctx context.Context,
	scope dto.RateLimitScope,
	key string,
	rule dto.RateLimitRule,
	now time.Time,
) (dto.RateLimitDecision, *apperrors.AppError) {
	decision, appErr := u.rateLimit.Execute(ctx, dto.CheckRateLimitCommand{
		Key:     key,
		Ceiling: rule.Ceiling,
		Window:  rule.Window,
		Now:     now,
	})
	if appErr != nil {
		return dto.RateLimitDecision{}, appErr
	}
	decision.Scope = scope
	return decision, nil
}

func rateLimitedError(decision dto.RateLimitDecision) *apperrors.AppError {
	return apperrors.NewRateLimited(
		"rate_limited",
		"rate limit exceeded",
		map[string]any{
			"scope":               string(decision.Scope),
			"limit":               decision.Limit,
			"retry_after_seconds": decision.RetryAfterSeconds(),
			"reset_at":            decision.ResetAt.UTC(),
		},
	)
}
