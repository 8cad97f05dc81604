package use_cases

import (
	"context"
	"strconv"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway portsout.PersistenceBootstrapGateway
}

func NewInitializePersistenceUseCase(gateway portsout.PersistenceBootstrapGateway) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway: gateway,
	}
}

// Execute waits for the store to answer, then applies pending migrations.
func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal(
			"PERSISTENCE_GATEWAY_MISSING",
			"persistence gateway is required",
			nil,
		)
	}
	if command.ReadinessTimeout <= 0 {
		return apperrors.NewValidation(
			"READINESS_TIMEOUT_INVALID",
			"readiness timeout must be greater than zero",
			nil,
		)
	}
	if command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"READINESS_RETRY_INTERVAL_INVALID",
			"readiness retry interval must be greater than zero",
			nil,
		)
	}

	if appErr := u.waitForReadiness(ctx, command); appErr != nil {
		return appErr
	}
	return u.gateway.RunMigrations(ctx)
}

func (u *initializePersistenceUseCase) waitForReadiness(
	ctx context.Context,
	command dto.InitializePersistenceCommand,
) *apperrors.AppError {
	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	details := map[string]any{"timeout": command.ReadinessTimeout.String()}
	for attempts := 1; ; attempts++ {
		appErr := u.gateway.CheckReadiness(readinessCtx)
		if appErr == nil {
			return nil
		}
		details["attempts"] = strconv.Itoa(attempts)
		details["last_code"] = appErr.Code

		timer := time.NewTimer(command.ReadinessRetryInterval)
		select {
		case <-readinessCtx.Done():
			timer.Stop()
			return apperrors.NewInternal(
				"DB_READINESS_TIMEOUT",
				"database readiness check timed out",
				details,
			)
		case <-timer.C:
		}
	}
}
