package use_cases

import (
	"context"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const healthProbeTimeout = 2 * time.Second

type getHealthUseCase struct {
	persistence portsout.PersistenceBootstrapGateway
}

// NewGetHealthUseCase reports ok without probes when persistence is nil.
func NewGetHealthUseCase(persistence portsout.PersistenceBootstrapGateway) portsin.GetHealthUseCase {
	return &getHealthUseCase{persistence: persistence}
}

func (u *getHealthUseCase) Execute(ctx context.Context, _ dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError) {
	status := valueobjects.HealthStatusOK
	if u.persistence == nil {
		return dto.HealthOutput{Status: status.String()}, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	checks := map[string]string{"persistence": valueobjects.HealthStatusOK.String()}
	if appErr := u.persistence.CheckReadiness(probeCtx); appErr != nil {
		status = status.Worse(valueobjects.HealthStatusDegraded)
		checks["persistence"] = appErr.Code
	}

	return dto.HealthOutput{
		Status: status.String(),
		Checks: checks,
	}, nil
}
