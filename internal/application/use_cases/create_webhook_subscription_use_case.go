package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type createWebhookSubscriptionUseCase struct {
	repository portsout.WebhookSubscriptionRepository
	generator  portsout.CredentialGenerator
	allowlist  valueobjects.HostAllowlist
	clock      Clock
}

func NewCreateWebhookSubscriptionUseCase(
	repository portsout.WebhookSubscriptionRepository,
	generator portsout.CredentialGenerator,
	allowlist valueobjects.HostAllowlist,
	clock Clock,
) portsin.CreateWebhookSubscriptionUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &createWebhookSubscriptionUseCase{
		repository: repository,
		generator:  generator,
		allowlist:  allowlist,
		clock:      clock,
	}
}

func (u *createWebhookSubscriptionUseCase) Execute(
	ctx context.Context,
	command dto.CreateWebhookSubscriptionCommand,
) (dto.CreatedWebhookSubscription, *apperrors.AppError) {
	if u.repository == nil {
		return dto.CreatedWebhookSubscription{}, missingSubscriptionRepository()
	}
	if u.generator == nil {
		return dto.CreatedWebhookSubscription{}, apperrors.NewInternal(
			"credential_generator_missing",
			"credential generator is required",
			nil,
		)
	}

	owner, appErr := requireOwner(command.OwnerUserID)
	if appErr != nil {
		return dto.CreatedWebhookSubscription{}, appErr
	}

	destination, appErr := valueobjects.NewSubscriptionURL(command.URL)
	if appErr != nil {
		return dto.CreatedWebhookSubscription{}, appErr
	}
	if !u.allowlist.Allows(destination.Host()) {
		return dto.CreatedWebhookSubscription{}, apperrors.NewForbidden(
			"webhook_host_not_allowed",
			"webhook url host is not in the allowlist",
			map[string]any{"host": destination.Host()},
		)
	}

	eventTypes, appErr := valueobjects.NormalizeEventTypes(command.EventTypes)
	if appErr != nil {
		return dto.CreatedWebhookSubscription{}, appErr
	}

	secret := strings.TrimSpace(command.Secret)
	if secret == "" {
		secret, appErr = u.generator.NewSecret()
		if appErr != nil {
			return dto.CreatedWebhookSubscription{}, appErr
		}
	} else if len(secret) < minWebhookSecretLength {
		return dto.CreatedWebhookSubscription{}, apperrors.NewValidation(
			"invalid_request",
			"secret is too short",
			map[string]any{"field": "secret", "min_length": minWebhookSecretLength},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	subscription := entities.WebhookSubscription{
		ID:          uuid.NewString(),
		OwnerUserID: owner,
		URL:         destination.String(),
		Secret:      secret,
		EventTypes:  eventTypes,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if appErr := u.repository.Create(ctx, subscription); appErr != nil {
		return dto.CreatedWebhookSubscription{}, appErr
	}

	return dto.CreatedWebhookSubscription{
		WebhookSubscriptionView: toWebhookSubscriptionView(subscription),
		Secret:                  secret,
	}, nil
}
