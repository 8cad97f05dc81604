package use_cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/policies"
	apperrors "taskflow/internal/shared_kernel/errors"

	"golang.org/x/sync/errgroup"
)

type dispatchWebhookDeliveriesUseCase struct {
	repository portsout.WebhookDeliveryRepository
	gateway    portsout.WebhookEventGateway
}

type deliveryAttemptOutcome string

const (
	deliveryAttemptSent     deliveryAttemptOutcome = "sent"
	deliveryAttemptRetried  deliveryAttemptOutcome = "retried"
	deliveryAttemptFailed   deliveryAttemptOutcome = "failed"
	deliveryAttemptSkipped  deliveryAttemptOutcome = "skipped"
	deliveryAttemptDeferred deliveryAttemptOutcome = "deferred"
)

// Attempts only start within this share of the lease, leaving the rest for the send
// timeout. Deferred rows keep their lease and are reclaimed once it lapses.
const leaseStartFraction = 80

type deliveryAttemptResult struct {
	outcome      deliveryAttemptOutcome
	statusCode   int
	sendFailed   bool
	networkError bool
	err          *apperrors.AppError
}

func NewDispatchWebhookDeliveriesUseCase(
	repository portsout.WebhookDeliveryRepository,
	gateway portsout.WebhookEventGateway,
) portsin.DispatchWebhookDeliveriesUseCase {
	return &dispatchWebhookDeliveriesUseCase{
		repository: repository,
		gateway:    gateway,
	}
}

func (u *dispatchWebhookDeliveriesUseCase) Execute(
	ctx context.Context,
	command dto.DispatchWebhookDeliveriesCommand,
) (dto.DispatchWebhookDeliveriesOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewInternal(
			"webhook_delivery_repository_missing",
			"webhook delivery repository is required",
			nil,
		)
	}
	if u.gateway == nil {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewInternal(
			"webhook_event_gateway_missing",
			"webhook event gateway is required",
			nil,
		)
	}
	if command.BatchSize <= 0 {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"dispatch_webhook_batch_size_invalid",
			"dispatch webhook batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}
	workerID := strings.TrimSpace(command.WorkerID)
	if workerID == "" {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"dispatch_webhook_worker_id_invalid",
			"dispatch webhook worker id is required",
			nil,
		)
	}
	if command.LeaseDuration <= 0 {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"dispatch_webhook_lease_duration_invalid",
			"dispatch webhook lease duration must be greater than zero",
			map[string]any{"lease_duration": command.LeaseDuration.String()},
		)
	}
	if command.MaxInFlight <= 0 {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"dispatch_webhook_max_in_flight_invalid",
			"dispatch webhook max in-flight must be greater than zero",
			map[string]any{"max_in_flight": command.MaxInFlight},
		)
	}
	if command.MaxInFlightPerSubscription <= 0 {
		return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"dispatch_webhook_max_in_flight_per_subscription_invalid",
			"dispatch webhook max in-flight per subscription must be greater than zero",
			map[string]any{"max_in_flight_per_subscription": command.MaxInFlightPerSubscription},
		)
	}
	schedule := command.RetrySchedule
	if len(schedule) == 0 {
		schedule = policies.DefaultDeliveryRetrySchedule
	}
	for _, delay := range schedule {
		if delay <= 0 {
			return dto.DispatchWebhookDeliveriesOutput{}, apperrors.NewValidation(
				"dispatch_webhook_retry_schedule_invalid",
				"dispatch webhook retry delays must be greater than zero",
				map[string]any{"retry_delay": delay.String()},
			)
		}
	}

	startedAt := time.Now().UTC()
	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = startedAt
	}

	rows, appErr := u.repository.ClaimDue(ctx, now, command.BatchSize, workerID, now.Add(command.LeaseDuration))
	if appErr != nil {
		return dto.DispatchWebhookDeliveriesOutput{}, appErr
	}

	results := make([]deliveryAttemptResult, len(rows))
	startDeadline := startedAt.Add(command.LeaseDuration * leaseStartFraction / 100)
	group := errgroup.Group{}
	group.SetLimit(command.MaxInFlight)
	for _, lane := range deliveryLanes(rows, command.MaxInFlightPerSubscription) {
		group.Go(func() error {
			for _, index := range lane {
				if ctx.Err() != nil || !time.Now().Before(startDeadline) {
					results[index] = deliveryAttemptResult{outcome: deliveryAttemptDeferred}
					continue
				}
				results[index] = u.attempt(ctx, rows[index], workerID, now, schedule)
			}
			return nil
		})
	}
	_ = group.Wait()

	output := dto.DispatchWebhookDeliveriesOutput{Claimed: len(rows)}
	var firstErr *apperrors.AppError
	for _, result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			output.Errors++
			continue
		}
		if result.sendFailed {
			output.Errors++
		}
		switch {
		case result.networkError:
			output.NetworkErrorCount++
		case result.statusCode >= 200 && result.statusCode <= 299:
			output.HTTP2xxCount++
		case result.statusCode >= 400 && result.statusCode <= 499:
			output.HTTP4xxCount++
		case result.statusCode >= 500:
			output.HTTP5xxCount++
		}
		switch result.outcome {
		case deliveryAttemptSent:
			output.Sent++
		case deliveryAttemptRetried:
			output.Retried++
		case deliveryAttemptFailed:
			output.Failed++
		case deliveryAttemptSkipped:
			output.Skipped++
		case deliveryAttemptDeferred:
			output.Deferred++
		}
	}

	output.LatencyMS = time.Since(startedAt).Milliseconds()
	return output, firstErr
}

func (u *dispatchWebhookDeliveriesUseCase) attempt(
	ctx context.Context,
	row dto.ClaimedWebhookDelivery,
	workerID string,
	now time.Time,
	schedule []time.Duration,
) deliveryAttemptResult {
	destinationURL := strings.TrimSpace(row.DestinationURL)
	if destinationURL == "" {
		return deliveryAttemptResult{outcome: deliveryAttemptSkipped, sendFailed: true}
	}

	attempts := row.Attempts + 1
	sendOutput, sendErr := u.gateway.SendWebhookEvent(ctx, dto.SendWebhookInput{
		DeliveryID:      row.ID,
		EventID:         row.EventID,
		EventType:       row.EventType,
		DeliveryAttempt: attempts,
		DestinationURL:  destinationURL,
		Secret:          row.Secret,
		Payload:         row.Payload,
	})
	result := deliveryAttemptResult{
		statusCode:   sendOutput.StatusCode,
		networkError: sendErr != nil && sendOutput.StatusCode == 0,
	}

	if sendErr == nil && sendOutput.StatusCode >= 200 && sendOutput.StatusCode <= 299 {
		updated, markErr := u.repository.MarkDelivered(ctx, row.ID, workerID, attempts, sendOutput.StatusCode, now)
		return settleAttempt(result, deliveryAttemptSent, updated, markErr)
	}

	result.sendFailed = true
	errorMessage := webhookDispatchErrorMessage(sendErr, sendOutput.StatusCode)
	outcome, nextAttemptAt := policies.ResolveFailedAttempt(attempts, row.MaxAttempts, schedule, now)
	if outcome == policies.DeliveryOutcomeFailed {
		updated, markErr := u.repository.MarkFailed(
			ctx,
			row.ID,
			workerID,
			attempts,
			errorMessage,
			sendOutput.StatusCode,
			now,
		)
		return settleAttempt(result, deliveryAttemptFailed, updated, markErr)
	}

	updated, markErr := u.repository.MarkRetry(
		ctx,
		row.ID,
		workerID,
		attempts,
		nextAttemptAt,
		errorMessage,
		sendOutput.StatusCode,
		now,
	)
	return settleAttempt(result, deliveryAttemptRetried, updated, markErr)
}

// settleAttempt downgrades to skipped when the conditional update matched nothing,
// meaning the lease was lost to another worker.
func settleAttempt(
	result deliveryAttemptResult,
	outcome deliveryAttemptOutcome,
	updated bool,
	markErr *apperrors.AppError,
) deliveryAttemptResult {
	if markErr != nil {
		result.err = markErr
		return result
	}
	if !updated {
		result.outcome = deliveryAttemptSkipped
		return result
	}
	result.outcome = outcome
	return result
}

func webhookDispatchErrorMessage(appErr *apperrors.AppError, statusCode int) string {
	if appErr != nil {
		message := strings.TrimSpace(appErr.Message)
		if message == "" {
			message = strings.TrimSpace(appErr.Code)
		}
		if message == "" {
			message = "webhook dispatch failed"
		}
		if statusCode > 0 {
			return fmt.Sprintf("%s (status %d)", message, statusCode)
		}
		return message
	}

	if statusCode <= 0 {
		return "webhook dispatch failed"
	}
	return fmt.Sprintf("webhook endpoint returned status %d", statusCode)
}

// deliveryLanes splits each subscription's rows, in claim order, across at most
// perSubscription sequential lanes. Lanes are interleaved round by round so every
// subscription's first lane is scheduled before any subscription's second; a slow
// subscriber never occupies more global slots than its own bound.
func deliveryLanes(rows []dto.ClaimedWebhookDelivery, perSubscription int) [][]int {
	order := []string{}
	bySubscription := map[string][]int{}
	for i, row := range rows {
		if _, seen := bySubscription[row.SubscriptionID]; !seen {
			order = append(order, row.SubscriptionID)
		}
		bySubscription[row.SubscriptionID] = append(bySubscription[row.SubscriptionID], i)
	}

	lanesBySubscription := make(map[string][][]int, len(order))
	rounds := 0
	for _, subscriptionID := range order {
		indexes := bySubscription[subscriptionID]
		laneCount := min(perSubscription, len(indexes))
		lanes := make([][]int, laneCount)
		for position, index := range indexes {
			lanes[position%laneCount] = append(lanes[position%laneCount], index)
		}
		lanesBySubscription[subscriptionID] = lanes
		rounds = max(rounds, laneCount)
	}

	ordered := make([][]int, 0, len(rows))
	for round := 0; round < rounds; round++ {
		for _, subscriptionID := range order {
			if lanes := lanesBySubscription[subscriptionID]; round < len(lanes) {
				ordered = append(ordered, lanes[round])
			}
		}
	}
	return ordered
}
