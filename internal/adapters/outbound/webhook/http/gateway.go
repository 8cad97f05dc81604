package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxErrorBodyBytes  = 1024
	userAgent          = "TaskFlow-Webhooks/1"
)

type Config struct {
	Timeout time.Duration
}

// Gateway posts signed deliveries. Each delivery carries its own subscription secret.
type Gateway struct {
	client *nethttp.Client
}

var _ portsout.WebhookEventGateway = (*Gateway)(nil)

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Gateway{
		client: &nethttp.Client{
			Timeout: timeout,
			// A redirect is reported as the endpoint's response, not followed.
			CheckRedirect: func(*nethttp.Request, []*nethttp.Request) error {
				return nethttp.ErrUseLastResponse
			},
		},
	}
}

func (g *Gateway) SendWebhookEvent(
	ctx context.Context,
	input dto.SendWebhookInput,
) (dto.SendWebhookOutput, *apperrors.AppError) {
	if g == nil || g.client == nil {
		return dto.SendWebhookOutput{}, apperrors.NewInternal(
			"webhook_gateway_not_configured",
			"webhook gateway is not configured",
			nil,
		)
	}
	secret := input.Secret
	if strings.TrimSpace(secret) == "" {
		return dto.SendWebhookOutput{}, apperrors.NewInternal(
			"webhook_secret_missing",
			"webhook subscription secret is missing",
			map[string]any{"delivery_id": input.DeliveryID},
		)
	}

	body := input.Payload
	if len(body) == 0 {
		return dto.SendWebhookOutput{}, apperrors.NewValidation(
			"webhook_payload_missing",
			"webhook payload is required",
			nil,
		)
	}
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return dto.SendWebhookOutput{}, apperrors.NewValidation(
			"webhook_event_id_missing",
			"webhook event id is required",
			nil,
		)
	}
	eventType := strings.TrimSpace(input.EventType)
	if eventType == "" {
		return dto.SendWebhookOutput{}, apperrors.NewValidation(
			"webhook_event_type_missing",
			"webhook event type is required",
			nil,
		)
	}
	destinationURL := strings.TrimSpace(input.DestinationURL)
	if destinationURL == "" {
		return dto.SendWebhookOutput{}, apperrors.NewValidation(
			"webhook_destination_missing",
			"webhook destination url is required",
			map[string]any{"field": "destination_url"},
		)
	}
	deliveryID := strings.TrimSpace(input.DeliveryID)
	if deliveryID == "" {
		deliveryID = eventID
	}
	deliveryAttempt := input.DeliveryAttempt
	if deliveryAttempt <= 0 {
		deliveryAttempt = 1
	}

	request, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, destinationURL, bytes.NewReader(body))
	if err != nil {
		return dto.SendWebhookOutput{}, apperrors.NewInternal(
			"webhook_request_build_failed",
			"failed to build webhook request",
			map[string]any{"error": err.Error()},
		)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("X-TaskFlow-Event", eventType)
	request.Header.Set("X-TaskFlow-Event-Id", eventID)
	request.Header.Set("X-TaskFlow-Delivery-Id", deliveryID)
	request.Header.Set("X-TaskFlow-Delivery-Attempt", strconv.Itoa(deliveryAttempt))
	request.Header.Set("Idempotency-Key", deliveryID)
	request.Header.Set("X-TaskFlow-Signature", BuildSignatureHeader(secret, body))

	response, err := g.client.Do(request)
	if err != nil {
		return dto.SendWebhookOutput{}, apperrors.NewInternal(
			"webhook_delivery_failed",
			"failed to send webhook request",
			map[string]any{"error": err.Error()},
		)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		bodyPreview := ""
		raw, readErr := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		if readErr == nil {
			bodyPreview = strings.TrimSpace(string(raw))
		}
		return dto.SendWebhookOutput{StatusCode: response.StatusCode}, apperrors.NewInternal(
			"webhook_delivery_failed",
			"webhook endpoint returned non-2xx status",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        bodyPreview,
			},
		)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBodyBytes))
	return dto.SendWebhookOutput{StatusCode: response.StatusCode}, nil
}

func webhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildSignatureHeader renders the X-TaskFlow-Signature value receivers recompute.
func BuildSignatureHeader(secret string, body []byte) string {
	return fmt.Sprintf("sha256=%s", webhookSignature(secret, body))
}

// VerifySignatureHeader compares in constant time.
func VerifySignatureHeader(secret string, body []byte, header string) bool {
	expected := BuildSignatureHeader(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}
