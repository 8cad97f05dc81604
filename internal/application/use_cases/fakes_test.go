//go:build !integration

package use_cases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskflow/internal/application/dto"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now.UTC()}
}

func (c *fakeClock) NowUTC() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeCredentialGenerator struct {
	mu      sync.Mutex
	counter int
	err     *apperrors.AppError
}

func (g *fakeCredentialGenerator) NewToken() (string, *apperrors.AppError) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("tf_token_%d", g.counter), nil
}

func (g *fakeCredentialGenerator) NewSecret() (string, *apperrors.AppError) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("generated-secret-%016d", g.counter), nil
}

func (g *fakeCredentialGenerator) HashToken(token string) string {
	return "hash:" + token
}

type fakeTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]entities.Token
}

func newFakeTokenRepository() *fakeTokenRepository {
	return &fakeTokenRepository{tokens: map[string]entities.Token{}}
}

func (r *fakeTokenRepository) Create(_ context.Context, token entities.Token) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Hash] = token
	return nil
}

func (r *fakeTokenRepository) FindByHash(_ context.Context, hash string) (entities.Token, bool, *apperrors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[hash]
	return token, ok, nil
}

func (r *fakeTokenRepository) RevokeByHash(_ context.Context, hash string, revokedAt time.Time) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[hash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	token.RevokedAt = &revokedAt
	r.tokens[hash] = token
	return true, nil
}

// fakeRateWindowStore is a single-lock fixed-window counter.
type fakeRateWindowStore struct {
	mu      sync.Mutex
	windows map[string]*fakeRateWindow
	err     *apperrors.AppError
	calls   []string
}

type fakeRateWindow struct {
	start time.Time
	count int64
}

func newFakeRateWindowStore() *fakeRateWindowStore {
	return &fakeRateWindowStore{windows: map[string]*fakeRateWindow{}}
}

func (s *fakeRateWindowStore) CheckAndIncrement(
	_ context.Context,
	command dto.CheckRateLimitCommand,
) (dto.RateLimitDecision, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, command.Key)
	if s.err != nil {
		return dto.RateLimitDecision{}, s.err
	}

	window, ok := s.windows[command.Key]
	if !ok || !command.Now.Before(window.start.Add(command.Window)) {
		window = &fakeRateWindow{start: command.Now}
		s.windows[command.Key] = window
	}
	if window.count <= int64(command.Ceiling) {
		window.count++
	}

	resetAt := window.start.Add(command.Window)
	remaining := command.Ceiling - int(window.count)
	if remaining < 0 {
		remaining = 0
	}
	return dto.RateLimitDecision{
		Allowed:    window.count <= int64(command.Ceiling),
		Key:        command.Key,
		Limit:      command.Ceiling,
		Count:      window.count,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(command.Now),
	}, nil
}

type fakeSubscriptionRepository struct {
	mu            sync.Mutex
	subscriptions map[string]entities.WebhookSubscription
	listErr       *apperrors.AppError
}

func newFakeSubscriptionRepository(subscriptions ...entities.WebhookSubscription) *fakeSubscriptionRepository {
	repo := &fakeSubscriptionRepository{subscriptions: map[string]entities.WebhookSubscription{}}
	for _, subscription := range subscriptions {
		repo.subscriptions[subscription.ID] = subscription
	}
	return repo
}

func (r *fakeSubscriptionRepository) Create(_ context.Context, subscription entities.WebhookSubscription) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[subscription.ID] = subscription
	return nil
}

func (r *fakeSubscriptionRepository) FindByID(
	_ context.Context,
	id string,
) (entities.WebhookSubscription, bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subscription, ok := r.subscriptions[id]
	return subscription, ok, nil
}

func (r *fakeSubscriptionRepository) ListByOwner(
	_ context.Context,
	ownerUserID string,
) ([]entities.WebhookSubscription, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entities.WebhookSubscription{}
	for _, subscription := range r.subscriptions {
		if subscription.OwnerUserID == ownerUserID {
			out = append(out, subscription)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSubscriptionRepository) ListActiveByEventType(
	_ context.Context,
	eventType valueobjects.EventType,
) ([]entities.WebhookSubscription, *apperrors.AppError) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entities.WebhookSubscription{}
	for _, subscription := range r.subscriptions {
		if subscription.Subscribes(eventType) {
			out = append(out, subscription)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSubscriptionRepository) UpdateEventTypes(
	_ context.Context,
	id string,
	eventTypes []valueobjects.EventType,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subscription, ok := r.subscriptions[id]
	if !ok || !subscription.Active {
		return false, nil
	}
	subscription.EventTypes = eventTypes
	subscription.UpdatedAt = updatedAt
	r.subscriptions[id] = subscription
	return true, nil
}

func (r *fakeSubscriptionRepository) Deactivate(_ context.Context, id string, updatedAt time.Time) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subscription, ok := r.subscriptions[id]
	if !ok || !subscription.Active {
		return false, nil
	}
	subscription.Active = false
	subscription.UpdatedAt = updatedAt
	r.subscriptions[id] = subscription
	return true, nil
}

type fakeDeliveryMark struct {
	id            string
	attempts      int
	statusCode    int
	lastError     string
	nextAttemptAt time.Time
}

type fakeDeliveryRepository struct {
	mu         sync.Mutex
	enqueued   []dto.NewWebhookDelivery
	claimed    []dto.ClaimedWebhookDelivery
	claimLimit int
	delivered  []fakeDeliveryMark
	retried    []fakeDeliveryMark
	failed     []fakeDeliveryMark
	lostLease  map[string]bool
	requeue    dto.WebhookDeliveryMutationResult
	enqueueErr *apperrors.AppError
}

func (r *fakeDeliveryRepository) Enqueue(_ context.Context, deliveries []dto.NewWebhookDelivery) *apperrors.AppError {
	if r.enqueueErr != nil {
		return r.enqueueErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, deliveries...)
	return nil
}

func (r *fakeDeliveryRepository) ClaimDue(
	_ context.Context,
	_ time.Time,
	limit int,
	_ string,
	_ time.Time,
) ([]dto.ClaimedWebhookDelivery, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimLimit = limit
	return r.claimed, nil
}

func (r *fakeDeliveryRepository) MarkDelivered(
	_ context.Context,
	id string,
	_ string,
	attempts int,
	statusCode int,
	_ time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lostLease[id] {
		return false, nil
	}
	r.delivered = append(r.delivered, fakeDeliveryMark{id: id, attempts: attempts, statusCode: statusCode})
	return true, nil
}

func (r *fakeDeliveryRepository) MarkRetry(
	_ context.Context,
	id string,
	_ string,
	attempts int,
	nextAttemptAt time.Time,
	lastError string,
	statusCode int,
	_ time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lostLease[id] {
		return false, nil
	}
	r.retried = append(r.retried, fakeDeliveryMark{
		id:            id,
		attempts:      attempts,
		statusCode:    statusCode,
		lastError:     lastError,
		nextAttemptAt: nextAttemptAt,
	})
	return true, nil
}

func (r *fakeDeliveryRepository) MarkFailed(
	_ context.Context,
	id string,
	_ string,
	attempts int,
	lastError string,
	statusCode int,
	_ time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lostLease[id] {
		return false, nil
	}
	r.failed = append(r.failed, fakeDeliveryMark{id: id, attempts: attempts, statusCode: statusCode, lastError: lastError})
	return true, nil
}

func (r *fakeDeliveryRepository) RequeueFailed(
	_ context.Context,
	_ string,
	_ string,
	_ time.Time,
) (dto.WebhookDeliveryMutationResult, *apperrors.AppError) {
	return r.requeue, nil
}

type fakeWebhookEventGateway struct {
	mu       sync.Mutex
	results  map[string]dto.SendWebhookOutput
	errors   map[string]*apperrors.AppError
	inputs   []dto.SendWebhookInput
	delay    time.Duration
	inFlight map[string]int
	peak     map[string]int
	peakAll  int
	current  int
}

func (g *fakeWebhookEventGateway) SendWebhookEvent(
	_ context.Context,
	input dto.SendWebhookInput,
) (dto.SendWebhookOutput, *apperrors.AppError) {
	subscriptionKey := input.DestinationURL

	g.mu.Lock()
	g.inputs = append(g.inputs, input)
	if g.inFlight == nil {
		g.inFlight = map[string]int{}
		g.peak = map[string]int{}
	}
	g.inFlight[subscriptionKey]++
	g.current++
	if g.inFlight[subscriptionKey] > g.peak[subscriptionKey] {
		g.peak[subscriptionKey] = g.inFlight[subscriptionKey]
	}
	if g.current > g.peakAll {
		g.peakAll = g.current
	}
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight[subscriptionKey]--
	g.current--
	if appErr, ok := g.errors[input.DeliveryID]; ok {
		return g.results[input.DeliveryID], appErr
	}
	if output, ok := g.results[input.DeliveryID]; ok {
		return output, nil
	}
	return dto.SendWebhookOutput{StatusCode: 200}, nil
}

type fakeDeliveryReadModel struct {
	listed       []dto.WebhookDeliveryView
	lastStatus   string
	lastLimit    int
	lastSubIDs   []string
	overview     dto.WebhookDeliveryOverview
	overviewRuns int
}

func (m *fakeDeliveryReadModel) ListBySubscription(
	_ context.Context,
	_ string,
	status string,
	limit int,
) ([]dto.WebhookDeliveryView, *apperrors.AppError) {
	m.lastStatus = status
	m.lastLimit = limit
	return m.listed, nil
}

func (m *fakeDeliveryReadModel) GetOverview(
	_ context.Context,
	subscriptionIDs []string,
	_ time.Time,
) (dto.WebhookDeliveryOverview, *apperrors.AppError) {
	m.overviewRuns++
	m.lastSubIDs = subscriptionIDs
	return m.overview, nil
}

type fakeResourceHandler struct {
	result   dto.ResourceResult
	err      *apperrors.AppError
	requests []dto.ResourceRequest
}

func (h *fakeResourceHandler) Handle(_ context.Context, request dto.ResourceRequest) (dto.ResourceResult, *apperrors.AppError) {
	h.requests = append(h.requests, request)
	return h.result, h.err
}

type fakeDomainEventPublisher struct {
	mu     sync.Mutex
	events []dto.DomainEvent
}

func (p *fakeDomainEventPublisher) Publish(_ context.Context, event dto.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type fakeCredentialVerifier struct {
	userID string
	err    *apperrors.AppError
}

func (v *fakeCredentialVerifier) VerifyCredentials(_ context.Context, _ string, _ string) (string, *apperrors.AppError) {
	return v.userID, v.err
}
