package di

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskflow/internal/adapters/inbound/http/controllers"
	"taskflow/internal/adapters/inbound/http/middleware"
	httpRouter "taskflow/internal/adapters/inbound/http/router"
	"taskflow/internal/adapters/outbound/credentials"
	"taskflow/internal/adapters/outbound/docs"
	persistencememory "taskflow/internal/adapters/outbound/persistence/memory"
	postgresqlbootstrap "taskflow/internal/adapters/outbound/persistence/postgresql/bootstrap"
	postgresqlshared "taskflow/internal/adapters/outbound/persistence/postgresql/shared"
	postgresqltoken "taskflow/internal/adapters/outbound/persistence/postgresql/token"
	postgresqlwebhookdelivery "taskflow/internal/adapters/outbound/persistence/postgresql/webhookdelivery"
	postgresqlwebhooksubscription "taskflow/internal/adapters/outbound/persistence/postgresql/webhooksubscription"
	ratelimitmemory "taskflow/internal/adapters/outbound/ratelimit/memory"
	ratelimitredis "taskflow/internal/adapters/outbound/ratelimit/redis"
	upstreamhttp "taskflow/internal/adapters/outbound/upstream/http"
	webhookhttp "taskflow/internal/adapters/outbound/webhook/http"
	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/application/use_cases"
	valueobjects "taskflow/internal/domain/value_objects"
	"taskflow/internal/infrastructure/config"
	"taskflow/internal/infrastructure/httpserver"
	"taskflow/internal/infrastructure/metrics"
	"taskflow/internal/infrastructure/webhook"
)

const (
	rateWindowSweepInterval    = time.Minute
	deliveryQueueSweepInterval = 5 * time.Minute
)

type Container struct {
	Database                     *sql.DB
	Server                       *httpserver.Server
	Handler                      http.Handler
	Metrics                      *metrics.Metrics
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	Publisher                    *webhook.Publisher
	WebhookWorker                *webhook.Worker
	RateWindowSweeper            *ratelimitmemory.Store
	DeliveryQueueSweeper         *persistencememory.WebhookDeliveryQueue
	deliveryRetention            time.Duration
	closers                      []io.Closer
}

// Close releases pools and clients opened while building.
func (c Container) Close(logger *log.Logger) {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && logger != nil {
			logger.Printf("resource close warning error=%v", err)
		}
	}
}

type persistence struct {
	db                *sql.DB
	tokens            portsout.TokenRepository
	subscriptions     portsout.WebhookSubscriptionRepository
	deliveries        portsout.WebhookDeliveryRepository
	deliveryReadModel portsout.WebhookDeliveryReadModel
	bootstrap         portsout.PersistenceBootstrapGateway
	deliveryQueue     *persistencememory.WebhookDeliveryQueue
}

type RateWindowStoreBuilder func(cfg config.Config, logger *log.Logger) (portsout.RateWindowStore, io.Closer, error)

var rateWindowStoreBuilders = map[string]RateWindowStoreBuilder{
	config.RateLimitStoreMemory: func(_ config.Config, logger *log.Logger) (portsout.RateWindowStore, io.Closer, error) {
		return ratelimitmemory.NewStore(ratelimitmemory.DefaultShardCount, logger), nil, nil
	},
	config.RateLimitStoreRedis: func(cfg config.Config, _ *log.Logger) (portsout.RateWindowStore, io.Closer, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := ratelimitredis.NewClient(ctx, ratelimitredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return ratelimitredis.NewStore(client, ratelimitredis.DefaultKeyPrefix), client, nil
	},
}

var rateWindowStoreBuildersMu sync.RWMutex

func RegisterRateWindowStoreBuilder(name string, builder RateWindowStoreBuilder) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))
	if normalizedName == "" || builder == nil {
		return
	}

	rateWindowStoreBuildersMu.Lock()
	defer rateWindowStoreBuildersMu.Unlock()
	rateWindowStoreBuilders[normalizedName] = builder
}

// BuildServer wires the gateway. The dispatcher worker is included when dispatch
// runs in-process; main decides when to start it.
func BuildServer(cfg config.Config, logger *log.Logger) (Container, error) {
	registry := metrics.New()

	store, err := buildPersistence(cfg, logger)
	if err != nil {
		return Container{}, err
	}
	container := Container{
		Database:                     store.db,
		Metrics:                      registry,
		InitializePersistenceUseCase: use_cases.NewInitializePersistenceUseCase(store.bootstrap),
		DeliveryQueueSweeper:         store.deliveryQueue,
		deliveryRetention:            cfg.Webhook.DeliveryRetention,
	}
	if store.db != nil {
		container.closers = append(container.closers, store.db)
	}

	rateStore, rateCloser, err := buildRateWindowStore(cfg, logger)
	if err != nil {
		container.Close(logger)
		return Container{}, err
	}
	if rateCloser != nil {
		container.closers = append(container.closers, rateCloser)
	}
	if sweeper, ok := rateStore.(*ratelimitmemory.Store); ok {
		container.RateWindowSweeper = sweeper
	}

	allowlist, appErr := valueobjects.NewHostAllowlist(cfg.Webhook.HostAllowlist, cfg.Webhook.AllowAnyHost)
	if appErr != nil {
		container.Close(logger)
		return Container{}, fmt.Errorf("webhook host allowlist: %s", appErr.Message)
	}
	upstreamConfig := upstreamhttp.Config{BaseURL: cfg.UpstreamBaseURL, Timeout: cfg.UpstreamTimeout}
	resourceHandler, err := upstreamhttp.NewResourceHandler(upstreamConfig)
	if err != nil {
		container.Close(logger)
		return Container{}, err
	}
	credentialVerifier, err := upstreamhttp.NewCredentialVerifier(upstreamConfig)
	if err != nil {
		container.Close(logger)
		return Container{}, err
	}

	clock := use_cases.NewSystemClock()
	generator := credentials.NewGenerator()

	fanOutUseCase := use_cases.NewFanOutDomainEventUseCase(
		store.subscriptions,
		store.deliveries,
		cfg.Webhook.MaxAttempts,
		clock,
	)
	publisher := webhook.NewPublisher(cfg.Webhook.EventBuffer, fanOutUseCase, registry, logger)
	container.Publisher = publisher

	issueTokenUseCase := use_cases.NewIssueTokenUseCase(store.tokens, generator, clock, cfg.TokenTTL)
	validateTokenUseCase := use_cases.NewValidateTokenUseCase(store.tokens, generator, clock)
	admitUseCase := use_cases.NewAdmitRequestUseCase(
		validateTokenUseCase,
		use_cases.NewCheckRateLimitUseCase(rateStore, clock),
		dto.RateLimitRule{Ceiling: cfg.IPRateLimit.Requests, Window: cfg.IPRateLimit.Window},
		dto.RateLimitRule{Ceiling: cfg.TokenRateLimit.Requests, Window: cfg.TokenRateLimit.Window},
		clock,
	)

	healthController := controllers.NewHealthController(use_cases.NewGetHealthUseCase(store.bootstrap), logger)
	swaggerController := controllers.NewSwaggerController(
		use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath)),
		logger,
	)
	authController := controllers.NewAuthController(
		use_cases.NewLoginUseCase(credentialVerifier, issueTokenUseCase),
		use_cases.NewRevokeTokenUseCase(store.tokens, generator, clock),
		logger,
	)
	resourceController := controllers.NewResourceController(
		use_cases.NewRouteResourceRequestUseCase(resourceHandler, publisher, clock),
		logger,
	)
	subscriptionsController := controllers.NewWebhookSubscriptionsController(
		use_cases.NewCreateWebhookSubscriptionUseCase(store.subscriptions, generator, allowlist, clock),
		use_cases.NewListWebhookSubscriptionsUseCase(store.subscriptions),
		use_cases.NewGetWebhookSubscriptionUseCase(store.subscriptions),
		use_cases.NewUpdateWebhookSubscriptionEventsUseCase(store.subscriptions, clock),
		use_cases.NewDeactivateWebhookSubscriptionUseCase(store.subscriptions, clock),
		logger,
	)
	deliveriesController := controllers.NewWebhookDeliveriesController(
		use_cases.NewGetWebhookDeliveryOverviewUseCase(store.subscriptions, store.deliveryReadModel, clock),
		use_cases.NewListWebhookDeliveriesUseCase(store.subscriptions, store.deliveryReadModel),
		use_cases.NewRequeueWebhookDeliveryUseCase(store.subscriptions, store.deliveries, clock),
		logger,
	)

	admission := middleware.NewAdmission(admitUseCase, middleware.NewClientIPResolver(cfg.TrustedProxies), registry, logger)
	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:               healthController,
		SwaggerController:              swaggerController,
		AuthController:                 authController,
		ResourceController:             resourceController,
		WebhookSubscriptionsController: subscriptionsController,
		WebhookDeliveriesController:    deliveriesController,
		Admission:                      admission,
		Recorder:                       registry,
		MetricsHandler:                 registry.Handler(),
	})
	container.Handler = router
	container.Server = httpserver.New(cfg.Address(), router, logger)

	if cfg.Webhook.DispatchInProcess {
		container.WebhookWorker = buildWebhookWorker(cfg, store.deliveries, registry, logger)
	}

	return container, nil
}

// BuildWebhookDispatcher wires the delivery worker against shared storage. Its server
// only exposes /metrics.
func BuildWebhookDispatcher(cfg config.Config, logger *log.Logger) (Container, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		return Container{}, fmt.Errorf("webhook dispatcher requires shared storage, got storage driver %s", cfg.StorageDriver)
	}

	registry := metrics.New()
	store, err := buildPersistence(cfg, logger)
	if err != nil {
		return Container{}, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", registry.Handler())

	container := Container{
		Database:                     store.db,
		Server:                       httpserver.New(cfg.Address(), mux, logger),
		Handler:                      mux,
		Metrics:                      registry,
		InitializePersistenceUseCase: use_cases.NewInitializePersistenceUseCase(store.bootstrap),
		WebhookWorker:                buildWebhookWorker(cfg, store.deliveries, registry, logger),
	}
	if store.db != nil {
		container.closers = append(container.closers, store.db)
	}
	return container, nil
}

func buildWebhookWorker(
	cfg config.Config,
	deliveries portsout.WebhookDeliveryRepository,
	registry *metrics.Metrics,
	logger *log.Logger,
) *webhook.Worker {
	dispatchUseCase := use_cases.NewDispatchWebhookDeliveriesUseCase(
		deliveries,
		webhookhttp.NewGateway(webhookhttp.Config{Timeout: cfg.Webhook.Timeout}),
	)
	return webhook.NewWorker(webhook.WorkerConfig{
		Enabled:                    cfg.Webhook.Enabled,
		PollInterval:               cfg.Webhook.PollInterval,
		BatchSize:                  cfg.Webhook.BatchSize,
		WorkerID:                   cfg.Webhook.WorkerID,
		LeaseDuration:              cfg.Webhook.LeaseDuration,
		MaxInFlight:                cfg.Webhook.MaxInFlight,
		MaxInFlightPerSubscription: cfg.Webhook.MaxInFlightPerSubscription,
		RetrySchedule:              cfg.Webhook.RetrySchedule,
	}, dispatchUseCase, registry, logger)
}

func buildPersistence(cfg config.Config, logger *log.Logger) (persistence, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		queue := persistencememory.NewWebhookDeliveryQueue()
		return persistence{
			tokens:            persistencememory.NewTokenRepository(),
			subscriptions:     persistencememory.NewWebhookSubscriptionRepository(),
			deliveries:        queue,
			deliveryReadModel: queue,
			bootstrap:         persistencememory.BootstrapGateway{},
			deliveryQueue:     queue,
		}, nil
	case config.StorageDriverPostgres, "":
		db, err := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, postgresqlshared.DefaultPoolOptions(), logger)
		if err != nil {
			return persistence{}, err
		}
		return persistence{
			db:                db,
			tokens:            postgresqltoken.NewRepository(db),
			subscriptions:     postgresqlwebhooksubscription.NewRepository(db),
			deliveries:        postgresqlwebhookdelivery.NewRepository(db),
			deliveryReadModel: postgresqlwebhookdelivery.NewReadModel(db),
			bootstrap: postgresqlbootstrap.NewGateway(
				db,
				cfg.DatabaseURL,
				cfg.DatabaseTarget,
				cfg.MigrationsPath,
				logger,
			),
		}, nil
	default:
		return persistence{}, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

func buildRateWindowStore(cfg config.Config, logger *log.Logger) (portsout.RateWindowStore, io.Closer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.RateLimitStore))
	if name == "" {
		name = config.RateLimitStoreMemory
	}

	rateWindowStoreBuildersMu.RLock()
	builder, exists := rateWindowStoreBuilders[name]
	rateWindowStoreBuildersMu.RUnlock()
	if !exists {
		return nil, nil, fmt.Errorf("unsupported rate limit store: %s", cfg.RateLimitStore)
	}

	store, closer, err := builder(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limit store %s: %w", name, err)
	}
	return store, closer, nil
}

// StartBackground runs the publisher, the memory sweepers and, when wired, the
// in-process dispatcher. The returned wait blocks until the publisher has drained.
func (c Container) StartBackground(ctx context.Context, logger *log.Logger) (wait func()) {
	publisherDone := make(chan struct{})
	if c.Publisher != nil {
		go func() {
			defer close(publisherDone)
			c.Publisher.Run(ctx)
		}()
	} else {
		close(publisherDone)
	}

	if c.RateWindowSweeper != nil {
		go c.RateWindowSweeper.Run(ctx, rateWindowSweepInterval)
	}
	if c.DeliveryQueueSweeper != nil {
		go c.DeliveryQueueSweeper.Run(ctx, deliveryQueueSweepInterval, c.deliveryRetention)
	}

	if c.WebhookWorker != nil && c.WebhookWorker.Enabled() {
		if logger != nil {
			logger.Printf("webhook dispatcher running in-process")
		}
		go c.WebhookWorker.Start(ctx)
	}

	return func() { <-publisherDone }
}
