package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultIPRequests               = 100
	defaultIPWindow                 = 60 * time.Second
	defaultTokenRequests            = 1000
	defaultTokenWindow              = 3600 * time.Second
	defaultTokenTTL                 = 24 * time.Hour
	defaultUpstreamTimeout          = 10 * time.Second
	defaultWebhookPollInterval      = time.Second
	defaultWebhookBatchSize         = 50
	defaultWebhookLease             = 30 * time.Second
	defaultWebhookTimeout           = 5 * time.Second
	defaultWebhookMaxAttempts       = 5
	defaultWebhookMaxInFlight       = 16
	defaultWebhookMaxInFlightPerSub = 2
	defaultWebhookEventBuffer       = 1024
	defaultWebhookDeliveryRetention = 24 * time.Hour
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

var defaultWebhookRetrySchedule = []time.Duration{
	time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type RateRule struct {
	Requests int
	Window   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type WebhookConfig struct {
	Enabled                    bool
	DispatchInProcess          bool
	PollInterval               time.Duration
	BatchSize                  int
	WorkerID                   string
	LeaseDuration              time.Duration
	Timeout                    time.Duration
	MaxAttempts                int
	RetrySchedule              []time.Duration
	MaxInFlight                int
	MaxInFlightPerSubscription int
	EventBuffer                int
	HostAllowlist              []string
	AllowAnyHost               bool
	DeliveryRetention          time.Duration
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	StorageDriver            string
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string
	RateLimitStore           string
	Redis                    RedisConfig
	IPRateLimit              RateRule
	TokenRateLimit           RateRule
	TokenTTL                 time.Duration
	UpstreamBaseURL          string
	UpstreamTimeout          time.Duration
	TrustedProxies           []netip.Prefix
	Webhook                  WebhookConfig
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) *ConfigError {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return &ConfigError{
				Code:     "CONFIG_DOTENV_INVALID",
				Message:  "failed to load env file",
				Metadata: map[string]string{"path": path, "error": err.Error()},
			}
		}
	}
	return nil
}

func LoadConfig() (Config, *ConfigError) {
	storageDriver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	if storageDriver == "" {
		storageDriver = StorageDriverPostgres
	}
	if storageDriver != StorageDriverPostgres && storageDriver != StorageDriverMemory {
		return Config{}, &ConfigError{
			Code:     "CONFIG_STORAGE_DRIVER_INVALID",
			Message:  "STORAGE_DRIVER must be postgres or memory",
			Metadata: map[string]string{"value": storageDriver},
		}
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	databaseTarget := ""
	if storageDriver == StorageDriverPostgres {
		if databaseURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_DATABASE_URL_REQUIRED",
				Message: "DATABASE_URL is required",
			}
		}

		parsedTarget, parseErr := parseDatabaseTarget(databaseURL)
		if parseErr != nil {
			return Config{}, parseErr
		}
		databaseTarget = parsedTarget
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	openAPISpecPath := os.Getenv("OPENAPI_SPEC_PATH")
	if openAPISpecPath == "" {
		openAPISpecPath = defaultOpenAPISpec
	}

	migrationsPath := strings.TrimSpace(os.Getenv("MIGRATIONS_PATH"))
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}

	rateLimitStore := strings.ToLower(strings.TrimSpace(os.Getenv("RATE_LIMIT_STORE")))
	if rateLimitStore == "" {
		rateLimitStore = RateLimitStoreMemory
	}
	if rateLimitStore != RateLimitStoreMemory && rateLimitStore != RateLimitStoreRedis {
		return Config{}, &ConfigError{
			Code:     "CONFIG_RATE_LIMIT_STORE_INVALID",
			Message:  "RATE_LIMIT_STORE must be memory or redis",
			Metadata: map[string]string{"value": rateLimitStore},
		}
	}

	redisConfig, redisErr := loadRedisConfig(rateLimitStore == RateLimitStoreRedis)
	if redisErr != nil {
		return Config{}, redisErr
	}

	ipRequests, cfgErr := positiveIntEnv("RATE_LIMIT_IP_REQUESTS", defaultIPRequests)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	ipWindow, cfgErr := secondsEnv("RATE_LIMIT_IP_WINDOW_SECONDS", defaultIPWindow)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	tokenRequests, cfgErr := positiveIntEnv("RATE_LIMIT_TOKEN_REQUESTS", defaultTokenRequests)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	tokenWindow, cfgErr := secondsEnv("RATE_LIMIT_TOKEN_WINDOW_SECONDS", defaultTokenWindow)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	tokenTTL, cfgErr := secondsEnv("TOKEN_TTL_SECONDS", defaultTokenTTL)
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	upstreamBaseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if upstreamBaseURL == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_UPSTREAM_BASE_URL_REQUIRED",
			Message: "UPSTREAM_BASE_URL is required",
		}
	}
	if parsed, err := url.Parse(upstreamBaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_UPSTREAM_BASE_URL_INVALID",
			Message: "UPSTREAM_BASE_URL must be an absolute http(s) URL",
		}
	}
	upstreamTimeout, cfgErr := secondsEnv("UPSTREAM_TIMEOUT_SECONDS", defaultUpstreamTimeout)
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	trustedProxies, cfgErr := parseTrustedProxies(os.Getenv("TRUSTED_PROXY_CIDRS"))
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	webhookConfig, cfgErr := loadWebhookConfig(storageDriver)
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	return Config{
		Port:                     port,
		OpenAPISpecPath:          openAPISpecPath,
		ShutdownTimeout:          defaultShutdownTimeout,
		StorageDriver:            storageDriver,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           migrationsPath,
		RateLimitStore:           rateLimitStore,
		Redis:                    redisConfig,
		IPRateLimit:              RateRule{Requests: ipRequests, Window: ipWindow},
		TokenRateLimit:           RateRule{Requests: tokenRequests, Window: tokenWindow},
		TokenTTL:                 tokenTTL,
		UpstreamBaseURL:          upstreamBaseURL,
		UpstreamTimeout:          upstreamTimeout,
		TrustedProxies:           trustedProxies,
		Webhook:                  webhookConfig,
	}, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func loadRedisConfig(required bool) (RedisConfig, *ConfigError) {
	redisConfig := RedisConfig{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if required && redisConfig.Addr == "" {
		return RedisConfig{}, &ConfigError{
			Code:    "CONFIG_REDIS_ADDR_REQUIRED",
			Message: "REDIS_ADDR is required when RATE_LIMIT_STORE=redis",
		}
	}

	rawDB := strings.TrimSpace(os.Getenv("REDIS_DB"))
	if rawDB != "" {
		db, err := strconv.Atoi(rawDB)
		if err != nil || db < 0 {
			return RedisConfig{}, &ConfigError{
				Code:    "CONFIG_REDIS_DB_INVALID",
				Message: "REDIS_DB must be a non-negative integer",
			}
		}
		redisConfig.DB = db
	}
	return redisConfig, nil
}

func loadWebhookConfig(storageDriver string) (WebhookConfig, *ConfigError) {
	enabled, cfgErr := boolEnv("WEBHOOK_ENABLED", true)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	dispatchInProcess, cfgErr := boolEnv("WEBHOOK_DISPATCH_IN_PROCESS", false)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	allowAnyHost, cfgErr := boolEnv("WEBHOOK_ALLOW_ANY_HOST", false)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	// A memory queue is only reachable from the process that owns it.
	if storageDriver == StorageDriverMemory {
		dispatchInProcess = true
	}

	pollInterval, cfgErr := secondsEnv("WEBHOOK_POLL_INTERVAL_SECONDS", defaultWebhookPollInterval)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	batchSize, cfgErr := positiveIntEnv("WEBHOOK_BATCH_SIZE", defaultWebhookBatchSize)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	leaseDuration, cfgErr := secondsEnv("WEBHOOK_LEASE_SECONDS", defaultWebhookLease)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	timeout, cfgErr := secondsEnv("WEBHOOK_TIMEOUT_SECONDS", defaultWebhookTimeout)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	maxAttempts, cfgErr := positiveIntEnv("WEBHOOK_MAX_ATTEMPTS", defaultWebhookMaxAttempts)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	maxInFlight, cfgErr := positiveIntEnv("WEBHOOK_MAX_IN_FLIGHT", defaultWebhookMaxInFlight)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	maxInFlightPerSubscription, cfgErr := positiveIntEnv(
		"WEBHOOK_MAX_IN_FLIGHT_PER_SUBSCRIPTION",
		defaultWebhookMaxInFlightPerSub,
	)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	deliveryRetention, cfgErr := secondsEnv("WEBHOOK_DELIVERY_RETENTION_SECONDS", defaultWebhookDeliveryRetention)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	eventBuffer, cfgErr := positiveIntEnv("WEBHOOK_EVENT_BUFFER", defaultWebhookEventBuffer)
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}
	retrySchedule, cfgErr := parseRetrySchedule(os.Getenv("WEBHOOK_RETRY_SCHEDULE"))
	if cfgErr != nil {
		return WebhookConfig{}, cfgErr
	}

	workerID := strings.TrimSpace(os.Getenv("WEBHOOK_WORKER_ID"))
	if workerID == "" {
		workerID = defaultWorkerID()
	}

	return WebhookConfig{
		Enabled:                    enabled,
		DispatchInProcess:          dispatchInProcess,
		PollInterval:               pollInterval,
		BatchSize:                  batchSize,
		WorkerID:                   workerID,
		LeaseDuration:              leaseDuration,
		Timeout:                    timeout,
		MaxAttempts:                maxAttempts,
		RetrySchedule:              retrySchedule,
		MaxInFlight:                maxInFlight,
		MaxInFlightPerSubscription: maxInFlightPerSubscription,
		EventBuffer:                eventBuffer,
		HostAllowlist:              splitList(os.Getenv("WEBHOOK_HOST_ALLOWLIST")),
		AllowAnyHost:               allowAnyHost,
		DeliveryRetention:          deliveryRetention,
	}, nil
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

// parseRetrySchedule accepts Go durations separated by commas, e.g. "1m,5m,30m".
func parseRetrySchedule(raw string) ([]time.Duration, *ConfigError) {
	entries := splitList(raw)
	if len(entries) == 0 {
		return append([]time.Duration(nil), defaultWebhookRetrySchedule...), nil
	}

	schedule := make([]time.Duration, 0, len(entries))
	for _, entry := range entries {
		delay, err := time.ParseDuration(entry)
		if err != nil || delay <= 0 {
			return nil, &ConfigError{
				Code:     "CONFIG_WEBHOOK_RETRY_SCHEDULE_INVALID",
				Message:  "WEBHOOK_RETRY_SCHEDULE must be a comma separated list of positive durations",
				Metadata: map[string]string{"entry": entry},
			}
		}
		schedule = append(schedule, delay)
	}
	return schedule, nil
}

func positiveIntEnv(key string, fallback int) (int, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a positive integer",
			Metadata: map[string]string{"value": raw},
		}
	}
	return value, nil
}

func secondsEnv(key string, fallback time.Duration) (time.Duration, *ConfigError) {
	seconds, cfgErr := positiveIntEnv(key, int(fallback/time.Second))
	if cfgErr != nil {
		return 0, cfgErr
	}
	return time.Duration(seconds) * time.Second, nil
}

func boolEnv(key string, fallback bool) (bool, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a boolean",
			Metadata: map[string]string{"value": raw},
		}
	}
	return value, nil
}

// parseTrustedProxies accepts CIDR ranges and bare addresses, which are widened to a
// single-host prefix.
func parseTrustedProxies(raw string) ([]netip.Prefix, *ConfigError) {
	prefixes := []netip.Prefix{}
	for _, entry := range splitList(raw) {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, invalidTrustedProxy(entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, invalidTrustedProxy(entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func invalidTrustedProxy(entry string) *ConfigError {
	return &ConfigError{
		Code:     "CONFIG_TRUSTED_PROXY_CIDRS_INVALID",
		Message:  "TRUSTED_PROXY_CIDRS must be a comma separated list of CIDR ranges or addresses",
		Metadata: map[string]string{"value": entry},
	}
}

func splitList(raw string) []string {
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func defaultWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil || strings.TrimSpace(hostname) == "" {
		hostname = "taskflow"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}
