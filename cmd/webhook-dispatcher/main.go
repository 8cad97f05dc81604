package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskflow/internal/application/dto"
	"taskflow/internal/infrastructure/config"
	"taskflow/internal/infrastructure/di"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	if envErr := config.LoadDotEnv(); envErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", envErr.Code, envErr.Message, envErr.Metadata)
		os.Exit(1)
	}
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}
	if dispatcherCfgErr := validateWebhookDispatcherConfig(cfg); dispatcherCfgErr != nil {
		logger.Printf(
			"webhook dispatcher config error code=%s message=%s metadata=%v",
			dispatcherCfgErr.Code,
			dispatcherCfgErr.Message,
			dispatcherCfgErr.Metadata,
		)
		os.Exit(1)
	}

	container, buildErr := di.BuildWebhookDispatcher(cfg, logger)
	if buildErr != nil {
		logger.Printf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer container.Close(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("webhook dispatcher persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"webhook dispatcher persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("webhook dispatcher persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	if container.WebhookWorker == nil || !container.WebhookWorker.Enabled() {
		logger.Printf("webhook dispatcher startup failed code=WEBHOOK_WORKER_NOT_ENABLED message=webhook worker is not enabled")
		os.Exit(1)
	}

	go container.WebhookWorker.Start(ctx)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- container.Server.Start()
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Printf("webhook dispatcher metrics listener failed: %v", err)
		}
		<-ctx.Done()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("webhook dispatcher metrics shutdown warning error=%v", err)
		}
	}
	logger.Printf("webhook dispatcher stopped")
}

func validateWebhookDispatcherConfig(cfg config.Config) *config.ConfigError {
	if !cfg.Webhook.Enabled {
		return &config.ConfigError{
			Code:    "CONFIG_WEBHOOK_DISABLED",
			Message: "WEBHOOK_ENABLED must be true for webhook dispatcher runtime",
		}
	}

	if cfg.StorageDriver != config.StorageDriverPostgres {
		return &config.ConfigError{
			Code:    "CONFIG_WEBHOOK_STORAGE_UNSHARED",
			Message: "STORAGE_DRIVER must be postgres for webhook dispatcher runtime",
			Metadata: map[string]string{
				"storage_driver": cfg.StorageDriver,
			},
		}
	}

	return nil
}
