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
	logger.Printf(
		"gateway config storage_driver=%s rate_limit_store=%s webhook_enabled=%t dispatch_in_process=%t",
		cfg.StorageDriver,
		cfg.RateLimitStore,
		cfg.Webhook.Enabled,
		cfg.Webhook.DispatchInProcess,
	)

	container, buildErr := di.BuildServer(cfg, logger)
	if buildErr != nil {
		logger.Printf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer container.Close(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("persistence initialization starting storage_driver=%s database_target=%s", cfg.StorageDriver, cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("persistence initialization completed storage_driver=%s", cfg.StorageDriver)

	// Cancelled only after the server has drained.
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	waitBackground := container.StartBackground(backgroundCtx, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- container.Server.Start()
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Printf("server startup failed: %v", err)
			stopBackground()
			waitBackground()
			container.Close(logger)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown failed: %v", err)
		}
		if err := <-serverErrCh; err != nil {
			logger.Printf("server stopped with error: %v", err)
		}

		stopBackground()
		waitBackground()
		logger.Printf("server stopped pending_events=%d", container.Publisher.Pending())
	}
}
