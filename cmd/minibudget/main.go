package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"minibudget/internal/cli"
	"minibudget/internal/exchange"
	apphttp "minibudget/internal/http"
	"minibudget/internal/ledger"
	applog "minibudget/internal/log"
	"minibudget/internal/services"
	"minibudget/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	// Level comes from the environment before the full config is loaded
	logger := cli.SetupLogger(cli.EnvLogLevel())
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	blobs := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := blobs.Close(); err != nil {
			logger.Error("Failed to close storage backend", applog.FieldError, err)
		}
	}()

	gateway := storage.NewGateway(blobs.Store, cfg.StorageKey)
	store := ledger.New(gateway, logger)
	rates := exchange.NewWithTimeout(cfg.RatesBaseURL, cfg.RatesTimeout)

	opts := services.Options{
		StatementTTL: cfg.StatementCacheTTL,
		RatesBase:    cfg.RatesDefaultBase,
		Logger:       logger,
	}
	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
		opts.Publisher = amqpClient
	}
	svc := services.NewBudgetService(store, rates, opts)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	// The server answers while the ledger hydrates; /readyz reports 503 until then.
	g.Go(func() error {
		if err := svc.Start(gctx); err != nil {
			logger.Warn("Ledger started empty after load failure", applog.FieldError, err)
		}
		logger.Info("Ledger ready", applog.FieldCount, store.Len(), "key", gateway.Key())
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting minibudget server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"rates_url", rates.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cli.GracefulShutdown(gctx, logger, 30*time.Second, func(shutdownCtx context.Context) {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown error", applog.FieldError, err)
			}
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		return
	}
	logger.Info("Server stopped gracefully")
}
