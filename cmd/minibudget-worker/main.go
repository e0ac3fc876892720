package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"minibudget/internal/cli"
	"minibudget/internal/config"
	applog "minibudget/internal/log"
	"minibudget/internal/storage"
	"minibudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(cli.EnvLogLevel()).WithComponent(applog.ComponentWorker)
	logger.Info("Starting minibudget-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process, digests will stay empty")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	blobs := cli.InitBackend(ctx, logger, cfg)
	defer blobs.Close()

	digests := worker.NewDigestWorker(storage.NewGateway(blobs.Store, cfg.StorageKey), logger)

	// Catch up on anything missed while the worker was down
	if n, err := digests.RebuildAll(ctx); err != nil {
		logger.Error("Startup digest rebuild failed", applog.FieldError, err)
	} else {
		logger.Info("Startup digest rebuild completed", applog.FieldCount, n)
	}

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeLedgerEvents(gctx, digests.HandleLedgerEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("Skipping AMQP consumption, relying on periodic rebuilds")
	}

	g.Go(func() error {
		digests.Run(gctx, cfg.DigestInterval)
		return nil
	})

	var status *http.Server
	if cfg.WorkerStatusPort != "" {
		status = &http.Server{
			Addr:              ":" + cfg.WorkerStatusPort,
			Handler:           digests.StatusHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving digest status", "port", cfg.WorkerStatusPort)
			if err := status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		cli.GracefulShutdown(gctx, logger, 10*time.Second, func(shutdownCtx context.Context) {
			if status == nil {
				return
			}
			if err := status.Shutdown(shutdownCtx); err != nil {
				logger.Error("Status server shutdown error", applog.FieldError, err)
			}
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
}
