package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tracepay/internal/amqp"
	"tracepay/internal/cli"
	applog "tracepay/internal/log"
	"tracepay/internal/metrics"
	"tracepay/internal/sheets/google"
	"tracepay/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(os.Stdout)
	logger = logger.WithComponent(applog.ComponentWorker)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Starting tracepay-worker")

	store := cli.MustOpenStore(context.Background(), logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close data backend", "error", err)
		}
	}()

	m := metrics.New()
	stack, err := cli.NewStack(cfg, logger, store.Store, m)
	if err != nil {
		logger.Error("Failed to wire services", "error", err)
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if metricsSrv == nil {
			return
		}
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", "error", err)
		}
	})

	if metricsSrv != nil {
		go func() {
			logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	running := 0

	if cfg.SharedInvalidationConsumer() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		amqpClient.OnReject(func(err error) { m.Invalidation(err, true) })

		invalidations := worker.NewInvalidationWorker(stack.Gate, m, logger.Slog())
		running++
		go func() {
			if err := amqpClient.ConsumeInvalidations(ctx, invalidations.HandleInvalidation); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Invalidation consumer stopped", "error", err)
			}
		}()
		logger.Info("Consuming cache invalidations", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Shared cache invalidation consumer disabled - needs AMQP_URL and the sqlite backend",
			"backend", cfg.DataBackend)
	}

	if cfg.ExportEnabled() {
		exporter, err := google.New(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		export := worker.NewExportWorker(stack.Admin, exporter, cfg.ExportInterval, m, logger.Slog())
		running++
		go func() {
			if err := export.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Regional export stopped", "error", err)
			}
		}()
		logger.Info("Exporting regional stats",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"interval", cfg.ExportInterval)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if running == 0 {
		logger.Warn("No worker tasks configured, waiting for shutdown")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
