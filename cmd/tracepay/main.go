package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"tracepay/internal/amqp"
	"tracepay/internal/cache"
	"tracepay/internal/cli"
	apphttp "tracepay/internal/http"
	applog "tracepay/internal/log"
	"tracepay/internal/logo"
	"tracepay/internal/metrics"
	"tracepay/internal/worker"
)

const (
	logoMemoSize  = 1024
	logoMemoTTL   = time.Hour
	cleanupPeriod = 10 * time.Minute
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(os.Stdout)

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

	logos := logo.BuiltinResolvers(logoMemoSize, logoMemoTTL)
	memos := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	for _, r := range logos {
		memos.Register(r.Memo())
	}
	memos.StartCleanup(cleanupPeriod)
	defer memos.Stop()

	instanceID := newInstanceID()

	// Invalidations are optional; without a broker clears stay local.
	var (
		publisher  apphttp.InvalidationPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, cache clears will not be broadcast", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			amqpClient.OnReject(func(err error) { m.Invalidation(err, true) })
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue, "instance", instanceID)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:             logger,
		Metrics:            m,
		Gate:               stack.Gate,
		CacheTTL:           cfg.CacheTTL,
		Admin:              stack.Admin,
		Logos:              logos,
		Publisher:          publisher,
		InstanceID:         instanceID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	if amqpClient != nil {
		// Each instance applies clears made elsewhere to its own store.
		invalidations := worker.NewInvalidationWorker(stack.Gate, m,
			logger.WithComponent(applog.ComponentAMQP).Slog()).SkipOrigin(instanceID)
		go func() {
			if err := amqpClient.ConsumeBroadcast(ctx, invalidations.HandleInvalidation); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Cache invalidation consumer stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := stack.Admin.Warm(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Initial admin cache warm-up failed", "error", err)
		}
	}()

	logger.Info("Starting tracepay server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"api_base_url", stack.API.BaseURL(),
		"amqp_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// newInstanceID names this process on the invalidation bus.
func newInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "tracepay"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}
