package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var dashCache *cache.LRUCache[core.Dashboard]
	cacheManager := cache.NewManager(logger)
	if cfg.DashboardCacheSize > 0 {
		dashCache = cache.NewLRUCache[core.Dashboard](cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
		cacheManager.Register(dashCache)
		cacheManager.StartCleanup(time.Minute)
	}
	defer cacheManager.Stop()

	var dashboard *services.DashboardService
	if dashCache != nil {
		dashboard = services.NewDashboardService(repo, dashCache, logger)
	} else {
		dashboard = services.NewDashboardService(repo, nil, logger)
	}

	opts := services.RecordOptions{Invalidator: dashboard, Logger: logger}
	if publisher := connectPublisher(cfg, logger); publisher != nil {
		defer publisher.Close()
		opts.Publisher = publisher
	}
	records := services.NewRecordService(repo, opts)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:      auth.NewService(repo, auth.Options{SessionTTL: cfg.SessionTTL, Logger: logger}),
		Records:   records,
		Dashboard: dashboard,
		Activity:  services.NewActivityService(repo),
		Database:  repo,
	}, apphttp.Options{
		CookieSecure:       cfg.CookieSecure(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		records.Close()
	})

	sweeper := worker.NewSessionSweeper(repo, cfg.SessionSweepInterval, logger)
	go sweeper.Run(ctx)

	logger.Info("Starting fintrack server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"amqp_enabled", opts.Publisher != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// connectPublisher dials the broker when AMQP is configured. A broker that is
// down at startup disables record events instead of failing the server.
func connectPublisher(cfg *config.Config, logger *applog.Logger) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP not configured, record events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, record events disabled",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		return nil
	}
	logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
