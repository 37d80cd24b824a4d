package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opscale/warehouse-scheduler/internal/api"
	"github.com/opscale/warehouse-scheduler/internal/config"
	"github.com/opscale/warehouse-scheduler/internal/core"
	"github.com/opscale/warehouse-scheduler/internal/db"
	"github.com/opscale/warehouse-scheduler/internal/logging"
	"github.com/opscale/warehouse-scheduler/internal/metrics"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"
)

// scheduler-daemon is the self-contained deployment: it serves the operator
// API, keeps the trigger slots as in-process cron jobs, and runs a
// reconciler pass whenever one fires.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("scheduler-daemon"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	sfdb, err := warehouse.OpenSnowflake(ctx, cfg.SnowflakeDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to snowflake")
	}
	defer sfdb.Close()

	controller := warehouse.NewSnowflakeController(sfdb)

	// The trigger job closes over services, which are built after the
	// trigger service they depend on.
	var services *core.Services
	triggers := warehouse.NewLocalTriggerService(func(trigger string) {
		runCtx, runCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer runCancel()

		payload, err := services.Reconciler.Run(runCtx)
		outcome := "success"
		if err != nil {
			outcome = "error"
			var ce *core.Error
			if errors.As(err, &ce) {
				outcome = string(ce.Kind)
			}
			logger.Error().Err(err).Str("trigger", trigger).Msg("reconciler pass failed")
		}
		metrics.ReconcilerRuns.WithLabelValues(outcome).Inc()
		metrics.WarehousesUpdated.Add(float64(payload.WarehousesUpdated))
	})
	services = core.NewServices(pool, controller, triggers, cfg.DefaultTimezone, nil, logger)

	if err := services.TriggerPlan.Sync(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial trigger sync failed, retrying on next edit")
	}
	triggers.Start()
	defer triggers.Stop()

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      api.NewServer(logger, pool, services),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsListenAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting scheduler API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
}
