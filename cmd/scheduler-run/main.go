package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/opscale/warehouse-scheduler/internal/config"
	"github.com/opscale/warehouse-scheduler/internal/core"
	"github.com/opscale/warehouse-scheduler/internal/db"
	"github.com/opscale/warehouse-scheduler/internal/logging"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"
)

// Exit codes mirror the failure taxonomy: 2 validation, 3 store conflict,
// 4 controller error.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("scheduler-run"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	sfdb, err := warehouse.OpenSnowflake(ctx, cfg.SnowflakeDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to snowflake")
	}
	defer sfdb.Close()

	controller := warehouse.NewSnowflakeController(sfdb)
	triggers := warehouse.NewSnowflakeTriggerService(sfdb)
	services := core.NewServices(pool, controller, triggers, cfg.DefaultTimezone, nil, logger)

	payload, err := services.Reconciler.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("reconciler pass failed")
		os.Exit(exitCode(err))
	}

	logger.Info().
		Int("candidates", payload.NumCandidates).
		Int("updated", payload.WarehousesUpdated).
		Msg("reconciler pass complete")
}

func exitCode(err error) int {
	var ce *core.Error
	if !errors.As(err, &ce) {
		return 1
	}
	switch {
	case ce.Validation():
		return 2
	case ce.Kind == core.ErrConflict || ce.Kind == core.ErrStoreUnavailable:
		return 3
	case ce.Kind == core.ErrControllerDown || ce.Kind == core.ErrControllerRejected:
		return 4
	}
	return 1
}
