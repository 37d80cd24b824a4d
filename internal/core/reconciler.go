package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opscale/warehouse-scheduler/internal/model"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"

	"github.com/rs/zerolog"
)

// Clock supplies the current instant. The reconciler takes it as a
// dependency so runs can be replayed at fixed moments in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the machine clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ReconcilerService brings live warehouse state into agreement with the
// schedule. One of the periodic triggers invokes Run; the run log is the
// source of truth for how far reconciliation has progressed.
type ReconcilerService struct {
	db         DB
	controller warehouse.Controller
	runLog     *RunLogService
	settings   *SettingsService
	clock      Clock
	logger     zerolog.Logger
}

func NewReconcilerService(db DB, controller warehouse.Controller, runLog *RunLogService, settings *SettingsService, clock Clock, logger zerolog.Logger) *ReconcilerService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReconcilerService{
		db: db, controller: controller, runLog: runLog,
		settings: settings, clock: clock, logger: logger,
	}
}

// Run performs one reconciliation pass: select the schedule entries that
// became active since the last successful run, keep the latest per
// warehouse, diff each against live state, and apply the resulting script
// as one block. The outcome is always appended to the run log, failures
// included; a failed run is retried naturally because the next pass
// reconciles from the last success.
func (s *ReconcilerService) Run(ctx context.Context) (model.RunLogPayload, error) {
	tzName, err := s.settings.DefaultTimezone(ctx)
	if err != nil {
		return model.RunLogPayload{}, err
	}
	loc, lerr := time.LoadLocation(tzName)
	if lerr != nil {
		return model.RunLogPayload{}, wrapError(ErrBug, lerr, "load timezone %s", tzName)
	}

	now := s.clock.Now().In(loc)
	lastRun, ok, err := s.runLog.LastSuccess(ctx)
	if err != nil {
		return model.RunLogPayload{}, err
	}
	if !ok {
		lastRun = now.Add(-24 * time.Hour)
	}
	lastRun = lastRun.In(loc)

	weekday := isWeekday(now.Weekday())
	entries, err := listEnabledDayClassEntries(ctx, s.db, weekday)
	if err != nil {
		return model.RunLogPayload{}, err
	}

	candidates := selectCandidates(entries, lastRun, now)
	winners := latestPerWarehouse(candidates)

	payload, rerr := s.applyWinners(ctx, winners)
	payload.NumCandidates = len(candidates)

	rec := model.RunLogRecord{RunAt: now, Success: rerr == nil, Payload: payload}
	if rerr != nil {
		rec.Payload.ErrorKind = string(rerr.Kind)
		rec.Payload.ErrorMessage = rerr.Message
	}
	if logErr := s.runLog.Append(ctx, rec); logErr != nil {
		s.logger.Error().Err(logErr).Msg("failed to append run log record")
		if rerr == nil {
			return payload, logErr
		}
	}

	s.logger.Info().
		Bool("success", rerr == nil).
		Int("num_candidates", payload.NumCandidates).
		Int("warehouses_updated", payload.WarehousesUpdated).
		Msg("reconciler run complete")

	if rerr != nil {
		return rec.Payload, rerr
	}
	return payload, nil
}

type candidate struct {
	entry    model.ScheduleEntry
	anchorTS time.Time
}

// selectCandidates projects each entry's start onto the absolute timeline
// anchored at now's date (yesterday when the start lies ahead of now's
// time of day) and keeps the ones that crossed inside (lastRun, now].
func selectCandidates(entries []model.ScheduleEntry, lastRun, now time.Time) []candidate {
	var candidates []candidate
	for _, e := range entries {
		anchor := time.Date(now.Year(), now.Month(), now.Day(),
			e.StartAt.Hour(), e.StartAt.Minute(), 0, 0, now.Location())
		if anchor.After(now) {
			anchor = anchor.AddDate(0, 0, -1)
		}
		if anchor.After(lastRun) && !anchor.After(now) {
			candidates = append(candidates, candidate{entry: e, anchorTS: anchor})
		}
	}
	return candidates
}

// latestPerWarehouse implements catch-up: when several transitions were
// missed for a warehouse, only the most recent intended configuration is
// applied.
func latestPerWarehouse(candidates []candidate) []candidate {
	latest := make(map[string]candidate)
	for _, c := range candidates {
		cur, ok := latest[c.entry.Warehouse]
		if !ok || c.anchorTS.After(cur.anchorTS) {
			latest[c.entry.Warehouse] = c
		}
	}
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	winners := make([]candidate, 0, len(latest))
	for _, name := range names {
		winners = append(winners, latest[name])
	}
	return winners
}

func (s *ReconcilerService) applyWinners(ctx context.Context, winners []candidate) (model.RunLogPayload, *Error) {
	var payload model.RunLogPayload
	for _, w := range winners {
		cfg, err := s.controller.Describe(ctx, w.entry.Warehouse)
		if err != nil {
			return payload, wrapError(ErrControllerDown, err, "describe warehouse %s", w.entry.Warehouse)
		}
		stmt, derr := alterStatement(&w.entry, &cfg)
		if derr != nil {
			return payload, derr
		}
		if stmt == "" {
			continue
		}
		payload.Statements = append(payload.Statements, stmt)
		payload.WarehousesUpdated++
	}

	if len(payload.Statements) == 0 {
		return payload, nil
	}

	script := "begin\n" + strings.Join(payload.Statements, "\n") + "\nend;"
	if err := s.controller.Apply(ctx, script); err != nil {
		return payload, wrapError(ErrControllerRejected, err, "apply warehouse script")
	}
	return payload, nil
}

// alterStatement computes the minimal reconfiguration bringing live into
// agreement with desired, or "" when they already agree. Cluster bounds and
// scaling policy are only compared when both sides autoscale.
func alterStatement(desired *model.ScheduleEntry, live *model.WarehouseConfig) (string, *Error) {
	if desired.WarehouseMode == model.ModeInherit {
		return "", newError(ErrBug,
			"entry %s reached the reconciler with an unresolved Inherit mode", desired.ID)
	}

	var parts []string
	if desired.Size.Snowpark() != live.Size.Snowpark() {
		whType := "STANDARD"
		if desired.Size.Snowpark() {
			whType = "SNOWPARK-OPTIMIZED"
		}
		parts = append(parts, fmt.Sprintf("WAREHOUSE_TYPE = %s", whType))
	}
	if desired.Size.Command() != live.Size.Command() {
		parts = append(parts, fmt.Sprintf("WAREHOUSE_SIZE = %s", desired.Size.Command()))
	}
	if desired.SuspendMinutes*60 != live.AutoSuspendSeconds {
		parts = append(parts, fmt.Sprintf("AUTO_SUSPEND = %d", desired.SuspendMinutes*60))
	}
	if desired.Resume != live.AutoResume {
		parts = append(parts, fmt.Sprintf("AUTO_RESUME = %t", desired.Resume))
	}
	if desired.Autoscaling() && live.Autoscaling() {
		if desired.ScaleMin != live.MinClusterCount {
			parts = append(parts, fmt.Sprintf("MIN_CLUSTER_COUNT = %d", desired.ScaleMin))
		}
		if desired.ScaleMax != live.MaxClusterCount {
			parts = append(parts, fmt.Sprintf("MAX_CLUSTER_COUNT = %d", desired.ScaleMax))
		}
		if desired.WarehouseMode != live.ScalingPolicy {
			parts = append(parts, fmt.Sprintf("SCALING_POLICY = %s", desired.WarehouseMode))
		}
	}

	if len(parts) == 0 {
		return "", nil
	}
	return fmt.Sprintf("alter warehouse %s set %s;", desired.Warehouse, strings.Join(parts, ", ")), nil
}

func isWeekday(d time.Weekday) bool {
	return d != time.Saturday && d != time.Sunday
}
