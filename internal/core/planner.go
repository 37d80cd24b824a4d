package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/opscale/warehouse-scheduler/internal/model"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TriggerPlan is the desired state of the trigger fleet for the current set
// of enabled schedule entries.
type TriggerPlan struct {
	// Schedules maps minute offset to the cron expression its trigger must
	// run. Offsets without an expression are suspended.
	Schedules map[int]string
	// Active is false when every entry is disabled and the whole fleet is
	// suspended.
	Active bool
	// Timezone the expressions were rendered in.
	Timezone string
}

// PlanTriggers decides, for each trigger offset, the hours at which it must
// fire and the day-of-week restriction. Entries with a disabled day-schedule
// do not contribute. Pure; re-running with unchanged inputs yields an
// identical plan.
func PlanTriggers(entries []model.ScheduleEntry, timezone string) (TriggerPlan, *Error) {
	type offsetAgg struct {
		hours   map[int]bool
		weekday bool
		weekend bool
	}
	agg := make(map[int]*offsetAgg, len(warehouse.TriggerOffsets))
	for _, offset := range warehouse.TriggerOffsets {
		agg[offset] = &offsetAgg{hours: make(map[int]bool)}
	}

	plan := TriggerPlan{Schedules: make(map[int]string), Timezone: timezone}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		a, ok := agg[e.StartAt.Minute()]
		if !ok {
			return TriggerPlan{}, newError(ErrBug,
				"schedule entry %s starts at minute %d outside the trigger pool", e.ID, e.StartAt.Minute())
		}
		plan.Active = true
		a.hours[e.StartAt.Hour()] = true
		if e.Weekday {
			a.weekday = true
		} else {
			a.weekend = true
		}
	}
	if !plan.Active {
		return plan, nil
	}

	for offset, a := range agg {
		if len(a.hours) == 0 {
			continue
		}
		hours := make([]int, 0, len(a.hours))
		for h := range a.hours {
			hours = append(hours, h)
		}
		sort.Ints(hours)
		parts := make([]string, len(hours))
		for i, h := range hours {
			parts[i] = strconv.Itoa(h)
		}

		dow := "*"
		switch {
		case a.weekday && !a.weekend:
			dow = "1-5"
		case a.weekend && !a.weekday:
			dow = "0,6"
		}

		expr := fmt.Sprintf("%d %s * * %s %s", offset, strings.Join(parts, ","), dow, timezone)
		if err := checkCron(expr); err != nil {
			return TriggerPlan{}, wrapError(ErrBug, err, "planner produced an invalid cron expression")
		}
		plan.Schedules[offset] = expr
	}

	return plan, nil
}

// checkCron parses the planner's "M H * * DOW TZ" form to guard against
// emitting an expression the trigger service would reject.
func checkCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 6 {
		return fmt.Errorf("expression %q must have five fields and a timezone", expr)
	}
	spec := fmt.Sprintf("CRON_TZ=%s %s", fields[5], strings.Join(fields[:5], " "))
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parse %q: %w", expr, err)
	}
	return nil
}

// TriggerPlanService rewrites the trigger fleet after schedule edits.
type TriggerPlanService struct {
	db       DB
	triggers warehouse.TriggerService
	settings *SettingsService
	logger   zerolog.Logger
}

func NewTriggerPlanService(db DB, triggers warehouse.TriggerService, settings *SettingsService, logger zerolog.Logger) *TriggerPlanService {
	return &TriggerPlanService{db: db, triggers: triggers, settings: settings, logger: logger}
}

// Sync loads all entries, plans the fleet, and pushes the plan to the
// trigger service. Active offsets are suspended, rescheduled, and resumed;
// idle offsets are suspended. Failures leave current trigger state alone;
// the next edit retries.
func (s *TriggerPlanService) Sync(ctx context.Context) error {
	timezone, err := s.settings.DefaultTimezone(ctx)
	if err != nil {
		return err
	}
	entries, err := listAllEntries(ctx, s.db)
	if err != nil {
		return err
	}

	plan, perr := PlanTriggers(entries, timezone)
	if perr != nil {
		return perr
	}
	if !plan.Active {
		s.logger.Info().Msg("no schedule active, suspending all triggers")
	}

	for _, offset := range warehouse.TriggerOffsets {
		name := warehouse.TriggerName(offset)
		expr, ok := plan.Schedules[offset]
		if !ok {
			if err := s.triggers.Suspend(ctx, name); err != nil {
				return wrapError(ErrControllerRejected, err, "suspend trigger %s", name)
			}
			continue
		}
		if err := s.triggers.Suspend(ctx, name); err != nil {
			return wrapError(ErrControllerRejected, err, "suspend trigger %s", name)
		}
		if err := s.triggers.SetSchedule(ctx, name, expr); err != nil {
			return wrapError(ErrControllerRejected, err, "set schedule on trigger %s", name)
		}
		if err := s.triggers.Resume(ctx, name); err != nil {
			return wrapError(ErrControllerRejected, err, "resume trigger %s", name)
		}
	}
	return nil
}
