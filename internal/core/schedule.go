package core

import (
	"context"

	"github.com/opscale/warehouse-scheduler/internal/model"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ScheduleService is the editor: every operation commits a new valid
// day-schedule in one transaction or leaves the store unchanged, then asks
// the planner to rewrite the trigger fleet. Planner failures after a
// committed edit are transient and only logged; the next edit retries.
type ScheduleService struct {
	db         DB
	controller warehouse.Controller
	planner    *TriggerPlanService
	logger     zerolog.Logger
}

func NewScheduleService(db DB, controller warehouse.Controller, planner *TriggerPlanService, logger zerolog.Logger) *ScheduleService {
	return &ScheduleService{db: db, controller: controller, planner: planner, logger: logger}
}

// Create merges a new entry into its day-schedule, splitting the entry that
// contains its interval. When the day-schedule does not exist yet and the
// caller provides only a sub-interval, a full-day default copied from the
// live warehouse is created first and the new entry is merged into it.
func (s *ScheduleService) Create(ctx context.Context, e model.ScheduleEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UserModified = true
	if verr := validateEntry(&e); verr != nil {
		return verr
	}

	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		day, err := listDayEntries(ctx, tx, e.Warehouse, e.Weekday, true)
		if err != nil {
			return err
		}

		if len(day) == 0 && !(e.StartAt == model.DayStart && e.FinishAt == model.DayEnd) {
			def, err := s.defaultEntry(ctx, e.Warehouse, e.Weekday)
			if err != nil {
				return err
			}
			if err := insertEntry(ctx, tx, &def); err != nil {
				return err
			}
			day = []model.ScheduleEntry{def}
		}
		if len(day) > 0 {
			// Uniformity: the new entry adopts the day-schedule's flag.
			e.Enabled = day[0].Enabled
		}

		merged, merr := mergeNewSchedule(e, day)
		if merr != nil {
			return merr
		}
		cleaned, dirty, verr := VerifyAndClean(merged, false)
		if verr != nil {
			return verr
		}
		dirty[e.ID] = true
		return persistDay(ctx, tx, day, cleaned, dirty)
	})
	if err != nil {
		return err
	}

	s.syncTriggers(ctx)
	return nil
}

// Update rewrites an entry in place, nudging neighbor boundaries to keep the
// day contiguous.
func (s *ScheduleService) Update(ctx context.Context, id string, repl model.ScheduleEntry) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		target, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		day, err := listDayEntries(ctx, tx, target.Warehouse, target.Weekday, true)
		if err != nil {
			return err
		}

		repl.Enabled = target.Enabled
		repl.UserModified = true
		updated, uerr := applyUpdate(day, id, repl)
		if uerr != nil {
			return uerr
		}
		cleaned, dirty, verr := VerifyAndClean(updated, false)
		if verr != nil {
			return verr
		}
		dirty[id] = true
		return persistDay(ctx, tx, day, cleaned, dirty)
	})
	if err != nil {
		return err
	}

	s.syncTriggers(ctx)
	return nil
}

// Delete removes an entry and extends a neighbor to close the hole. The
// sole covering entry of a day cannot be deleted.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		target, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		day, err := listDayEntries(ctx, tx, target.Warehouse, target.Weekday, true)
		if err != nil {
			return err
		}

		remaining, derr := deleteFromDay(day, id)
		if derr != nil {
			return derr
		}
		cleaned, dirty, verr := VerifyAndClean(remaining, true)
		if verr != nil {
			return verr
		}
		return persistDay(ctx, tx, day, cleaned, dirty)
	})
	if err != nil {
		return err
	}

	s.syncTriggers(ctx)
	return nil
}

// SetEnabled toggles every entry of the warehouse, both day classes, in one
// batch. There is no per-entry enable.
func (s *ScheduleService) SetEnabled(ctx context.Context, name string, enabled bool) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE warehouse_schedules SET enabled = $1, updated_at = now() WHERE name = $2`,
			enabled, name)
		if err != nil {
			return wrapError(ErrStoreUnavailable, err, "toggle schedules for %s", name)
		}
		if tag.RowsAffected() == 0 {
			return newError(ErrConflict, "no schedules exist for warehouse %s", name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.syncTriggers(ctx)
	return nil
}

// Reset deletes every entry for the warehouse and recreates the two default
// day-schedules from the live configuration.
func (s *ScheduleService) Reset(ctx context.Context, name string) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM warehouse_schedules WHERE name = $1`, name); err != nil {
			return wrapError(ErrStoreUnavailable, err, "delete schedules for %s", name)
		}
		for _, weekday := range []bool{true, false} {
			def, err := s.defaultEntry(ctx, name, weekday)
			if err != nil {
				return err
			}
			if err := insertEntry(ctx, tx, &def); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.syncTriggers(ctx)
	return nil
}

// CreateDefaults ensures both day-schedules exist. Missing ones are created
// from the live configuration; existing ones that are still untouched
// defaults (a single full-day entry no human has edited) are refreshed from
// live state, keeping their IDs and enabled flag.
func (s *ScheduleService) CreateDefaults(ctx context.Context, name string) error {
	return inTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, weekday := range []bool{true, false} {
			day, err := listDayEntries(ctx, tx, name, weekday, true)
			if err != nil {
				return err
			}
			switch {
			case len(day) == 0:
				def, err := s.defaultEntry(ctx, name, weekday)
				if err != nil {
					return err
				}
				if err := insertEntry(ctx, tx, &def); err != nil {
					return err
				}
			case len(day) == 1 && !day[0].UserModified &&
				day[0].StartAt == model.DayStart && day[0].FinishAt == model.DayEnd:
				def, err := s.defaultEntry(ctx, name, weekday)
				if err != nil {
					return err
				}
				refreshed := day[0]
				refreshed.Size = def.Size
				refreshed.SuspendMinutes = def.SuspendMinutes
				refreshed.Resume = def.Resume
				refreshed.ScaleMin = def.ScaleMin
				refreshed.ScaleMax = def.ScaleMax
				refreshed.WarehouseMode = def.WarehouseMode
				if err := updateEntry(ctx, tx, &refreshed); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// List returns every stored entry ordered by warehouse, day class and start
// time.
func (s *ScheduleService) List(ctx context.Context) ([]model.ScheduleEntry, error) {
	return listAllEntries(ctx, s.db)
}

// GetDay returns one day-schedule with its derived day-level state.
func (s *ScheduleService) GetDay(ctx context.Context, name string, weekday bool) (model.DaySchedule, error) {
	entries, err := listDayEntries(ctx, s.db, name, weekday, false)
	if err != nil {
		return model.DaySchedule{}, err
	}
	day := model.DaySchedule{Warehouse: name, Weekday: weekday, Entries: entries}
	day.Enabled = len(entries) > 0
	for i := range entries {
		day.Enabled = day.Enabled && entries[i].Enabled
	}
	return day, nil
}

// FindEntry resolves an entry by its (warehouse, weekday, interval) key, the
// identifier the operator surface speaks.
func (s *ScheduleService) FindEntry(ctx context.Context, name string, weekday bool, start, finish model.TimeOfDay) (model.ScheduleEntry, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM warehouse_schedules
		 WHERE name = $1 AND weekday = $2 AND start_at = $3 AND finish_at = $4`,
		name, weekday, start.Minutes(), finish.Minutes(),
	).Scan(&id)
	if err != nil {
		return model.ScheduleEntry{}, newError(ErrConflict,
			"no schedule for %s (%s) covering %s-%s", name, weekdayLabel(weekday), start, finish)
	}
	return getEntry(ctx, s.db, id)
}

// defaultEntry builds a full-day entry copied from the warehouse's live
// configuration. Defaults start disabled and unmodified.
func (s *ScheduleService) defaultEntry(ctx context.Context, name string, weekday bool) (model.ScheduleEntry, error) {
	cfg, err := s.controller.Describe(ctx, name)
	if err != nil {
		return model.ScheduleEntry{}, wrapError(ErrControllerDown, err, "describe warehouse %s", name)
	}
	return model.ScheduleEntry{
		ID:             uuid.NewString(),
		Warehouse:      name,
		StartAt:        model.DayStart,
		FinishAt:       model.DayEnd,
		Size:           cfg.Size,
		SuspendMinutes: cfg.SuspendMinutes(),
		Resume:         cfg.AutoResume,
		ScaleMin:       cfg.MinClusterCount,
		ScaleMax:       cfg.MaxClusterCount,
		WarehouseMode:  cfg.ScalingPolicy,
		Weekday:        weekday,
		Enabled:        false,
	}, nil
}

func (s *ScheduleService) syncTriggers(ctx context.Context) {
	if err := s.planner.Sync(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("trigger sync failed, retrying on next edit")
	}
}

func getEntry(ctx context.Context, q querier, id string) (model.ScheduleEntry, error) {
	row := q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM warehouse_schedules WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		return model.ScheduleEntry{}, newError(ErrConflict, "schedule entry %s no longer exists", id)
	}
	return e, nil
}

// persistDay writes the difference between the stored day and its cleaned
// replacement: new or changed entries are upserted, vanished ones deleted.
// dirty carries the IDs the validator rewrote; entries the editor itself
// moved are caught by comparison against their stored version.
func persistDay(ctx context.Context, q querier, stored, cleaned []model.ScheduleEntry, dirty map[string]bool) error {
	existing := make(map[string]model.ScheduleEntry, len(stored))
	for i := range stored {
		existing[stored[i].ID] = stored[i]
	}
	kept := make(map[string]bool, len(cleaned))
	for i := range cleaned {
		e := cleaned[i]
		kept[e.ID] = true
		prev, ok := existing[e.ID]
		switch {
		case !ok:
			if err := insertEntry(ctx, q, &e); err != nil {
				return err
			}
		case dirty[e.ID] || !entryEqual(prev, e):
			if err := updateEntry(ctx, q, &e); err != nil {
				return err
			}
		}
	}
	for i := range stored {
		if !kept[stored[i].ID] {
			if err := deleteEntryRow(ctx, q, stored[i].ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// entryEqual compares the persisted fields of two entries, ignoring
// timestamps.
func entryEqual(a, b model.ScheduleEntry) bool {
	commentEqual := (a.Comment == nil) == (b.Comment == nil) &&
		(a.Comment == nil || *a.Comment == *b.Comment)
	return a.StartAt == b.StartAt && a.FinishAt == b.FinishAt &&
		a.Size == b.Size && a.SuspendMinutes == b.SuspendMinutes &&
		a.Resume == b.Resume && a.ScaleMin == b.ScaleMin && a.ScaleMax == b.ScaleMax &&
		a.WarehouseMode == b.WarehouseMode && a.Enabled == b.Enabled &&
		a.UserModified == b.UserModified && commentEqual
}

func weekdayLabel(weekday bool) string {
	if weekday {
		return "weekdays"
	}
	return "weekends"
}
