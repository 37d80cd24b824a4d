package core

import (
	"context"

	"github.com/opscale/warehouse-scheduler/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of DB shared with pgx.Tx, so the same helpers serve
// both transactional and plain reads.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryColumns = `id, name, start_at, finish_at, size, suspend_minutes, resume,
	scale_min, scale_max, warehouse_mode, comment, weekday, enabled, user_modified,
	created_at, updated_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	var startAt, finishAt int
	var size, mode string
	err := row.Scan(&e.ID, &e.Warehouse, &startAt, &finishAt, &size, &e.SuspendMinutes,
		&e.Resume, &e.ScaleMin, &e.ScaleMax, &mode, &e.Comment, &e.Weekday,
		&e.Enabled, &e.UserModified, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.ScheduleEntry{}, err
	}
	e.StartAt = model.TimeOfDay(startAt)
	e.FinishAt = model.TimeOfDay(finishAt)
	e.Size = model.WarehouseSize(size)
	e.WarehouseMode = model.WarehouseMode(mode)
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]model.ScheduleEntry, error) {
	defer rows.Close()
	var entries []model.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// listDayEntries loads one day-schedule ordered by start time. With
// forUpdate the rows are locked for the enclosing transaction, serializing
// concurrent edits on the same day-schedule.
func listDayEntries(ctx context.Context, q querier, name string, weekday, forUpdate bool) ([]model.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM warehouse_schedules
		WHERE name = $1 AND weekday = $2 ORDER BY start_at`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, name, weekday)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "list schedules for %s", name)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "scan schedules for %s", name)
	}
	return entries, nil
}

func listAllEntries(ctx context.Context, q querier) ([]model.ScheduleEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT `+entryColumns+` FROM warehouse_schedules ORDER BY name, weekday, start_at`)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "list all schedules")
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "scan all schedules")
	}
	return entries, nil
}

// listEnabledDayClassEntries loads the enabled entries of one day class
// across all warehouses.
func listEnabledDayClassEntries(ctx context.Context, q querier, weekday bool) ([]model.ScheduleEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT `+entryColumns+` FROM warehouse_schedules
		 WHERE weekday = $1 AND enabled ORDER BY name, start_at`, weekday)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "list enabled schedules")
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "scan enabled schedules")
	}
	return entries, nil
}

func insertEntry(ctx context.Context, q querier, e *model.ScheduleEntry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO warehouse_schedules
			(id, name, start_at, finish_at, size, suspend_minutes, resume,
			 scale_min, scale_max, warehouse_mode, comment, weekday, enabled, user_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.Warehouse, e.StartAt.Minutes(), e.FinishAt.Minutes(), string(e.Size),
		e.SuspendMinutes, e.Resume, e.ScaleMin, e.ScaleMax, string(e.WarehouseMode),
		e.Comment, e.Weekday, e.Enabled, e.UserModified)
	if err != nil {
		return wrapError(ErrStoreUnavailable, err, "insert schedule entry %s", e.ID)
	}
	return nil
}

func updateEntry(ctx context.Context, q querier, e *model.ScheduleEntry) error {
	tag, err := q.Exec(ctx,
		`UPDATE warehouse_schedules SET
			start_at = $1, finish_at = $2, size = $3, suspend_minutes = $4, resume = $5,
			scale_min = $6, scale_max = $7, warehouse_mode = $8, comment = $9,
			enabled = $10, user_modified = $11, updated_at = now()
		 WHERE id = $12`,
		e.StartAt.Minutes(), e.FinishAt.Minutes(), string(e.Size), e.SuspendMinutes,
		e.Resume, e.ScaleMin, e.ScaleMax, string(e.WarehouseMode), e.Comment,
		e.Enabled, e.UserModified, e.ID)
	if err != nil {
		return wrapError(ErrStoreUnavailable, err, "update schedule entry %s", e.ID)
	}
	if tag.RowsAffected() == 0 {
		return newError(ErrConflict, "schedule entry %s no longer exists", e.ID)
	}
	return nil
}

func deleteEntryRow(ctx context.Context, q querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM warehouse_schedules WHERE id = $1`, id)
	if err != nil {
		return wrapError(ErrStoreUnavailable, err, "delete schedule entry %s", id)
	}
	if tag.RowsAffected() == 0 {
		return newError(ErrConflict, "schedule entry %s no longer exists", id)
	}
	return nil
}
