package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opscale/warehouse-scheduler/internal/model"

	"github.com/jackc/pgx/v5"
)

// RunLogService appends to and reads the reconciler run log. Records are
// never mutated; the latest successful run_at is the reconciliation
// watermark.
type RunLogService struct {
	db DB
}

func NewRunLogService(db DB) *RunLogService {
	return &RunLogService{db: db}
}

func (s *RunLogService) Append(ctx context.Context, rec model.RunLogRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return wrapError(ErrBug, err, "marshal run log payload")
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO warehouse_schedule_run_log (run_at, success, payload) VALUES ($1, $2, $3)`,
		rec.RunAt, rec.Success, payload)
	if err != nil {
		return wrapError(ErrStoreUnavailable, err, "append run log record")
	}
	return nil
}

// LastSuccess returns the run_at of the most recent successful run, or ok
// false when the log holds none.
func (s *RunLogService) LastSuccess(ctx context.Context) (time.Time, bool, error) {
	var runAt time.Time
	err := s.db.QueryRow(ctx,
		`SELECT run_at FROM warehouse_schedule_run_log WHERE success ORDER BY run_at DESC LIMIT 1`,
	).Scan(&runAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, wrapError(ErrStoreUnavailable, err, "get last successful run")
	}
	return runAt, true, nil
}

// List returns the most recent records, newest first.
func (s *RunLogService) List(ctx context.Context, limit int) ([]model.RunLogRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT run_at, success, payload FROM warehouse_schedule_run_log ORDER BY run_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "list run log records")
	}
	defer rows.Close()

	var records []model.RunLogRecord
	for rows.Next() {
		var rec model.RunLogRecord
		var payload []byte
		if err := rows.Scan(&rec.RunAt, &rec.Success, &payload); err != nil {
			return nil, wrapError(ErrStoreUnavailable, err, "scan run log record")
		}
		if err := json.Unmarshal(payload, &rec.Payload); err != nil {
			return nil, wrapError(ErrBug, err, "unmarshal run log payload")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(ErrStoreUnavailable, err, "iterate run log records")
	}
	return records, nil
}
