package request

import (
	"fmt"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

// ScheduleEntry holds the request body for creating or replacing a schedule
// entry. Times use "HH:MM" wall-clock notation.
type ScheduleEntry struct {
	StartAt        string  `json:"start_at" validate:"required,clock"`
	FinishAt       string  `json:"finish_at" validate:"required,clock"`
	Size           string  `json:"size" validate:"required,warehouse_size"`
	SuspendMinutes int     `json:"suspend_minutes" validate:"min=0"`
	Resume         bool    `json:"resume"`
	ScaleMin       int     `json:"scale_min" validate:"min=0,max=10"`
	ScaleMax       int     `json:"scale_max" validate:"min=0,max=10"`
	WarehouseMode  string  `json:"warehouse_mode" validate:"required,oneof=Standard Economy Inherit"`
	Comment        *string `json:"comment" validate:"omitempty,max=255"`
}

// Model converts the request body into a schedule entry for the named
// warehouse and day class.
func (req ScheduleEntry) Model(name string, weekday bool) (model.ScheduleEntry, error) {
	start, err := model.ParseTimeOfDay(req.StartAt)
	if err != nil {
		return model.ScheduleEntry{}, fmt.Errorf("start_at: %w", err)
	}
	finish, err := model.ParseTimeOfDay(req.FinishAt)
	if err != nil {
		return model.ScheduleEntry{}, fmt.Errorf("finish_at: %w", err)
	}
	return model.ScheduleEntry{
		Warehouse:      name,
		Weekday:        weekday,
		StartAt:        start,
		FinishAt:       finish,
		Size:           model.WarehouseSize(req.Size),
		SuspendMinutes: req.SuspendMinutes,
		Resume:         req.Resume,
		ScaleMin:       req.ScaleMin,
		ScaleMax:       req.ScaleMax,
		WarehouseMode:  model.WarehouseMode(req.WarehouseMode),
		Comment:        req.Comment,
	}, nil
}

// SetEnabled holds the request body for toggling a warehouse's schedules.
type SetEnabled struct {
	Enabled bool `json:"enabled"`
}
