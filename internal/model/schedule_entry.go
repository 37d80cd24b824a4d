package model

import "time"

// WarehouseMode selects the multi-cluster scaling policy for an entry.
// Inherit is a placeholder resolved against the preceding entry of the same
// day-schedule during validation; it never reaches the reconciler.
type WarehouseMode string

const (
	ModeStandard WarehouseMode = "Standard"
	ModeEconomy  WarehouseMode = "Economy"
	ModeInherit  WarehouseMode = "Inherit"
)

func (m WarehouseMode) Valid() bool {
	switch m {
	case ModeStandard, ModeEconomy, ModeInherit:
		return true
	}
	return false
}

// ScheduleEntry is one contiguous interval within a single 24-hour
// day-schedule. Entries for a (warehouse, weekday) pair must cover exactly
// [00:00, 23:59] with no gap and no overlap.
type ScheduleEntry struct {
	ID             string        `json:"id"`
	Warehouse      string        `json:"warehouse"`
	StartAt        TimeOfDay     `json:"start_at"`
	FinishAt       TimeOfDay     `json:"finish_at"`
	Size           WarehouseSize `json:"size"`
	SuspendMinutes int           `json:"suspend_minutes"`
	Resume         bool          `json:"resume"`
	ScaleMin       int           `json:"scale_min"`
	ScaleMax       int           `json:"scale_max"`
	WarehouseMode  WarehouseMode `json:"warehouse_mode"`
	Comment        *string       `json:"comment,omitempty"`
	Weekday        bool          `json:"weekday"`
	Enabled        bool          `json:"enabled"`
	UserModified   bool          `json:"user_modified"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Autoscaling reports whether the entry uses multi-cluster autoscaling.
// A zero on either cluster bound means autoscaling is disabled.
func (e *ScheduleEntry) Autoscaling() bool {
	return e.ScaleMin > 0 && e.ScaleMax > 0
}

// Contains reports whether [start, finish) lies within the entry's interval.
func (e *ScheduleEntry) Contains(start, finish TimeOfDay) bool {
	return e.StartAt <= start && finish <= e.FinishAt
}

// DaySchedule is the ordered set of entries for one (warehouse, weekday)
// pair together with its derived day-level state.
type DaySchedule struct {
	Warehouse string          `json:"warehouse"`
	Weekday   bool            `json:"weekday"`
	Enabled   bool            `json:"enabled"`
	Entries   []ScheduleEntry `json:"entries"`
}
