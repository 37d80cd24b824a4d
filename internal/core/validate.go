package core

import (
	"sort"

	"github.com/opscale/warehouse-scheduler/internal/model"
	"github.com/opscale/warehouse-scheduler/internal/warehouse"
)

// VerifyAndClean checks that entries form a valid day-schedule and returns
// the cleaned list together with the IDs of entries it had to rewrite.
// Operates purely on in-memory data.
//
// With ignoreErrors set, misaligned day boundaries are rewritten instead of
// rejected; that mode serves the delete path, which removes an entry and
// lets the cleaner close the hole. Gaps between adjacent entries are always
// closed by advancing the predecessor. Overlaps are never silently resolved.
func VerifyAndClean(entries []model.ScheduleEntry, ignoreErrors bool) ([]model.ScheduleEntry, map[string]bool, *Error) {
	if len(entries) == 0 {
		return nil, nil, newError(ErrMisalignedBoundary, "day schedule has no entries")
	}

	cleaned := make([]model.ScheduleEntry, len(entries))
	copy(cleaned, entries)
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].StartAt < cleaned[j].StartAt
	})

	dirty := make(map[string]bool)

	for i := range cleaned {
		if err := validateEntry(&cleaned[i]); err != nil {
			return nil, nil, err
		}
	}

	// Day boundaries.
	if cleaned[0].StartAt != model.DayStart {
		if !ignoreErrors {
			return nil, nil, newError(ErrMisalignedBoundary,
				"first entry must start at %s, got %s", model.DayStart, cleaned[0].StartAt)
		}
		cleaned[0].StartAt = model.DayStart
		dirty[cleaned[0].ID] = true
	}
	last := len(cleaned) - 1
	if cleaned[last].FinishAt != model.DayEnd {
		if !ignoreErrors {
			return nil, nil, newError(ErrMisalignedBoundary,
				"last entry must finish at %s, got %s", model.DayEnd, cleaned[last].FinishAt)
		}
		cleaned[last].FinishAt = model.DayEnd
		dirty[cleaned[last].ID] = true
	}

	// Contiguity.
	for i := 0; i < len(cleaned)-1; i++ {
		prev, next := &cleaned[i], &cleaned[i+1]
		switch {
		case prev.FinishAt == next.StartAt:
		case prev.FinishAt < next.StartAt:
			prev.FinishAt = next.StartAt
			dirty[prev.ID] = true
		default:
			return nil, nil, newError(ErrNoncontiguous,
				"entries overlap: %s-%s and %s-%s",
				prev.StartAt, prev.FinishAt, next.StartAt, next.FinishAt)
		}
	}

	// Inherit resolution.
	if cleaned[0].WarehouseMode == model.ModeInherit {
		return nil, nil, newError(ErrUnresolvableInherit,
			"first entry of the day cannot inherit its warehouse mode")
	}
	for i := 1; i < len(cleaned); i++ {
		if cleaned[i].WarehouseMode == model.ModeInherit {
			cleaned[i].WarehouseMode = cleaned[i-1].WarehouseMode
			dirty[cleaned[i].ID] = true
		}
	}

	// Enabled uniformity: the day-schedule flag is the conjunction of all
	// entries.
	enabled := true
	for i := range cleaned {
		enabled = enabled && cleaned[i].Enabled
	}
	for i := range cleaned {
		if cleaned[i].Enabled != enabled {
			cleaned[i].Enabled = enabled
			dirty[cleaned[i].ID] = true
		}
	}

	return cleaned, dirty, nil
}

func validateEntry(e *model.ScheduleEntry) *Error {
	if e.Warehouse == "" {
		return newError(ErrInvalidField, "warehouse name is required")
	}
	if !e.Size.Valid() {
		return newError(ErrInvalidField, "unknown warehouse size %q", e.Size)
	}
	if !e.WarehouseMode.Valid() {
		return newError(ErrInvalidField, "unknown warehouse mode %q", e.WarehouseMode)
	}
	if !e.StartAt.Valid() || !e.FinishAt.Valid() {
		return newError(ErrInvalidField, "times must lie within [00:00, 23:59]")
	}
	if e.StartAt >= e.FinishAt {
		return newError(ErrInvalidField, "start time must be before finish time")
	}
	if m := e.StartAt.Minute(); !onTriggerGrid(m) {
		return newError(ErrInvalidField,
			"start time minute must be one of 00, 15, 30 or 45, got %02d", m)
	}
	if e.SuspendMinutes < 0 {
		return newError(ErrInvalidField, "suspend minutes must not be negative")
	}
	if e.ScaleMin < 0 || e.ScaleMax > 10 {
		return newError(ErrInvalidField, "cluster counts must lie within [0, 10]")
	}
	if e.ScaleMin > e.ScaleMax {
		return newError(ErrInvalidField, "scale min must not exceed scale max")
	}
	if (e.ScaleMin == 0) != (e.ScaleMax == 0) {
		return newError(ErrInvalidField, "cluster bounds must both be zero or both be nonzero")
	}
	return nil
}

// onTriggerGrid reports whether a start minute can be served by one of the
// periodic triggers. Off-grid starts must never be stored; the planner
// treats one as a contract violation.
func onTriggerGrid(minute int) bool {
	for _, offset := range warehouse.TriggerOffsets {
		if minute == offset {
			return true
		}
	}
	return false
}
