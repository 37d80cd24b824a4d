package core

import (
	"sort"

	"github.com/opscale/warehouse-scheduler/internal/model"

	"github.com/google/uuid"
)

// mergeNewSchedule inserts entry n into the sorted day-schedule existing,
// splitting the entry whose interval contains n. The result is re-validated
// by the caller. Pure; fresh IDs are minted for split remainders only.
func mergeNewSchedule(n model.ScheduleEntry, existing []model.ScheduleEntry) ([]model.ScheduleEntry, *Error) {
	if len(existing) == 0 {
		if n.StartAt != model.DayStart || n.FinishAt != model.DayEnd {
			return nil, newError(ErrMisalignedBoundary,
				"schedule must span a full day, got %s-%s", n.StartAt, n.FinishAt)
		}
		return []model.ScheduleEntry{n}, nil
	}

	merged := make([]model.ScheduleEntry, len(existing))
	copy(merged, existing)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartAt < merged[j].StartAt
	})

	idx := -1
	for i := range merged {
		if merged[i].Contains(n.StartAt, n.FinishAt) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newError(ErrNoncontiguous,
			"interval %s-%s does not fit into a single existing entry", n.StartAt, n.FinishAt)
	}

	e := merged[idx]
	switch {
	case e.StartAt == n.StartAt && e.FinishAt == n.FinishAt:
		// Whole-slot overwrite.
		merged[idx] = n
	case e.StartAt == n.StartAt:
		// Keep e's tail, prepend n.
		merged[idx].StartAt = n.FinishAt
		merged = insertAt(merged, idx, n)
	case e.FinishAt == n.FinishAt:
		// Keep e's head, append n.
		merged[idx].FinishAt = n.StartAt
		merged = insertAt(merged, idx+1, n)
	default:
		// Strict interior: head, n, tail. The tail inherits e's fields
		// under a fresh ID.
		tail := e
		tail.ID = uuid.NewString()
		tail.StartAt = n.FinishAt
		merged[idx].FinishAt = n.StartAt
		merged = insertAt(merged, idx+1, n)
		merged = insertAt(merged, idx+2, tail)
	}

	return merged, nil
}

// applyUpdate rewrites the entry with the given ID in place and nudges
// neighbor boundaries to restore contiguity. Field values of neighbors do
// not change, only their boundaries.
func applyUpdate(entries []model.ScheduleEntry, id string, repl model.ScheduleEntry) ([]model.ScheduleEntry, *Error) {
	updated := make([]model.ScheduleEntry, len(entries))
	copy(updated, entries)
	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].StartAt < updated[j].StartAt
	})

	idx := -1
	for i := range updated {
		if updated[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newError(ErrConflict, "schedule entry %s no longer exists", id)
	}

	if repl.StartAt >= repl.FinishAt {
		return nil, newError(ErrInvalidField, "start time must be before finish time")
	}
	if idx == 0 && repl.StartAt != model.DayStart {
		return nil, newError(ErrMisalignedBoundary,
			"first entry must start at %s", model.DayStart)
	}
	if idx == len(updated)-1 && repl.FinishAt != model.DayEnd {
		return nil, newError(ErrMisalignedBoundary,
			"last entry must finish at %s", model.DayEnd)
	}
	if idx > 0 && repl.StartAt <= updated[idx-1].StartAt {
		return nil, newError(ErrNoncontiguous,
			"start %s would overlap the preceding entry", repl.StartAt)
	}
	if idx < len(updated)-1 && repl.FinishAt >= updated[idx+1].FinishAt {
		return nil, newError(ErrNoncontiguous,
			"finish %s would overlap the following entry", repl.FinishAt)
	}

	repl.ID = id
	repl.Warehouse = updated[idx].Warehouse
	repl.Weekday = updated[idx].Weekday
	updated[idx] = repl
	if idx > 0 {
		updated[idx-1].FinishAt = repl.StartAt
	}
	if idx < len(updated)-1 {
		updated[idx+1].StartAt = repl.FinishAt
	}

	return updated, nil
}

// deleteFromDay removes the entry with the given ID. The resulting hole is
// closed by the cleaner, which extends the predecessor (or the successor
// when the first entry goes). Deleting the sole covering entry is rejected.
func deleteFromDay(entries []model.ScheduleEntry, id string) ([]model.ScheduleEntry, *Error) {
	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newError(ErrConflict, "schedule entry %s no longer exists", id)
	}
	if len(entries) == 1 {
		return nil, newError(ErrEmptyDayAfterDelete,
			"cannot delete the only entry of a day schedule")
	}

	remaining := make([]model.ScheduleEntry, 0, len(entries)-1)
	remaining = append(remaining, entries[:idx]...)
	remaining = append(remaining, entries[idx+1:]...)
	return remaining, nil
}

func insertAt(entries []model.ScheduleEntry, idx int, e model.ScheduleEntry) []model.ScheduleEntry {
	entries = append(entries, model.ScheduleEntry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = e
	return entries
}
