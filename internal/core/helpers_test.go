package core

import (
	"context"
	"time"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

// fakeTriggerService records trigger fleet operations in call order.
type fakeTriggerService struct {
	schedules map[string]string
	calls     []string
	err       error
}

func newFakeTriggerService() *fakeTriggerService {
	return &fakeTriggerService{schedules: make(map[string]string)}
}

func (f *fakeTriggerService) SetSchedule(ctx context.Context, trigger, cronExpr string) error {
	f.calls = append(f.calls, "set "+trigger)
	if f.err != nil {
		return f.err
	}
	f.schedules[trigger] = cronExpr
	return nil
}

func (f *fakeTriggerService) Resume(ctx context.Context, trigger string) error {
	f.calls = append(f.calls, "resume "+trigger)
	return f.err
}

func (f *fakeTriggerService) Suspend(ctx context.Context, trigger string) error {
	f.calls = append(f.calls, "suspend "+trigger)
	return f.err
}

// testEntry builds an enabled weekday entry covering the given interval.
func testEntry(id, name string, start, finish model.TimeOfDay) model.ScheduleEntry {
	return model.ScheduleEntry{
		ID:             id,
		Warehouse:      name,
		StartAt:        start,
		FinishAt:       finish,
		Size:           model.SizeXSmall,
		SuspendMinutes: 15,
		Resume:         true,
		WarehouseMode:  model.ModeStandard,
		Weekday:        true,
		Enabled:        true,
	}
}

// entryScanFunc fills scan destinations in entryColumns order.
func entryScanFunc(e model.ScheduleEntry) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = e.ID
		*(dest[1].(*string)) = e.Warehouse
		*(dest[2].(*int)) = e.StartAt.Minutes()
		*(dest[3].(*int)) = e.FinishAt.Minutes()
		*(dest[4].(*string)) = string(e.Size)
		*(dest[5].(*int)) = e.SuspendMinutes
		*(dest[6].(*bool)) = e.Resume
		*(dest[7].(*int)) = e.ScaleMin
		*(dest[8].(*int)) = e.ScaleMax
		*(dest[9].(*string)) = string(e.WarehouseMode)
		*(dest[10].(**string)) = e.Comment
		*(dest[11].(*bool)) = e.Weekday
		*(dest[12].(*bool)) = e.Enabled
		*(dest[13].(*bool)) = e.UserModified
		*(dest[14].(*time.Time)) = e.CreatedAt
		*(dest[15].(*time.Time)) = e.UpdatedAt
		return nil
	}
}
