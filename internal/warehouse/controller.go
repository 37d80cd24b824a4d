// Package warehouse holds the contracts to the external warehouse control
// plane: the controller that describes and reconfigures warehouses, and the
// trigger service that fires the reconciler on cron-like schedules.
package warehouse

import (
	"context"
	"fmt"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

// Controller reads the live configuration of a warehouse and executes
// reconfiguration scripts against it.
type Controller interface {
	// Describe returns the live configuration of the named warehouse.
	Describe(ctx context.Context, name string) (model.WarehouseConfig, error)
	// Apply executes a script of one or more alter warehouse statements as
	// a single atomic block.
	Apply(ctx context.Context, script string) error
}

// TriggerService manages the fixed fleet of periodic triggers that invoke
// the reconciler. All operations are idempotent.
type TriggerService interface {
	SetSchedule(ctx context.Context, trigger, cronExpr string) error
	Resume(ctx context.Context, trigger string) error
	Suspend(ctx context.Context, trigger string) error
}

// TriggerOffsets are the minute offsets of the trigger pool. An entry whose
// start minute is 30 is handled by the _30 trigger.
var TriggerOffsets = []int{0, 15, 30, 45}

// TriggerName returns the trigger handling the given minute offset.
func TriggerName(offset int) string {
	return fmt.Sprintf("warehouse_scheduling_%d", offset)
}
