package core

import (
	"github.com/opscale/warehouse-scheduler/internal/warehouse"

	"github.com/rs/zerolog"
)

type Services struct {
	Settings    *SettingsService
	RunLog      *RunLogService
	TriggerPlan *TriggerPlanService
	Schedule    *ScheduleService
	Reconciler  *ReconcilerService
}

// NewServices wires the engine. fallbackTimezone seeds the settings service
// until the operator writes default_timezone; clock may be nil for the
// system clock.
func NewServices(db DB, controller warehouse.Controller, triggers warehouse.TriggerService, fallbackTimezone string, clock Clock, logger zerolog.Logger) *Services {
	settings := NewSettingsService(db, fallbackTimezone)
	runLog := NewRunLogService(db)
	planner := NewTriggerPlanService(db, triggers, settings, logger)
	return &Services{
		Settings:    settings,
		RunLog:      runLog,
		TriggerPlan: planner,
		Schedule:    NewScheduleService(db, controller, planner, logger),
		Reconciler:  NewReconcilerService(db, controller, runLog, settings, clock, logger),
	}
}
