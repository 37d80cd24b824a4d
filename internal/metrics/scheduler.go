package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcilerRuns counts reconciler passes by outcome ("success" or the
	// engine error kind).
	ReconcilerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_reconciler_runs_total",
			Help: "Total number of reconciler passes by outcome",
		},
		[]string{"outcome"},
	)

	// WarehousesUpdated counts warehouses altered by the reconciler.
	WarehousesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_warehouses_updated_total",
			Help: "Total number of warehouses altered by the reconciler",
		},
	)
)
