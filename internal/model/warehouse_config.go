package model

// WarehouseConfig is the live configuration of a warehouse as read from the
// controller. Auto-suspend is carried in seconds, the unit the control plane
// speaks; schedule entries store minutes.
type WarehouseConfig struct {
	Name               string        `json:"name"`
	Size               WarehouseSize `json:"size"`
	AutoSuspendSeconds int           `json:"auto_suspend_seconds"`
	AutoResume         bool          `json:"auto_resume"`
	MinClusterCount    int           `json:"min_cluster_count"`
	MaxClusterCount    int           `json:"max_cluster_count"`
	ScalingPolicy      WarehouseMode `json:"scaling_policy"`
}

// Autoscaling reports whether the live warehouse runs multi-cluster
// autoscaling.
func (c *WarehouseConfig) Autoscaling() bool {
	return c.MinClusterCount > 0 && c.MaxClusterCount > 0
}

// SuspendMinutes converts the live auto-suspend to schedule units, rounding
// down.
func (c *WarehouseConfig) SuspendMinutes() int {
	return c.AutoSuspendSeconds / 60
}
