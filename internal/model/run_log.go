package model

import "time"

// RunLogRecord is one reconciler invocation in the append-only run log. The
// largest successful RunAt is the watermark the next run reconciles from.
type RunLogRecord struct {
	RunAt   time.Time     `json:"run_at"`
	Success bool          `json:"success"`
	Payload RunLogPayload `json:"payload"`
}

// RunLogPayload is the structured outcome of a reconciler run.
type RunLogPayload struct {
	NumCandidates     int      `json:"num_candidates"`
	WarehousesUpdated int      `json:"warehouses_updated"`
	Statements        []string `json:"statements"`
	ErrorKind         string   `json:"error_kind,omitempty"`
	ErrorMessage      string   `json:"error_message,omitempty"`
}
