package model

import "time"

// MaintenanceReport summarizes one maintenance pass. Per-record failures are
// counted, never fatal to the pass.
type MaintenanceReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Users      int           `json:"users"`
	Compressed int64         `json:"compressed"`
	Archived   int64         `json:"archived"`
	Deleted    int64         `json:"deleted"`
	Exported   int64         `json:"exported"`
	Skipped    int64         `json:"skipped"`
	Failed     int64         `json:"failed"`
}
