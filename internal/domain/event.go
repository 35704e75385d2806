package domain

import "time"

// SyncEvent summarizes one completed reconciliation stage, published to
// Kafka when event publishing is enabled.
type SyncEvent struct {
	Entity       string    `json:"entity"`
	Processed    int       `json:"processed"`
	Skipped      int       `json:"skipped"`
	Duration     string    `json:"duration"`
	Designations []string  `json:"designations,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
