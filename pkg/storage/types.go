package storage

import "time"

// Change types recorded per college key.
const (
	ChangeAdded   = "added"
	ChangeSkipped = "skipped"
)

// Change captures what one merge run did to one college key.
type Change struct {
	RunID      int64     `json:"run_id"`
	OccurredAt time.Time `json:"occurred_at"`
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`
	CollegeKey string    `json:"college_key"`
	ChangeType string    `json:"change_type"` // added | skipped
}

// TargetStats aggregates merge runs against one canonical store.
type TargetStats struct {
	TargetPath string    `json:"target_path"`
	Runs       int       `json:"runs"`
	Added      int       `json:"added"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	LastRunAt  time.Time `json:"last_run_at"`
}
