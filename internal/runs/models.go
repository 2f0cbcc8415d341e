package runs

import "time"

// Operation names the pipeline command a run belongs to.
type Operation string

const (
	OperationDedupe Operation = "dedupe"
	OperationMirror Operation = "mirror"
)

// Status represents the lifecycle of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded pipeline invocation. Counter fields are zero for
// operations that don't produce them.
type Run struct {
	ID        int64
	RunID     string
	Operation Operation
	TableName string
	DryRun    bool
	Status    Status

	TotalRecords      int
	DuplicateGroups   int
	DuplicatesFound   int
	DuplicatesRemoved int
	BatchesSucceeded  int
	BatchesFailed     int
	ErrorCount        int

	BackupPath   string
	LogPath      string
	ErrorMessage string

	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration reports how long the run took, or how long it has been running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
