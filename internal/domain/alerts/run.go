package alerts

import "time"

// RunState tracks a distribution run through its lifecycle.
// Committed and RolledBack are terminal.
type RunState string

const (
	RunStatePending      RunState = "PENDING"
	RunStateSnapshotting RunState = "SNAPSHOTTING"
	RunStateAssigning    RunState = "ASSIGNING"
	RunStateMutating     RunState = "MUTATING"
	RunStateCommitted    RunState = "COMMITTED"
	RunStateRolledBack   RunState = "ROLLED_BACK"
)

// Run describes one distribution run. It is ephemeral: it lives for the
// duration of a single coordinator invocation and is surfaced to the caller
// and the logs, never persisted.
type Run struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	PartitionCount int
	ReferenceDate  time.Time
	SnapshotTag    string
	RowsAffected   int64
	Skipped        []SkippedUser
	State          RunState
	// Cause is set for rolled-back runs.
	Cause error
}

// Committed reports whether the run reached its success terminal state.
func (r *Run) Committed() bool {
	return r.State == RunStateCommitted
}
