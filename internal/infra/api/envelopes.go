package api

import (
	"encoding/json"
	"net/http"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
)

const dateLayout = "2006-01-02"

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GroupCount is one (frequency, next_email_date) bucket of the count report.
type GroupCount struct {
	Frequency     string `json:"frequency"`
	NextEmailDate string `json:"next_email_date"`
	Count         int    `json:"count"`
}

// CountEnvelope wraps the user-count response.
type CountEnvelope struct {
	Status      string       `json:"status"`
	SnapshotTag string       `json:"snapshot_tag"`
	TotalUsers  int          `json:"total_users"`
	Groups      []GroupCount `json:"groups"`
}

// SkippedEnvelope reports one user excluded from a distribution run.
type SkippedEnvelope struct {
	UserID    int64  `json:"user_id"`
	Frequency string `json:"frequency"`
}

// RunEnvelope wraps a distribution-run outcome.
type RunEnvelope struct {
	Outcome        string            `json:"outcome"`
	SnapshotTag    string            `json:"snapshot_tag"`
	PartitionCount int               `json:"partition_count"`
	ReferenceDate  string            `json:"reference_date"`
	RowsAffected   int64             `json:"rows_affected"`
	Skipped        []SkippedEnvelope `json:"skipped"`
	StartedAt      string            `json:"started_at"`
	FinishedAt     string            `json:"finished_at"`
	Cause          string            `json:"cause,omitempty"`
}

// SnapshotEnvelope is one entry of the snapshot listing.
type SnapshotEnvelope struct {
	TableName  string `json:"table_name"`
	VersionTag string `json:"version_tag"`
	CreatedAt  string `json:"created_at"`
}

func newRunEnvelope(run *alerts.Run) RunEnvelope {
	skipped := make([]SkippedEnvelope, 0, len(run.Skipped))
	for _, s := range run.Skipped {
		skipped = append(skipped, SkippedEnvelope{UserID: s.UserID, Frequency: string(s.Frequency)})
	}
	env := RunEnvelope{
		Outcome:        string(run.State),
		SnapshotTag:    run.SnapshotTag,
		PartitionCount: run.PartitionCount,
		ReferenceDate:  run.ReferenceDate.Format(dateLayout),
		RowsAffected:   run.RowsAffected,
		Skipped:        skipped,
		StartedAt:      run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt:     run.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.Cause != nil {
		env.Cause = run.Cause.Error()
	}
	return env
}

func newSnapshotEnvelopes(snapshots []backup.Snapshot) []SnapshotEnvelope {
	out := make([]SnapshotEnvelope, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, SnapshotEnvelope{
			TableName:  s.TableName,
			VersionTag: s.VersionTag,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
