package backup

import (
	"context"
	"fmt"
	"time"
)

var ErrSnapshotNotFound = fmt.Errorf("snapshot not found")

// Snapshot identifies an immutable point-in-time copy of a table.
type Snapshot struct {
	TableName  string
	VersionTag string
	CreatedAt  time.Time
}

// Store persists and restores full-table snapshots. Snapshots are immutable
// once written; Restore only ever mutates the live table. Nothing is pruned
// automatically; retention is the caller's responsibility.
type Store interface {
	// Snapshot captures every row of the named table and returns an opaque,
	// monotonically distinguishable version tag.
	Snapshot(ctx context.Context, tableName string) (string, error)

	// Restore replaces the live table's contents with exactly the rows
	// captured at versionTag. Returns ErrSnapshotNotFound for unknown tags.
	Restore(ctx context.Context, tableName, versionTag string) error

	// List returns the known snapshots for the table, newest first.
	List(ctx context.Context, tableName string) ([]Snapshot, error)
}
