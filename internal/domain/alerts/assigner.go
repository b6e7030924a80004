package alerts

import (
	"fmt"
	"time"
)

var ErrInvalidPartitionCount = fmt.Errorf("partition count must be at least 1")

// Assignment maps one user to a partition and its next eligible send date.
// Assignments are transient: they exist only to be applied as a bulk update.
type Assignment struct {
	UserID        int64
	Partition     int
	NextEmailDate time.Time
}

// SkippedUser is a user excluded from assignment because its frequency value
// was not recognized. Skipped users are reported to the caller, never dropped.
type SkippedUser struct {
	UserID    int64
	Frequency Frequency
}

// AssignPartitions distributes users round-robin over partitionCount
// partitions and computes each user's next email date from its frequency and
// referenceDate. The partition index is taken modulo the count of assignable
// users seen so far, so partitions differ in size by at most one even when
// some users are skipped.
//
// The result is a pure function of its inputs: the same ordered user slice,
// partition count and reference date always produce identical assignments.
func AssignPartitions(users []*User, partitionCount int, referenceDate time.Time) ([]Assignment, []SkippedUser, error) {
	if partitionCount < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidPartitionCount, partitionCount)
	}

	assignments := make([]Assignment, 0, len(users))
	var skipped []SkippedUser
	for _, u := range users {
		nextDate, err := u.Frequency.NextEmailDate(referenceDate)
		if err != nil {
			skipped = append(skipped, SkippedUser{UserID: u.ID, Frequency: u.Frequency})
			continue
		}
		assignments = append(assignments, Assignment{
			UserID:        u.ID,
			Partition:     len(assignments) % partitionCount,
			NextEmailDate: nextDate,
		})
	}
	return assignments, skipped, nil
}
