package alerts

import (
	"context"
	"time"
)

// FrequencyDateCount is one group of the active-user aggregation.
type FrequencyDateCount struct {
	Frequency     Frequency
	NextEmailDate time.Time
	Count         int
}

// Repository defines the persistence operations for job-alert users.
type Repository interface {
	// ListActive returns every active user ordered by id ascending.
	// The stable ordering is what makes partition assignment reproducible.
	ListActive(ctx context.Context) ([]*User, error)

	// CountActiveByFrequencyAndDate groups active users by
	// (frequency, next_email_date).
	CountActiveByFrequencyAndDate(ctx context.Context) ([]FrequencyDateCount, error)

	// ApplyAssignments writes partition and next_email_date for every
	// assignment inside a single transaction and returns the number of rows
	// updated. Either all assignments are applied or none are.
	ApplyAssignments(ctx context.Context, assignments []Assignment) (int64, error)
}
