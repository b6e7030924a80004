package alerts

import (
	"database/sql"
	"time"
)

// User is one row of the job alerts table.
// Partition and NextEmailDate are written exclusively by distribution runs;
// Partition is NULL until the first run assigns the user.
type User struct {
	ID            int64
	IsActive      bool
	Frequency     Frequency
	NextEmailDate time.Time
	Partition     sql.NullInt32
}
