package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	for _, name := range []string{"job_alerts", "JobAlerts", "_private", "t1", "alert_snapshots"} {
		assert.NoError(t, validateTableName(name), name)
	}

	invalid := []string{
		"",
		"1table",
		"job-alerts",
		"job alerts",
		`job_alerts"; DROP TABLE users; --`,
		strings.Repeat("a", 64),
	}
	for _, name := range invalid {
		assert.Error(t, validateTableName(name), name)
	}

	// 63 characters is the Postgres identifier limit and still valid.
	assert.NoError(t, validateTableName(strings.Repeat("a", 63)))
}

func TestBackupTableName(t *testing.T) {
	got := backupTableName("job_alerts", "01HZXK3V9QW8R2T4Y6A8C0E2G4")
	assert.Equal(t, "job_alerts_snap_01hzxk3v9qw8r2t4y6a8c0e2g4", got)
}

func TestNewVersionTag_MonotonicWithinProcess(t *testing.T) {
	store := NewPostgresBackupStore(nil)

	prev := ""
	for i := 0; i < 50; i++ {
		tag, err := store.newVersionTag()
		require.NoError(t, err)
		require.Len(t, tag, 26)
		assert.Greater(t, tag, prev, "tags must sort in creation order")
		prev = tag
	}
}

func TestLockKey_Stable(t *testing.T) {
	assert.Equal(t, lockKey("job_alerts"), lockKey("job_alerts"))
	assert.NotEqual(t, lockKey("job_alerts"), lockKey("other_table"))
}
