package alerts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeUsers(n int, freq Frequency) []*User {
	users := make([]*User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, &User{ID: int64(i + 1), IsActive: true, Frequency: freq})
	}
	return users
}

func TestAssignPartitions_RoundRobin(t *testing.T) {
	users := activeUsers(5, FrequencyDaily)
	ref := date(2024, time.June, 1)

	assignments, skipped, err := AssignPartitions(users, 3, ref)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, assignments, 5)

	for i, a := range assignments {
		assert.Equal(t, users[i].ID, a.UserID)
		assert.Equal(t, i%3, a.Partition)
		assert.Equal(t, date(2024, time.June, 2), a.NextEmailDate)
	}
}

func TestAssignPartitions_Deterministic(t *testing.T) {
	users := activeUsers(17, FrequencyWeekly)
	ref := date(2024, time.January, 1)

	first, _, err := AssignPartitions(users, 4, ref)
	require.NoError(t, err)
	second, _, err := AssignPartitions(users, 4, ref)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssignPartitions_Balance(t *testing.T) {
	for _, tc := range []struct{ n, p int }{
		{10, 3}, {9, 3}, {1, 4}, {100, 7}, {5, 5}, {4, 8},
	} {
		t.Run(fmt.Sprintf("%d_users_%d_partitions", tc.n, tc.p), func(t *testing.T) {
			assignments, _, err := AssignPartitions(activeUsers(tc.n, FrequencyDaily), tc.p, date(2024, time.May, 1))
			require.NoError(t, err)

			sizes := make(map[int]int)
			for _, a := range assignments {
				require.GreaterOrEqual(t, a.Partition, 0)
				require.Less(t, a.Partition, tc.p)
				sizes[a.Partition]++
			}

			floor := tc.n / tc.p
			ceil := floor
			if tc.n%tc.p != 0 {
				ceil++
			}
			for p := 0; p < tc.p; p++ {
				size := sizes[p]
				assert.True(t, size == floor || size == ceil,
					"partition %d has %d users, want %d or %d", p, size, floor, ceil)
			}
		})
	}
}

func TestAssignPartitions_SkipsUnknownFrequency(t *testing.T) {
	users := []*User{
		{ID: 1, IsActive: true, Frequency: FrequencyDaily},
		{ID: 2, IsActive: true, Frequency: Frequency("UNKNOWN")},
		{ID: 3, IsActive: true, Frequency: FrequencyMonthly},
	}

	assignments, skipped, err := AssignPartitions(users, 2, date(2024, time.January, 15))
	require.NoError(t, err)

	require.Len(t, skipped, 1)
	assert.Equal(t, int64(2), skipped[0].UserID)
	assert.Equal(t, Frequency("UNKNOWN"), skipped[0].Frequency)

	// The other users are still assigned, and the skip does not leave a hole
	// in the round-robin sequence.
	require.Len(t, assignments, 2)
	assert.Equal(t, int64(1), assignments[0].UserID)
	assert.Equal(t, 0, assignments[0].Partition)
	assert.Equal(t, int64(3), assignments[1].UserID)
	assert.Equal(t, 1, assignments[1].Partition)
}

func TestAssignPartitions_EmptyInput(t *testing.T) {
	assignments, skipped, err := AssignPartitions(nil, 4, date(2024, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, assignments)
	assert.Empty(t, skipped)
}

func TestAssignPartitions_InvalidPartitionCount(t *testing.T) {
	for _, p := range []int{0, -1, -100} {
		_, _, err := AssignPartitions(activeUsers(3, FrequencyDaily), p, date(2024, time.January, 1))
		assert.ErrorIs(t, err, ErrInvalidPartitionCount)
	}
}

func TestAssignPartitions_MixedFrequencies(t *testing.T) {
	ref := date(2024, time.January, 31)
	users := []*User{
		{ID: 1, IsActive: true, Frequency: FrequencyDaily},
		{ID: 2, IsActive: true, Frequency: FrequencyWeekly},
		{ID: 3, IsActive: true, Frequency: FrequencyMonthly},
	}

	assignments, skipped, err := AssignPartitions(users, 1, ref)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, assignments, 3)

	assert.Equal(t, date(2024, time.February, 1), assignments[0].NextEmailDate)
	assert.Equal(t, date(2024, time.February, 7), assignments[1].NextEmailDate)
	assert.Equal(t, date(2024, time.February, 29), assignments[2].NextEmailDate)
}
