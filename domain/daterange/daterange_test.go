package daterange

import (
	"testing"

	"aitaflow/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		start, stop string
		increment   int
		expectedLen int
	}{
		{"2020-01-01", "2020-01-10", 3, 4},
		{"2020-01-01", "2020-01-10", 2, 5},
		{"2020-01-01", "2020-01-01", 3, 1},
		{"2020-02-27", "2020-03-02", 1, 5},
	}

	for _, tt := range tests {
		ranges, err := Partition(tt.start, tt.stop, tt.increment)
		require.NoError(t, err)
		assert.Len(t, ranges, tt.expectedLen)
		assert.Equal(t, tt.start, ranges[0].Start)
		assert.Equal(t, tt.stop, ranges[len(ranges)-1].End)
	}
}

func TestPartitionWindowsAreContiguous(t *testing.T) {
	ranges, err := Partition("2020-01-01", "2020-01-10", 3)
	require.NoError(t, err)

	assert.Equal(t, []DateRange{
		{Start: "2020-01-01", End: "2020-01-03"},
		{Start: "2020-01-04", End: "2020-01-06"},
		{Start: "2020-01-07", End: "2020-01-09"},
		{Start: "2020-01-10", End: "2020-01-10"},
	}, ranges)

	total := 0
	for _, r := range ranges {
		total += r.Days()
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 1, ranges[3].Days())
}

func TestPartitionInvalid(t *testing.T) {
	_, err := Partition("2020-01-10", "2020-01-01", 3)
	assert.ErrorIs(t, err, core.ErrInvalidDateRange)

	_, err = Partition("2020-01-01", "2020-01-10", 0)
	assert.ErrorIs(t, err, core.ErrInvalidDateRange)

	_, err = Partition("01/01/2020", "2020-01-10", 3)
	assert.ErrorIs(t, err, core.ErrInvalidDateRange)
}
