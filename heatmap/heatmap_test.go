package heatmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatlens/time-sliced-heatmap-go/heatmap"
	"github.com/heatlens/time-sliced-heatmap-go/heatmap/histogram"
)

// buildTestHeatmap returns a heatmap with 60 one-second slices over [0, 60s).
func buildTestHeatmap(t *testing.T, options ...heatmap.Option) *heatmap.Heatmap {
	t.Helper()

	hm, err := heatmap.BuildConfig().
		WithSliceDuration(1_000_000_000).
		WithSliceCount(60).
		WithStart(0).
		Build(options...)
	require.NoError(t, err)

	return hm
}

func Test_Heatmap_WindowBounds(t *testing.T) {
	tests := []struct {
		name        string
		timestamp   int64
		expectedErr error
	}{
		{name: "window_start_is_valid", timestamp: 0, expectedErr: nil},
		{name: "mid_window_is_valid", timestamp: 30_000_000_000, expectedErr: nil},
		{name: "last_instant_is_valid", timestamp: 59_999_999_999, expectedErr: nil},
		{name: "stop_is_too_late", timestamp: 60_000_000_000, expectedErr: heatmap.ErrSampleTooLate},
		{name: "past_stop_is_too_late", timestamp: 60_000_000_001, expectedErr: heatmap.ErrSampleTooLate},
		{name: "before_start_is_too_early", timestamp: -1, expectedErr: heatmap.ErrSampleTooEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm := buildTestHeatmap(t)

			err := hm.Increment(tt.timestamp, 1)

			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func Test_Heatmap_IncrementThenGet(t *testing.T) {
	hm := buildTestHeatmap(t)

	require.NoError(t, hm.Increment(0, 1))

	count, err := hm.Get(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_Heatmap_RepeatedIncrementsAccumulate(t *testing.T) {
	hm := buildTestHeatmap(t)

	counts := []int64{1, 7, 42, 3}
	var sum int64
	for _, c := range counts {
		require.NoError(t, hm.IncrementBy(5_500_000_000, 250, c))
		sum += c
	}

	count, err := hm.Get(5_500_000_000, 250)
	require.NoError(t, err)
	assert.Equal(t, sum, count)
}

func Test_Heatmap_GetAbsentValueReadsZero(t *testing.T) {
	hm := buildTestHeatmap(t)

	require.NoError(t, hm.Increment(0, 100))

	count, err := hm.Get(0, 999_999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// A slice nothing was recorded into also reads zero, not an error.
	count, err = hm.Get(30_000_000_000, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func Test_Heatmap_GetOutsideWindowFails(t *testing.T) {
	hm := buildTestHeatmap(t)

	_, err := hm.Get(-1, 1)
	assert.ErrorIs(t, err, heatmap.ErrSampleTooEarly)

	_, err = hm.Get(60_000_000_000, 1)
	assert.ErrorIs(t, err, heatmap.ErrSampleTooLate)
}

func Test_Heatmap_SamplesLandInTheirOwnSlices(t *testing.T) {
	hm := buildTestHeatmap(t)

	// Same value at two timestamps one slice apart stays separated.
	require.NoError(t, hm.Increment(1_000_000_000, 77))
	require.NoError(t, hm.Increment(2_000_000_000, 77))
	require.NoError(t, hm.Increment(2_999_999_999, 77))

	count, err := hm.Get(1_500_000_000, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = hm.Get(2_000_000_000, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func Test_Heatmap_EntriesCountsOnlyCommittedRecords(t *testing.T) {
	hm := buildTestHeatmap(t)

	require.NoError(t, hm.IncrementBy(0, 10, 4))
	require.NoError(t, hm.IncrementBy(1_000_000_000, 20, 6))
	assert.Equal(t, uint64(10), hm.Entries())

	// Out-of-window records must not inflate the counter.
	err := hm.IncrementBy(60_000_000_000, 10, 100)
	assert.ErrorIs(t, err, heatmap.ErrSampleTooLate)
	assert.Equal(t, uint64(10), hm.Entries())

	// Neither must a rejected value.
	err = hm.IncrementBy(0, heatmap.DefaultMaxValue*10, 100)
	assert.ErrorIs(t, err, heatmap.ErrRecordFailed)
	assert.Equal(t, uint64(10), hm.Entries())
}

func Test_Heatmap_NegativeCountIsRejected(t *testing.T) {
	hm := buildTestHeatmap(t)

	err := hm.IncrementBy(0, 10, -1)
	assert.ErrorIs(t, err, heatmap.ErrNegativeCount)
	assert.Equal(t, uint64(0), hm.Entries())
}

func Test_Heatmap_RejectedValueReportsCause(t *testing.T) {
	hm := buildTestHeatmap(t)

	err := hm.Increment(0, heatmap.DefaultMaxValue*10)
	assert.ErrorIs(t, err, heatmap.ErrRecordFailed)
}

func Test_Heatmap_Clear(t *testing.T) {
	hm := buildTestHeatmap(t)

	require.NoError(t, hm.IncrementBy(0, 10, 3))
	require.NoError(t, hm.IncrementBy(59_000_000_000, 20, 5))
	require.NoError(t, hm.Clear(hm.Start()))

	assert.Equal(t, uint64(0), hm.Entries())

	count, err := hm.Get(0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = hm.Get(59_000_000_000, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func Test_Heatmap_ClearRebasesWindow(t *testing.T) {
	hm := buildTestHeatmap(t)

	require.NoError(t, hm.Increment(0, 1))
	require.NoError(t, hm.Clear(120_000_000_000))

	assert.Equal(t, int64(120_000_000_000), hm.Start())
	assert.Equal(t, int64(180_000_000_000), hm.Stop())

	// Timestamps valid under the old window are no longer valid.
	err := hm.Increment(0, 1)
	assert.ErrorIs(t, err, heatmap.ErrSampleTooEarly)

	require.NoError(t, hm.Increment(120_000_000_000, 1))
	count, err := hm.Get(120_000_000_000, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_Heatmap_ClearRejectsUnrepresentableWindow(t *testing.T) {
	hm := buildTestHeatmap(t)
	require.NoError(t, hm.Increment(0, 1))

	err := hm.Clear(-5)
	assert.ErrorIs(t, err, heatmap.ErrNegativeStart)

	// The failed clear must leave the heatmap untouched.
	assert.Equal(t, uint64(1), hm.Entries())
	assert.Equal(t, int64(0), hm.Start())
}

func Test_Heatmap_Percentiles(t *testing.T) {
	hm := buildTestHeatmap(t)

	for i := int64(0); i < 100; i++ {
		require.NoError(t, hm.Increment(0, i+1))
	}

	p50 := hm.Percentiles(0.5)
	require.Len(t, p50, 60)
	assert.InDelta(t, 50, p50[0], 2)
	assert.Equal(t, int64(0), p50[1])
}

func Test_Heatmap_ConstructionFailsWhenBudgetTooSmall(t *testing.T) {
	_, err := heatmap.BuildConfig().
		WithSliceCount(60).
		WithStart(0).
		WithMaxMemory(60 * 64). // 64 bytes per slice cannot hold any counts array
		Build()

	assert.ErrorIs(t, err, histogram.ErrMemoryBudgetTooSmall)
}

func Test_Heatmap_ConstructionFailsOnBadPrecision(t *testing.T) {
	_, err := heatmap.BuildConfig().
		WithPrecision(9).
		WithStart(0).
		Build()

	assert.ErrorIs(t, err, histogram.ErrPrecisionOutOfRange)
}
