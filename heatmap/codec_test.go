package heatmap_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatlens/time-sliced-heatmap-go/heatmap"
)

func Test_Codec_SaveWritesHeaderAndBuckets(t *testing.T) {
	hm := buildTestHeatmap(t)
	require.NoError(t, hm.IncrementBy(0, 100, 3))
	require.NoError(t, hm.IncrementBy(59_000_000_000, 200, 5))

	var buf bytes.Buffer
	require.NoError(t, hm.Save(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "3 0 1000000000 1000000000 60 0", lines[0])
	assert.Equal(t, "0 100 3", lines[1])
	assert.Equal(t, "59000000000 200 5", lines[2])
}

func Test_Codec_SaveIsDeterministic(t *testing.T) {
	hm := buildTestHeatmap(t)
	require.NoError(t, hm.IncrementBy(10_000_000_000, 300, 2))
	require.NoError(t, hm.IncrementBy(10_000_000_000, 100, 4))
	require.NoError(t, hm.IncrementBy(40_000_000_000, 100, 1))

	var first, second bytes.Buffer
	require.NoError(t, hm.Save(&first))
	require.NoError(t, hm.Save(&second))

	assert.Equal(t, first.String(), second.String())

	// Buckets appear in slice order, then in ascending value order.
	lines := strings.Split(strings.TrimRight(first.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "10000000000 100 4", lines[1])
	assert.Equal(t, "10000000000 300 2", lines[2])
	assert.Equal(t, "40000000000 100 1", lines[3])
}

func Test_Codec_RoundTrip(t *testing.T) {
	hm, err := heatmap.BuildConfig().
		WithPrecision(2).
		WithMaxValue(5_000_000).
		WithSliceDuration(2_000_000_000).
		WithSliceCount(30).
		WithStart(1_000_000_000).
		Build()
	require.NoError(t, err)

	recorded := []struct {
		t     int64
		value int64
		count int64
	}{
		{t: 1_000_000_000, value: 1, count: 1},
		{t: 5_000_000_000, value: 4_999_999, count: 12},
		{t: 33_000_000_000, value: 123_456, count: 3},
		{t: 60_999_999_999, value: 42, count: 7},
	}
	for _, r := range recorded {
		require.NoError(t, hm.IncrementBy(r.t, r.value, r.count))
	}

	var buf bytes.Buffer
	require.NoError(t, hm.Save(&buf))

	loaded, err := heatmap.Load(&buf)
	require.NoError(t, err)

	cfg := loaded.Config()
	assert.Equal(t, 2, cfg.Precision())
	assert.Equal(t, int64(5_000_000), cfg.MaxValue())
	assert.Equal(t, int64(2_000_000_000), cfg.SliceDuration())
	assert.Equal(t, 30, cfg.SliceCount())
	assert.Equal(t, int64(1_000_000_000), cfg.Start())
	assert.Equal(t, hm.Entries(), loaded.Entries())

	for _, r := range recorded {
		want, err := hm.Get(r.t, r.value)
		require.NoError(t, err)
		got, err := loaded.Get(r.t, r.value)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func Test_Codec_RoundTripPreservesRebasedWindow(t *testing.T) {
	hm := buildTestHeatmap(t)
	require.NoError(t, hm.Clear(120_000_000_000))
	require.NoError(t, hm.Increment(130_000_000_000, 55))

	var buf bytes.Buffer
	require.NoError(t, hm.Save(&buf))

	loaded, err := heatmap.Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, int64(120_000_000_000), loaded.Start())
	assert.Equal(t, int64(180_000_000_000), loaded.Stop())

	count, err := loaded.Get(130_000_000_000, 55)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_Codec_RoundTripOfEmptyHeatmap(t *testing.T) {
	hm := buildTestHeatmap(t)

	var buf bytes.Buffer
	require.NoError(t, hm.Save(&buf))

	loaded, err := heatmap.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), loaded.Entries())
}

//nolint:funlen
func Test_Codec_LoadErrorCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "empty_input",
			input: "",
		},
		{
			name:  "header_with_too_few_tokens",
			input: "3 0 1000000000 1000000000 60\n",
		},
		{
			name:  "header_with_too_many_tokens",
			input: "3 0 1000000000 1000000000 60 0 99\n",
		},
		{
			name:  "header_with_non_integer_token",
			input: "3 0 abc 1000000000 60 0\n",
		},
		{
			name:  "header_with_invalid_window",
			input: "3 0 1000000000 0 60 0\n",
		},
		{
			name:  "bucket_with_two_tokens",
			input: "3 0 1000000000 1000000000 60 0\n0 100\n",
		},
		{
			name:  "bucket_with_four_tokens",
			input: "3 0 1000000000 1000000000 60 0\n0 100 3 9\n",
		},
		{
			name:  "bucket_with_non_integer_count",
			input: "3 0 1000000000 1000000000 60 0\n0 100 x\n",
		},
		{
			name:  "bucket_outside_window",
			input: "3 0 1000000000 1000000000 60 0\n61000000000 100 3\n",
		},
		{
			name:  "bucket_value_above_max",
			input: "3 0 1000000000 1000000000 60 0\n0 100000000000 3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := heatmap.Load(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, heatmap.ErrMalformedState)
		})
	}
}

func Test_Codec_FileRoundTrip(t *testing.T) {
	hm := buildTestHeatmap(t)
	require.NoError(t, hm.IncrementBy(12_000_000_000, 777, 4))

	path := filepath.Join(t.TempDir(), "state.heatmap")
	require.NoError(t, hm.SaveFile(path))

	loaded, err := heatmap.LoadFile(path)
	require.NoError(t, err)

	count, err := loaded.Get(12_000_000_000, 777)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func Test_Codec_LoadFileSurfacesOpenError(t *testing.T) {
	_, err := heatmap.LoadFile(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func Test_Codec_SaveFileSurfacesCreateError(t *testing.T) {
	hm := buildTestHeatmap(t)

	err := hm.SaveFile(filepath.Join(t.TempDir(), "missing-dir", "state.heatmap"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
