package heatmap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedState is returned when persisted heatmap state cannot be
// parsed. It is recoverable: Load fails with a descriptive error instead of
// aborting, and the reader is left wherever parsing stopped.
var ErrMalformedState = errors.New("persisted heatmap state is malformed")

const headerTokenCount = 6
const bucketTokenCount = 3

// Save writes the full Heatmap state to w in a stable line-oriented text
// format:
//
//	precision maxMemory maxValue sliceDuration sliceCount start
//	sliceStart value count
//	...
//
// The first line carries the six configuration integers (start is the
// current window origin, which differs from Config.Start after Clear).
// Every following line is one non-zero bucket, in slice order then bucket
// order, so the output is deterministic for a given state.
func (h *Heatmap) Save(w io.Writer) error {
	saveStarted := time.Now()

	buffered := bufio.NewWriter(w)

	cfg := h.config
	_, err := fmt.Fprintf(buffered, "%d %d %d %d %d %d\n",
		cfg.Precision(), cfg.MaxMemory(), cfg.MaxValue(),
		cfg.SliceDuration(), cfg.SliceCount(), h.store.start,
	)
	if err != nil {
		return fmt.Errorf("writing heatmap header failed: %w", err)
	}

	for index, slice := range h.store.slices {
		sliceStart := h.store.sliceStart(index)
		for _, bucket := range slice.Buckets() {
			_, err := fmt.Fprintf(buffered, "%d %d %d\n", sliceStart, bucket.Value, bucket.Count)
			if err != nil {
				return fmt.Errorf("writing heatmap bucket failed: %w", err)
			}
		}
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flushing heatmap state failed: %w", err)
	}

	h.logOperation(logActionSave,
		logAttrEntries, h.entries,
		logAttrDurationMS, toMilliseconds(time.Since(saveStarted)),
	)
	h.recordDurationMetrics(metricCodecDuration, time.Since(saveStarted), logActionSave)

	return nil
}

// SaveFile writes the Heatmap state to the file at path, creating or
// truncating it. File creation errors are surfaced to the caller.
func (h *Heatmap) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		h.logError("creating heatmap state file failed", err)
		return err
	}

	if err := h.Save(file); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

// Load reconstructs a Heatmap from state previously written by Save.
//
// The header line is parsed into a Config, a fresh Heatmap is built from
// it, and every bucket line is replayed through IncrementBy. A line whose
// token count or token values cannot be parsed fails the whole load with an
// error wrapping ErrMalformedState; partial state is never returned.
func Load(r io.Reader, options ...Option) (*Heatmap, error) {
	loadStarted := time.Now()

	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading heatmap header failed: %w", err)
		}

		return nil, fmt.Errorf("%w: missing header line", ErrMalformedState)
	}

	cfg, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	h, err := NewHeatmap(cfg, options...)
	if err != nil {
		return nil, err
	}

	line := 1
	for scanner.Scan() {
		line++

		sliceStart, value, count, err := parseBucket(scanner.Text(), line)
		if err != nil {
			return nil, err
		}

		if err := h.IncrementBy(sliceStart, value, count); err != nil {
			return nil, fmt.Errorf("%w: line %d: bucket not replayable: %w", ErrMalformedState, line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading heatmap state failed: %w", err)
	}

	h.logOperation(logActionLoad,
		logAttrEntries, h.entries,
		logAttrDurationMS, toMilliseconds(time.Since(loadStarted)),
	)
	h.recordDurationMetrics(metricCodecDuration, time.Since(loadStarted), logActionLoad)

	return h, nil
}

// LoadFile reconstructs a Heatmap from the file at path. File open errors
// are surfaced to the caller.
func LoadFile(path string, options ...Option) (*Heatmap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return Load(file, options...)
}

func parseHeader(text string) (Config, error) {
	tokens := strings.Fields(text)
	if len(tokens) != headerTokenCount {
		return Config{}, fmt.Errorf(
			"%w: header has %d tokens, want %d", ErrMalformedState, len(tokens), headerTokenCount)
	}

	numbers := make([]int64, headerTokenCount)
	for i, token := range tokens {
		number, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: header token %q is not an integer", ErrMalformedState, token)
		}

		numbers[i] = number
	}

	cfg, err := BuildConfig().
		WithPrecision(int(numbers[0])).
		WithMaxMemory(int(numbers[1])).
		WithMaxValue(numbers[2]).
		WithSliceDuration(numbers[3]).
		WithSliceCount(int(numbers[4])).
		WithStart(numbers[5]).
		Finalize()
	if err != nil {
		return Config{}, fmt.Errorf("%w: header: %w", ErrMalformedState, err)
	}

	return cfg, nil
}

func parseBucket(text string, line int) (sliceStart, value, count int64, err error) {
	tokens := strings.Fields(text)
	if len(tokens) != bucketTokenCount {
		return 0, 0, 0, fmt.Errorf(
			"%w: line %d has %d tokens, want %d", ErrMalformedState, line, len(tokens), bucketTokenCount)
	}

	numbers := make([]int64, bucketTokenCount)
	for i, token := range tokens {
		number, parseErr := strconv.ParseInt(token, 10, 64)
		if parseErr != nil {
			return 0, 0, 0, fmt.Errorf(
				"%w: line %d: token %q is not an integer", ErrMalformedState, line, token)
		}

		numbers[i] = number
	}

	return numbers[0], numbers[1], numbers[2], nil
}
