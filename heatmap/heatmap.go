package heatmap

import (
	"fmt"
	"math"
	"time"
)

const (
	logMsgRecordFailed   = "recording sample failed"
	logMsgOperation      = "heatmap operation: "
	logAttrError         = "error"
	logAttrTimestamp     = "timestamp"
	logAttrValue         = "value"
	logAttrCount         = "count"
	logAttrEntries       = "entries"
	logAttrDropped       = "dropped"
	logAttrDurationMS    = "duration_ms"
	logAttrWindowStart   = "window_start"
	logAttrWindowStop    = "window_stop"
	logActionMerge       = "merge"
	logActionClear       = "clear"
	logActionSave        = "save"
	logActionLoad        = "load"
	metricRecordErrors   = "heatmap_record_errors"
	metricMergeDuration  = "heatmap_merge_duration"
	metricMergedEntries  = "heatmap_merged_entries"
	metricDroppedEntries = "heatmap_dropped_entries"
	metricCodecDuration  = "heatmap_codec_duration"
	statusTooEarly       = "sample_too_early"
	statusTooLate        = "sample_too_late"
	statusRecordFailed   = "record_failed"
)

// Heatmap is a fixed-length ordered sequence of slice histograms plus its
// window bounds and a counter of successfully recorded entries.
//
// A Heatmap exclusively owns its histograms; slices handed out through
// Slices() are independent copies. All methods require exclusive access -
// the type performs no internal locking.
type Heatmap struct {
	config           Config
	store            *sliceStore
	entries          uint64
	logger           Logger
	metricsCollector MetricsCollector
}

// Option defines a functional option for configuring a Heatmap.
type Option func(*Heatmap) error

// WithLogger sets the logger for the Heatmap.
// The logger will receive messages at different levels based on the logger's
// configured level:
//
// Debug level: per-sample record failures (development use)
// Info level: merge/clear/save/load operation summaries (production-safe).
func WithLogger(logger Logger) Option {
	return func(h *Heatmap) error {
		h.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Heatmap.
// The collector will receive record error counters and merge/codec
// durations and entry counts.
func WithMetrics(collector MetricsCollector) Option {
	return func(h *Heatmap) error {
		h.metricsCollector = collector
		return nil
	}
}

// NewHeatmap creates a Heatmap from the given Config, eagerly allocating
// one histogram per slice. Construction fails when a slice histogram cannot
// be built, e.g. when the memory budget is too small for the precision
// range.
func NewHeatmap(cfg Config, options ...Option) (*Heatmap, error) {
	store, err := newSliceStore(cfg)
	if err != nil {
		return nil, err
	}

	h := &Heatmap{
		config: cfg,
		store:  store,
	}

	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Config returns the Config the Heatmap was constructed from. Note that
// after Clear the live window bounds differ from Config.Start/Stop; use
// Start and Stop for the current window.
func (h *Heatmap) Config() Config {
	return h.config
}

// Start returns the first valid timestamp of the current window.
func (h *Heatmap) Start() UnixNanos {
	return h.store.start
}

// Stop returns the exclusive end of the current window.
func (h *Heatmap) Stop() UnixNanos {
	return h.store.stop
}

// Entries returns the total count across all successfully recorded
// observations. Failed records are never included. The counter saturates
// at the maximum uint64 instead of wrapping.
func (h *Heatmap) Entries() uint64 {
	return h.entries
}

// Increment records a single observation of value at time t.
func (h *Heatmap) Increment(t UnixNanos, value int64) error {
	return h.IncrementBy(t, value, 1)
}

// IncrementBy records count observations of value at time t.
//
// The timestamp is resolved to a slice first; ErrSampleTooEarly and
// ErrSampleTooLate report timestamps outside [Start(), Stop()). A failure
// from the slice histogram is returned wrapped in ErrRecordFailed. The
// entry counter is only advanced once the record has been committed.
func (h *Heatmap) IncrementBy(t UnixNanos, value int64, count int64) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}

	index, err := h.store.indexFor(t)
	if err != nil {
		h.recordErrorMetrics(statusForIndexError(err))
		return err
	}

	if err := h.store.slices[index].IncrementBy(value, count); err != nil {
		h.recordErrorMetrics(statusRecordFailed)
		h.logRecordFailed(err, t, value, count)

		return fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}

	h.addEntries(uint64(count))

	return nil
}

// Get returns the count recorded for value in the slice covering time t.
// A value that was never recorded reads back as zero; errors are reserved
// for timestamps outside the window.
func (h *Heatmap) Get(t UnixNanos, value int64) (int64, error) {
	index, err := h.store.indexFor(t)
	if err != nil {
		return 0, err
	}

	return h.store.slices[index].Get(value), nil
}

// Merge folds every non-zero bucket of other into h, realigned by the
// absolute start timestamp of the bucket's source slice. The two heatmaps
// may differ in slice duration, slice count, and window origin.
//
// Merging is best-effort: buckets whose source slice falls outside h's
// window (and buckets whose value exceeds h's maximum) are dropped, not
// surfaced as errors. The returned count is the number of dropped
// observations, zero when other's coverage fits entirely inside h's window.
// other is never mutated.
func (h *Heatmap) Merge(other *Heatmap) uint64 {
	mergeStarted := time.Now()
	entriesBefore := h.entries

	var dropped uint64
	for index, slice := range other.store.slices {
		sliceStart := other.store.sliceStart(index)
		for _, bucket := range slice.Buckets() {
			if err := h.IncrementBy(sliceStart, bucket.Value, bucket.Count); err != nil {
				dropped += uint64(bucket.Count)
			}
		}
	}

	h.logOperation(logActionMerge,
		logAttrEntries, h.entries,
		logAttrDropped, dropped,
	)
	h.recordDurationMetrics(metricMergeDuration, time.Since(mergeStarted), logActionMerge)
	h.recordValueMetrics(metricMergedEntries, float64(h.entries-entriesBefore), logActionMerge)
	h.recordValueMetrics(metricDroppedEntries, float64(dropped), logActionMerge)

	return dropped
}

// Clear resets every slice histogram, zeroes the entry counter, and rebases
// the window to start at rebaseTo, keeping slice duration and count.
// Timestamps valid under the old window are no longer valid afterwards.
//
// The rebase timestamp is caller-supplied rather than read from a clock so
// the operation stays deterministic; pass time.Now().UnixNano() for
// wall-clock behavior. ErrWindowOverflow or ErrNegativeStart is returned
// when the rebased window would be unrepresentable, in which case the
// Heatmap is left untouched.
func (h *Heatmap) Clear(rebaseTo UnixNanos) error {
	if rebaseTo < 0 {
		return ErrNegativeStart
	}

	span := h.store.stop - h.store.start
	if rebaseTo > math.MaxInt64-span {
		return ErrWindowOverflow
	}

	h.store.rebase(rebaseTo)
	h.entries = 0

	h.logOperation(logActionClear,
		logAttrWindowStart, h.store.start,
		logAttrWindowStop, h.store.stop,
	)

	return nil
}

// Percentiles returns the value at quantile q (in [0.0, 1.0]) for each
// slice, in slice order, as a time series of length SliceCount().
func (h *Heatmap) Percentiles(q float64) []int64 {
	values := make([]int64, len(h.store.slices))
	for i, slice := range h.store.slices {
		values[i] = slice.ValueAtQuantile(q)
	}

	return values
}

// addEntries advances the entry counter with saturating addition.
func (h *Heatmap) addEntries(count uint64) {
	if h.entries > math.MaxUint64-count {
		h.entries = math.MaxUint64
		return
	}

	h.entries += count
}

func statusForIndexError(err error) string {
	if err == ErrSampleTooEarly {
		return statusTooEarly
	}

	return statusTooLate
}
