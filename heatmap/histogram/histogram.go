package histogram

import (
	"errors"
	"fmt"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// MinPrecision is the lowest number of significant value digits supported.
	MinPrecision = 1

	// MaxPrecision is the highest number of significant value digits supported.
	MaxPrecision = 5

	lowestDiscernibleValue = 1
)

var (
	// ErrPrecisionOutOfRange is returned when the requested precision is not
	// within [MinPrecision, MaxPrecision].
	ErrPrecisionOutOfRange = errors.New("precision must be between 1 and 5 significant digits")

	// ErrMaxValueTooSmall is returned when the requested maximum value is not positive.
	ErrMaxValueTooSmall = errors.New("max value must be positive")

	// ErrMemoryBudgetTooSmall is returned when no supported precision fits
	// the requested byte budget.
	ErrMemoryBudgetTooSmall = errors.New("memory budget too small for any supported precision")

	// ErrNegativeValue is returned when a negative value is recorded.
	ErrNegativeValue = errors.New("negative value supplied")

	// ErrNegativeCount is returned when a negative count is recorded.
	ErrNegativeCount = errors.New("negative count supplied")
)

// Config carries the construction parameters for a Histogram.
type Config struct {
	// MaxValue is the largest value the histogram can record.
	MaxValue int64

	// Precision is the number of significant value digits to keep.
	Precision int

	// MaxMemory is the byte budget for the histogram's counts array;
	// zero means unbounded.
	MaxMemory int
}

// Bucket is one non-zero entry of a Histogram: the bucket's lowest
// equivalent value and the number of recordings that quantized into it.
type Bucket struct {
	Value int64
	Count int64
}

// Histogram records a value distribution with a bounded degree of precision
// and a footprint fixed at construction time.
type Histogram struct {
	hdr       *hdrhistogram.Histogram
	precision int
}

// New creates a Histogram from the given Config.
//
// When Config.MaxMemory is positive and the counts array for the requested
// precision would exceed it, the precision is reduced one significant digit
// at a time until the footprint fits the budget. ErrMemoryBudgetTooSmall is
// returned when even MinPrecision does not fit.
func New(cfg Config) (*Histogram, error) {
	if cfg.Precision < MinPrecision || cfg.Precision > MaxPrecision {
		return nil, ErrPrecisionOutOfRange
	}

	if cfg.MaxValue <= 0 {
		return nil, ErrMaxValueTooSmall
	}

	precision := cfg.Precision
	hdr := hdrhistogram.New(lowestDiscernibleValue, cfg.MaxValue, precision)

	if cfg.MaxMemory > 0 {
		for hdr.ByteSize() > cfg.MaxMemory && precision > MinPrecision {
			precision--
			hdr = hdrhistogram.New(lowestDiscernibleValue, cfg.MaxValue, precision)
		}

		if hdr.ByteSize() > cfg.MaxMemory {
			return nil, ErrMemoryBudgetTooSmall
		}
	}

	return &Histogram{hdr: hdr, precision: precision}, nil
}

// IncrementBy records value count times. A value above the configured
// maximum is rejected with an error from the underlying HDR histogram;
// nothing is recorded in that case.
func (h *Histogram) IncrementBy(value int64, count int64) error {
	if value < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeValue, value)
	}

	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}

	return h.hdr.RecordValues(value, count)
}

// Get returns the count recorded for the bucket the given value quantizes
// into, or zero when nothing quantized there. Looking up a value that was
// never recorded is not an error.
func (h *Histogram) Get(value int64) int64 {
	for _, bar := range h.hdr.Distribution() {
		if bar.From <= value && value <= bar.To {
			return bar.Count
		}
	}

	return 0
}

// Clear resets every count to zero, keeping the allocated counts array.
func (h *Histogram) Clear() {
	h.hdr.Reset()
}

// Clone returns an independent copy; later mutation of either histogram is
// not observed by the other.
func (h *Histogram) Clone() *Histogram {
	return &Histogram{
		hdr:       hdrhistogram.Import(h.hdr.Export()),
		precision: h.precision,
	}
}

// Buckets returns the non-zero buckets in ascending value order. The
// returned slice is freshly allocated; callers may keep or modify it.
func (h *Histogram) Buckets() []Bucket {
	var buckets []Bucket
	for _, bar := range h.hdr.Distribution() {
		if bar.Count == 0 {
			continue
		}

		buckets = append(buckets, Bucket{Value: bar.From, Count: bar.Count})
	}

	return buckets
}

// Total returns the number of recordings across all buckets.
func (h *Histogram) Total() int64 {
	return h.hdr.TotalCount()
}

// ValueAtQuantile returns the recorded value at the given quantile q in
// [0.0, 1.0], e.g. 0.99 for the 99th percentile.
func (h *Histogram) ValueAtQuantile(q float64) int64 {
	return h.hdr.ValueAtQuantile(q * 100)
}

// Mean returns the arithmetic mean of all recorded values.
func (h *Histogram) Mean() float64 {
	return h.hdr.Mean()
}

// Min returns the smallest recorded value, or zero when empty.
func (h *Histogram) Min() int64 {
	return h.hdr.Min()
}

// Max returns the largest recorded value, or zero when empty.
func (h *Histogram) Max() int64 {
	return h.hdr.Max()
}

// MaxValue returns the largest value this histogram can record.
func (h *Histogram) MaxValue() int64 {
	return h.hdr.HighestTrackableValue()
}

// Precision returns the effective significant digits, which may be lower
// than requested when a memory budget forced a step-down.
func (h *Histogram) Precision() int {
	return h.precision
}

// Footprint returns the byte size of the counts array.
func (h *Histogram) Footprint() int {
	return h.hdr.ByteSize()
}

// Equals reports whether both histograms hold identical configuration and
// counts.
func (h *Histogram) Equals(other *Histogram) bool {
	return h.hdr.Equals(other.hdr)
}
