package heatmap

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultPrecision is the number of significant value digits each slice
	// histogram keeps.
	DefaultPrecision = 3

	// DefaultMaxMemory is the default total byte budget (0 = unbounded).
	DefaultMaxMemory = 0

	// DefaultMaxValue is the largest representable value per slice histogram.
	DefaultMaxValue = 1_000_000_000

	// DefaultSliceDuration is one minute, in nanoseconds.
	DefaultSliceDuration = 60_000_000_000

	// DefaultSliceCount yields a one-hour window with DefaultSliceDuration.
	DefaultSliceCount = 60
)

var (
	// ErrZeroSliceDuration is returned when the slice duration is not positive.
	ErrZeroSliceDuration = errors.New("slice duration must be positive")

	// ErrZeroSliceCount is returned when the slice count is not positive.
	ErrZeroSliceCount = errors.New("slice count must be positive")

	// ErrNegativeStart is returned when the window start timestamp is negative.
	ErrNegativeStart = errors.New("window start must not be negative")

	// ErrNegativeMaxMemory is returned when the memory budget is negative.
	ErrNegativeMaxMemory = errors.New("memory budget must not be negative")

	// ErrWindowOverflow is returned when start + sliceDuration*sliceCount
	// does not fit into an int64.
	ErrWindowOverflow = errors.New("heatmap window exceeds the representable time range")
)

// Config is the immutable parameter set a Heatmap is constructed from.
// It should only be produced through BuildConfig.
type Config struct {
	precision     int
	maxMemory     int
	maxValue      int64
	sliceDuration int64
	sliceCount    int
	start         UnixNanos
}

// Precision returns the number of significant value digits kept per slice.
func (c Config) Precision() int {
	return c.precision
}

// MaxMemory returns the total byte budget across all slices (0 = unbounded).
func (c Config) MaxMemory() int {
	return c.maxMemory
}

// MaxValue returns the largest representable value per slice histogram.
func (c Config) MaxValue() int64 {
	return c.maxValue
}

// SliceDuration returns the duration covered by each slice, in nanoseconds.
func (c Config) SliceDuration() int64 {
	return c.sliceDuration
}

// SliceCount returns the number of slices in the window.
func (c Config) SliceCount() int {
	return c.sliceCount
}

// Start returns the window origin timestamp.
func (c Config) Start() UnixNanos {
	return c.start
}

// Stop returns the exclusive end of the window:
// Start() + SliceDuration()*SliceCount().
func (c Config) Stop() UnixNanos {
	return c.start + c.sliceDuration*int64(c.sliceCount)
}

// ConfigBuilder builds a Config, one option per call. Every With* method
// operates on a copy, so partially applied builders can be branched and
// reused without sharing state.
//
// Unset options fall back to the package defaults; an unset start is
// resolved to the current wall-clock time when Finalize is called, which is
// the only place this package reads a clock.
type ConfigBuilder struct {
	config   Config
	startSet bool
}

// BuildConfig creates a ConfigBuilder primed with the package defaults.
// It must eventually be finalized with Finalize() or Build().
func BuildConfig() ConfigBuilder {
	return ConfigBuilder{
		config: Config{
			precision:     DefaultPrecision,
			maxMemory:     DefaultMaxMemory,
			maxValue:      DefaultMaxValue,
			sliceDuration: DefaultSliceDuration,
			sliceCount:    DefaultSliceCount,
		},
	}
}

// WithPrecision sets the significant value digits kept per slice histogram.
func (b ConfigBuilder) WithPrecision(digits int) ConfigBuilder {
	b.config.precision = digits
	return b
}

// WithMaxMemory sets the total byte budget, divided evenly across slices.
// Zero means unbounded.
func (b ConfigBuilder) WithMaxMemory(bytes int) ConfigBuilder {
	b.config.maxMemory = bytes
	return b
}

// WithMaxValue sets the largest representable value per slice histogram.
func (b ConfigBuilder) WithMaxValue(value int64) ConfigBuilder {
	b.config.maxValue = value
	return b
}

// WithSliceDuration sets the duration covered by each slice, in nanoseconds.
func (b ConfigBuilder) WithSliceDuration(nanos int64) ConfigBuilder {
	b.config.sliceDuration = nanos
	return b
}

// WithSliceCount sets the number of slices in the window.
func (b ConfigBuilder) WithSliceCount(count int) ConfigBuilder {
	b.config.sliceCount = count
	return b
}

// WithStart sets the window origin timestamp.
func (b ConfigBuilder) WithStart(start UnixNanos) ConfigBuilder {
	b.config.start = start
	b.startSet = true
	return b
}

// Finalize validates the collected options and returns the Config.
//
// The window invariant is enforced here: sliceDuration and sliceCount must
// be positive and start + sliceDuration*sliceCount must fit into an int64.
// Histogram-level validation (precision range, per-slice memory budget)
// happens when a Heatmap is constructed from the Config.
func (b ConfigBuilder) Finalize() (Config, error) {
	cfg := b.config

	if !b.startSet {
		cfg.start = time.Now().UnixNano()
	}

	switch {
	case cfg.sliceDuration <= 0:
		return Config{}, ErrZeroSliceDuration
	case cfg.sliceCount <= 0:
		return Config{}, ErrZeroSliceCount
	case cfg.start < 0:
		return Config{}, ErrNegativeStart
	case cfg.maxMemory < 0:
		return Config{}, ErrNegativeMaxMemory
	}

	if cfg.sliceDuration > math.MaxInt64/int64(cfg.sliceCount) {
		return Config{}, ErrWindowOverflow
	}

	span := cfg.sliceDuration * int64(cfg.sliceCount)
	if cfg.start > math.MaxInt64-span {
		return Config{}, ErrWindowOverflow
	}

	return cfg, nil
}

// Build finalizes the Config and constructs a Heatmap from it in one step.
func (b ConfigBuilder) Build(options ...Option) (*Heatmap, error) {
	cfg, err := b.Finalize()
	if err != nil {
		return nil, err
	}

	return NewHeatmap(cfg, options...)
}
