package heatmap

import (
	"errors"
)

var ErrSampleTooEarly = errors.New("sample timestamp is before the heatmap window")
var ErrSampleTooLate = errors.New("sample timestamp is at or past the end of the heatmap window")
var ErrRecordFailed = errors.New("recording value into slice histogram failed")
var ErrNegativeCount = errors.New("negative count supplied")

// UnixNanos is a type alias for int64, representing a point in time as
// nanoseconds since the Unix epoch.
type UnixNanos = int64
