package heatmap

import (
	"github.com/heatlens/time-sliced-heatmap-go/heatmap/histogram"
)

// sliceStore is the fixed-length ordered sequence of slice histograms
// covering the half-open window [start, stop). The histogram slice is
// allocated once at construction and never resized; clearing reuses it.
type sliceStore struct {
	slices        []*histogram.Histogram
	start         UnixNanos
	stop          UnixNanos
	sliceDuration int64
}

// newSliceStore eagerly constructs one histogram per slice. A total memory
// budget is divided evenly across the slices before it is applied.
func newSliceStore(cfg Config) (*sliceStore, error) {
	perSliceMemory := 0
	if cfg.MaxMemory() > 0 {
		perSliceMemory = cfg.MaxMemory() / cfg.SliceCount()
	}

	slices := make([]*histogram.Histogram, 0, cfg.SliceCount())
	for i := 0; i < cfg.SliceCount(); i++ {
		hist, err := histogram.New(histogram.Config{
			MaxValue:  cfg.MaxValue(),
			Precision: cfg.Precision(),
			MaxMemory: perSliceMemory,
		})
		if err != nil {
			return nil, err
		}

		slices = append(slices, hist)
	}

	return &sliceStore{
		slices:        slices,
		start:         cfg.Start(),
		stop:          cfg.Stop(),
		sliceDuration: cfg.SliceDuration(),
	}, nil
}

// indexFor maps a timestamp to its slice index. The window is half-open:
// start is the first valid instant, stop the first invalid one.
func (s *sliceStore) indexFor(t UnixNanos) (int, error) {
	if t < s.start {
		return 0, ErrSampleTooEarly
	}

	if t >= s.stop {
		return 0, ErrSampleTooLate
	}

	return int((t - s.start) / s.sliceDuration), nil
}

// sliceStart returns the start timestamp of the slice at the given index
// under the current window.
func (s *sliceStore) sliceStart(index int) UnixNanos {
	return s.start + int64(index)*s.sliceDuration
}

// rebase clears every slice histogram and moves the window origin to the
// given timestamp, keeping duration and slice count.
func (s *sliceStore) rebase(t UnixNanos) {
	span := s.stop - s.start
	s.start = t
	s.stop = t + span

	for _, hist := range s.slices {
		hist.Clear()
	}
}
