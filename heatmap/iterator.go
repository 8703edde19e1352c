package heatmap

import (
	"github.com/heatlens/time-sliced-heatmap-go/heatmap/histogram"
)

// Slice is a point-in-time view of one slice of a Heatmap: the half-open
// interval [Start, Stop) and an owned copy of its histogram. Later mutation
// of the Heatmap is not observed through a Slice.
type Slice struct {
	Start     UnixNanos
	Stop      UnixNanos
	Histogram *histogram.Histogram
}

// SliceIterator walks the slices of a Heatmap in window order, yielding one
// Slice snapshot per step. It borrows the Heatmap without mutating it; a
// fresh iterator from Slices() always restarts at the first slice.
type SliceIterator struct {
	hm      *Heatmap
	index   int
	current Slice
}

// Slices returns an iterator over snapshots of all slices:
//
//	for it := hm.Slices(); it.Next(); {
//		slice := it.Slice()
//		...
//	}
func (h *Heatmap) Slices() *SliceIterator {
	return &SliceIterator{hm: h}
}

// Next advances to the next slice, snapshotting its histogram. It returns
// false once all SliceCount() slices have been yielded.
func (it *SliceIterator) Next() bool {
	if it.index >= len(it.hm.store.slices) {
		return false
	}

	start := it.hm.store.sliceStart(it.index)
	it.current = Slice{
		Start:     start,
		Stop:      start + it.hm.store.sliceDuration,
		Histogram: it.hm.store.slices[it.index].Clone(),
	}
	it.index++

	return true
}

// Slice returns the snapshot captured by the last successful Next call.
func (it *SliceIterator) Slice() Slice {
	return it.current
}
