// Package heatmap provides a fixed-capacity, time-windowed histogram
// aggregator: a bounded time span partitioned into equal-duration slices,
// each slice holding a complete value-distribution histogram.
//
// Callers record (timestamp, value, count) observations and later query
// per-slice distributions, report time-series percentiles, or merge
// independently configured heatmaps by timestamp realignment.
//
// All memory is allocated at construction time; recording never grows the
// structure. The package performs no internal locking - concurrent use
// requires external synchronization supplied by the caller.
//
// Key types:
//   - Config: immutable parameter set, produced via BuildConfig()
//   - Heatmap: the slice sequence plus its window bounds and entry counter
//   - Slice: a point-in-time snapshot of one slice, yielded by SliceIterator
//   - Snapshot: a JSON-serializable view of full Heatmap state
//
// Common usage pattern:
//
//	cfg, err := heatmap.BuildConfig().
//		WithSliceDuration(time.Second.Nanoseconds()).
//		WithSliceCount(300).
//		WithStart(0).
//		Finalize()
//	if err != nil {
//		// handle error
//	}
//
//	hm, err := heatmap.NewHeatmap(cfg)
//	if err != nil {
//		// handle error
//	}
//
//	_ = hm.Increment(sampledAt, latencyNanos)
//
//	for it := hm.Slices(); it.Next(); {
//		slice := it.Slice()
//		fmt.Println(slice.Start, slice.Histogram.ValueAtQuantile(0.99))
//	}
//
// Heatmap state can be persisted with Save/Load (a stable line-oriented text
// format) or exchanged as JSON via BuildSnapshot/RestoreSnapshot.
package heatmap
