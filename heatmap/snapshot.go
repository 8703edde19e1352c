package heatmap

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidSnapshotJSON is returned when snapshot JSON data is malformed or invalid.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrSnapshotWindowInvalid is returned when a snapshot's window parameters are not usable.
	ErrSnapshotWindowInvalid = errors.New("snapshot window parameters are not valid")

	// ErrSnapshotBucketOutOfWindow is returned when a snapshot bucket's slice
	// timestamp falls outside the snapshot's own window.
	ErrSnapshotBucketOutOfWindow = errors.New("snapshot bucket is outside the snapshot window")
)

// SnapshotBucket is one non-zero bucket of a Snapshot, addressed by the
// absolute start timestamp of its slice.
type SnapshotBucket struct {
	SliceStart UnixNanos `json:"slice_start"`
	Value      int64     `json:"value"`
	Count      int64     `json:"count"`
}

// Snapshot represents full Heatmap state in a structured, JSON-serializable
// form: the configuration fields, the current window origin, and every
// non-zero bucket in slice order. It carries the same information as the
// text format written by Save, for callers exchanging heatmaps as JSON
// rather than files.
type Snapshot struct {
	Precision     int              `json:"precision"`
	MaxMemory     int              `json:"max_memory"`
	MaxValue      int64            `json:"max_value"`
	SliceDuration int64            `json:"slice_duration"`
	SliceCount    int              `json:"slice_count"`
	Start         UnixNanos        `json:"start"`
	Entries       uint64           `json:"entries"`
	Buckets       []SnapshotBucket `json:"buckets"`
}

// BuildSnapshot captures the current state of the Heatmap. The snapshot is
// fully detached: later mutation of the Heatmap does not affect it.
func BuildSnapshot(h *Heatmap) Snapshot {
	cfg := h.config

	var buckets []SnapshotBucket
	for index, slice := range h.store.slices {
		sliceStart := h.store.sliceStart(index)
		for _, bucket := range slice.Buckets() {
			buckets = append(buckets, SnapshotBucket{
				SliceStart: sliceStart,
				Value:      bucket.Value,
				Count:      bucket.Count,
			})
		}
	}

	return Snapshot{
		Precision:     cfg.Precision(),
		MaxMemory:     cfg.MaxMemory(),
		MaxValue:      cfg.MaxValue(),
		SliceDuration: cfg.SliceDuration(),
		SliceCount:    cfg.SliceCount(),
		Start:         h.store.start,
		Entries:       h.entries,
		Buckets:       buckets,
	}
}

// Validate ensures the snapshot describes a constructible window and that
// every bucket falls inside it.
func (s Snapshot) Validate() error {
	_, err := s.config()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotWindowInvalid, err)
	}

	stop := s.Start + s.SliceDuration*int64(s.SliceCount)
	for _, bucket := range s.Buckets {
		if bucket.SliceStart < s.Start || bucket.SliceStart >= stop {
			return fmt.Errorf("%w: slice start %d", ErrSnapshotBucketOutOfWindow, bucket.SliceStart)
		}
	}

	return nil
}

// MarshalJSON encodes the snapshot.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	return jsoniter.ConfigFastest.Marshal(plain(s))
}

// DecodeSnapshot parses and validates snapshot JSON previously produced by
// marshaling a Snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if !jsoniter.ConfigFastest.Valid(data) {
		return Snapshot{}, ErrInvalidSnapshotJSON
	}

	var s Snapshot
	if err := jsoniter.ConfigFastest.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshotJSON, err)
	}

	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}

	return s, nil
}

// RestoreSnapshot builds a fresh Heatmap and replays the snapshot's buckets
// into it. The snapshot is validated first, so restoring either yields the
// full captured state or fails without a partial result.
func RestoreSnapshot(s Snapshot, options ...Option) (*Heatmap, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	h, err := NewHeatmap(cfg, options...)
	if err != nil {
		return nil, err
	}

	for _, bucket := range s.Buckets {
		if err := h.IncrementBy(bucket.SliceStart, bucket.Value, bucket.Count); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func (s Snapshot) config() (Config, error) {
	return BuildConfig().
		WithPrecision(s.Precision).
		WithMaxMemory(s.MaxMemory).
		WithMaxValue(s.MaxValue).
		WithSliceDuration(s.SliceDuration).
		WithSliceCount(s.SliceCount).
		WithStart(s.Start).
		Finalize()
}
