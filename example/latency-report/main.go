// Command latency-report demonstrates the heatmap library: it records a
// minute of synthetic request latencies, prints per-second percentiles,
// merges a second coarser heatmap, and round-trips the state through the
// text codec.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/heatlens/time-sliced-heatmap-go/heatmap"
	"github.com/heatlens/time-sliced-heatmap-go/heatmap/oteladapters"
)

const (
	sliceDuration = int64(time.Second)
	sliceCount    = 60
	samplesPerSec = 500
	maxLatency    = int64(time.Second)
)

func main() {
	logger := oteladapters.NewSlogLoggerWithHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	hm, err := heatmap.BuildConfig().
		WithSliceDuration(sliceDuration).
		WithSliceCount(sliceCount).
		WithMaxValue(maxLatency).
		WithStart(0).
		Build(heatmap.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "building heatmap failed:", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(42))
	recordSyntheticLatencies(hm, rng)

	fmt.Printf("recorded %d samples across [%d, %d)\n\n", hm.Entries(), hm.Start(), hm.Stop())
	printPercentiles(hm)

	// A second heatmap with 10s slices over the same span merges cleanly
	// into the fine-grained one because merge realigns by absolute time.
	coarse, err := heatmap.BuildConfig().
		WithSliceDuration(10 * sliceDuration).
		WithSliceCount(sliceCount / 10).
		WithMaxValue(maxLatency).
		WithStart(0).
		Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "building coarse heatmap failed:", err)
		os.Exit(1)
	}

	recordSyntheticLatencies(coarse, rng)
	dropped := hm.Merge(coarse)
	fmt.Printf("\nmerged coarse heatmap: %d entries now, %d dropped\n", hm.Entries(), dropped)

	runID := uuid.New()
	path := filepath.Join(os.TempDir(), fmt.Sprintf("latency-report-%s.heatmap", runID))

	if err := hm.SaveFile(path); err != nil {
		fmt.Fprintln(os.Stderr, "saving heatmap failed:", err)
		os.Exit(1)
	}

	reloaded, err := heatmap.LoadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading heatmap failed:", err)
		os.Exit(1)
	}

	fmt.Printf("saved to %s and reloaded: %d entries\n", path, reloaded.Entries())
}

// recordSyntheticLatencies fills every slice with a right-skewed latency
// distribution: a fast mode around 2ms and a slow tail up to ~800ms.
func recordSyntheticLatencies(hm *heatmap.Heatmap, rng *rand.Rand) {
	for t := hm.Start(); t < hm.Stop(); t += sliceDuration {
		for i := 0; i < samplesPerSec; i++ {
			latency := int64(2*time.Millisecond) + int64(rng.ExpFloat64()*float64(3*time.Millisecond))
			if rng.Intn(100) == 0 {
				latency = int64(rng.Intn(int(800 * time.Millisecond)))
			}

			if err := hm.Increment(t, latency); err != nil {
				fmt.Fprintln(os.Stderr, "recording sample failed:", err)
			}
		}
	}
}

func printPercentiles(hm *heatmap.Heatmap) {
	fmt.Println("slice start   p50         p90         p99")
	for it := hm.Slices(); it.Next(); {
		slice := it.Slice()
		if slice.Histogram.Total() == 0 {
			continue
		}

		fmt.Printf("%-12d  %-10v  %-10v  %-10v\n",
			slice.Start,
			time.Duration(slice.Histogram.ValueAtQuantile(0.50)),
			time.Duration(slice.Histogram.ValueAtQuantile(0.90)),
			time.Duration(slice.Histogram.ValueAtQuantile(0.99)),
		)
	}
}
