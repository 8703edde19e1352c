// Package histogram provides the per-slice value-distribution histogram
// used by the heatmap package.
//
// It wraps an HDR histogram (github.com/HdrHistogram/hdrhistogram-go)
// behind a small surface: counted recording, per-value lookup, clearing,
// cloning, and iteration over the non-zero buckets. Values are quantized to
// the configured number of significant digits; all values that quantize to
// the same bucket share one count and are reported back as the bucket's
// lowest equivalent value.
//
// Construction can be bounded by a byte budget: when the histogram backing
// the requested precision would exceed the budget, precision is stepped
// down one digit at a time until the footprint fits.
package histogram
