// Package align maps timestamps between sources sampled at different
// rates. A fast chart's timestamp is resolved to the bar of a slower chart
// whose time range contains it, falling back to the last available bar when
// the slower chart has not produced a new one yet.
package align

import "sort"

// Index returns the index of the bar containing t, given the bar start
// timestamps of the target source in ascending order.
//
// A timestamp newer than the last bar returns the last index (the target is
// coarser and still building that bar); a timestamp older than the first
// bar returns 0. ok is false only when the target has no bars at all.
func Index(starts []float64, t float64) (int, bool) {
	if len(starts) == 0 {
		return -1, false
	}

	// First bar whose start is strictly after t; the containing bar is the
	// one before it.
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > t })
	if i == 0 {
		return 0, true
	}
	return i - 1, true
}

// BarStarts extracts the start timestamps from a bar history. Helper for
// callers holding []Bar rather than a plain float slice.
func BarStarts[B any](bars []B, start func(B) float64) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = start(b)
	}
	return out
}
