// Package grouping classifies detector output polygons as horizontal or
// free-form, clusters horizontals into text lines, and merges clusters into
// final boxes (spec §4.D).
package grouping

// Options controls box classification and line-merge thresholds, mirroring
// the relevant fields of spec.md §3's flat options record.
type Options struct {
	SlopeThreshold   float64
	YCenterThreshold float64
	HeightThreshold  float64
	WidthThreshold   float64
	AddMargin        float64
	MinSize          float64
}

// DefaultOptions returns the reference defaults.
func DefaultOptions() Options {
	return Options{
		SlopeThreshold:   0.1,
		YCenterThreshold: 0.5,
		HeightThreshold:  0.5,
		WidthThreshold:   0.5,
		AddMargin:        0.1,
		MinSize:          20,
	}
}
