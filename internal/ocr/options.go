// Package ocr composes the detector, box grouping, crop builder, and
// recognizer stages into the end-to-end pipeline described by spec.md §4.H.
package ocr

// RecognizerOptions mirrors spec.md §3's nested recognizer sub-record.
// Fields merge field-wise into the parent Options (spec.md §9's "Closure-
// style per-call options" note), never wholesale-replaced.
type RecognizerOptions struct {
	InputHeight   int
	InputWidth    int
	InputChannels int
	Mean          float64
	Std           float64
}

// DefaultRecognizerOptions returns the reference recognizer geometry.
func DefaultRecognizerOptions() RecognizerOptions {
	return RecognizerOptions{
		InputHeight:   32,
		InputWidth:    100,
		InputChannels: 1,
		Mean:          0.5,
		Std:           0.5,
	}
}

// Options is the flat configuration record spec.md §3 describes, covering
// every stage from detector preprocessing through post-recognition line
// merging. Defaults match the EasyOCR reference.
type Options struct {
	CanvasSize    int
	MagRatio      float64
	Align         int
	Mean          [3]float64
	Std           [3]float64
	TextThreshold float64
	LowText       float64
	LinkThreshold float64
	MinSize       float64

	SlopeThreshold   float64
	YCenterThreshold float64
	HeightThreshold  float64
	WidthThreshold   float64
	AddMargin        float64

	RotationInfo []int

	Recognizer RecognizerOptions

	LangList  []string
	Allowlist string
	Blocklist string

	MergeLines  bool
	XThreshold  float64
	YThreshold  float64
	MaxAngleDeg float64
}

// DefaultOptions returns the reference pipeline defaults (spec.md §3's
// table, literal values).
func DefaultOptions() Options {
	return Options{
		CanvasSize:    2560,
		MagRatio:      1.0,
		Align:         32,
		Mean:          [3]float64{0.485, 0.456, 0.406},
		Std:           [3]float64{0.229, 0.224, 0.225},
		TextThreshold: 0.7,
		LowText:       0.4,
		LinkThreshold: 0.4,
		MinSize:       20,

		SlopeThreshold:   0.1,
		YCenterThreshold: 0.5,
		HeightThreshold:  0.5,
		WidthThreshold:   0.5,
		AddMargin:        0.1,

		Recognizer: DefaultRecognizerOptions(),

		MergeLines:  false,
		XThreshold:  1.0,
		YThreshold:  0.5,
		MaxAngleDeg: 10,
	}
}
