// Package detector implements the CRAFT-style scene-text detector: aspect-
// preserving preprocessing into a padded NCHW tensor, and postprocessing of
// the model's text/link heatmaps into ordered quadrilateral boxes.
package detector

// Options controls detector preprocessing and postprocessing thresholds,
// mirroring spec.md §3's flat options record for the detector-relevant
// fields. Defaults match the EasyOCR reference.
type Options struct {
	CanvasSize    int
	MagRatio      float64
	Align         int
	Mean          [3]float64
	Std           [3]float64
	TextThreshold float64
	LowText       float64
	LinkThreshold float64
}

// DefaultOptions returns the reference detector defaults.
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
	}
}
