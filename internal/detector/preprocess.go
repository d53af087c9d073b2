package detector

import (
	"math"

	"github.com/qduc/easyocr-go/internal/imageproc"
)

// PreprocessResult carries the tensor data built for the detector plus the
// bookkeeping needed to back-project detected boxes to original-image
// coordinates (spec §4.B step 6).
type PreprocessResult struct {
	Data      []float32 // NCHW [1,3,H',W']
	Width     int        // padded width W'
	Height    int        // padded height H'
	ScaleX    float64    // resized-before-pad / original width
	ScaleY    float64    // resized-before-pad / original height
	PadRight  int
	PadBottom int
}

// Preprocess implements spec §4.B: aspect-preserving resize capped by
// canvasSize·magRatio, stride-pad to align, ImageNet mean/std normalize,
// transpose to NCHW.
func Preprocess(img imageproc.RasterImage, opts Options) (PreprocessResult, error) {
	longer := img.Width
	if img.Height > longer {
		longer = img.Height
	}
	target := math.Min(float64(opts.CanvasSize), float64(longer)*opts.MagRatio)

	targetW := maxInt(1, int(math.Floor(float64(img.Width)*target/float64(longer))))
	targetH := maxInt(1, int(math.Floor(float64(img.Height)*target/float64(longer))))

	resized := imageproc.ResizeBilinear(img, targetW, targetH)
	scaleX := float64(targetW) / float64(img.Width)
	scaleY := float64(targetH) / float64(img.Height)

	padded, padW, padH := imageproc.PadToStride(resized, opts.Align)

	hwc := imageproc.ToFloatHWC(padded, opts.Mean, opts.Std)
	chw := imageproc.HWCToCHW(hwc, padded.Width, padded.Height, 3)

	return PreprocessResult{
		Data:      chw,
		Width:     padded.Width,
		Height:    padded.Height,
		ScaleX:    scaleX,
		ScaleY:    scaleY,
		PadRight:  padW,
		PadBottom: padH,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
