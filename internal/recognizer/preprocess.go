package recognizer

import (
	"fmt"
	"math"

	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/onnxrt"
)

// PreprocessResult carries the recognizer-ready tensor plus the effective
// (pre-pad) width, since the decoder does not need it but callers tracing
// the pipeline may.
type PreprocessResult struct {
	Tensor   onnxrt.Tensor
	PaddedW  int
	ResizedW int
	TargetH  int
}

// Preprocess implements spec §4.F end to end: grayscale, two-stage
// aspect-preserving resample (bilinear then bicubic), normalize to
// [-1,1], and replicate-pad right to the image's own derived maxWidth.
func Preprocess(img imageproc.RasterImage, inputHeight int) (PreprocessResult, error) {
	if inputHeight <= 0 {
		return PreprocessResult{}, fmt.Errorf("recognizer: inputHeight must be positive, got %d", inputHeight)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return PreprocessResult{}, fmt.Errorf("recognizer: crop has zero dimension (%dx%d)", img.Width, img.Height)
	}

	gray := imageproc.Grayscale(img)

	ratio := float64(img.Width) / float64(img.Height)
	if ratio < 1 {
		ratio = 1 / ratio
	}

	stage1W := maxInt(1, int(float64(inputHeight)*ratio))
	stage1 := imageproc.ResizeBilinear(gray, stage1W, inputHeight)

	stage1Ratio := float64(stage1W) / float64(inputHeight)
	maxWidth := int(math.Ceil(ratio)) * inputHeight
	resizedW := minInt(maxWidth, int(math.Ceil(float64(inputHeight)*stage1Ratio)))
	resizedW = maxInt(1, resizedW)

	stage2 := imageproc.ResizeBicubic(stage1, resizedW, inputHeight)

	data := normalizeGray(stage2)
	padded := imageproc.ReplicatePadCHWWidth(data, 1, inputHeight, resizedW, maxWidth)

	tensor, err := onnxrt.NewTensor(padded, []int64{1, 1, int64(inputHeight), int64(maxWidth)})
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("recognizer: build tensor: %w", err)
	}

	return PreprocessResult{Tensor: tensor, PaddedW: maxWidth, ResizedW: resizedW, TargetH: inputHeight}, nil
}

// normalizeGray maps a single-channel RasterImage to a CHW float32 buffer
// via pixel/255 then (pixel-0.5)/0.5, per spec §4.F step 4.
func normalizeGray(img imageproc.RasterImage) []float32 {
	out := make([]float32, img.Width*img.Height)
	for i, v := range img.Data[:img.Width*img.Height] {
		scaled := float64(v) / 255
		out[i] = float32((scaled - 0.5) / 0.5)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
