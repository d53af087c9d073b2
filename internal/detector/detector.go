package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/ocrerr"
	"github.com/qduc/easyocr-go/internal/onnxrt"
)

const inputTensorName = "input"

// Result holds a single call's detection output, in both coordinate spaces
// needed by tracing and grouping.
type Result struct {
	Heatmap        []RawBox
	Adjusted       []RawBox
	PreprocessTime time.Duration
	InferenceTime  time.Duration
}

// Detector wraps an onnxrt.Runner with CRAFT-specific preprocessing and
// postprocessing. Grounded on the teacher's Detector struct (config +
// session + sync.RWMutex around session replacement, never around Run
// itself) generalized to depend on the Runner interface instead of a
// concrete onnxruntime_go session, so a test double can stand in without
// linking the native library.
type Detector struct {
	opts   Options
	runner onnxrt.Runner
	mu     sync.RWMutex
}

// NewDetector loads modelPath via onnxrt and returns a Detector bound to it.
func NewDetector(modelPath string, opts Options, gpu onnxrt.GPUConfig, numThreads int) (*Detector, error) {
	if modelPath == "" {
		return nil, ocrerr.Wrap(ocrerr.ErrBadInput, "detector model path is empty")
	}
	slog.Debug("initializing detector", "model_path", modelPath, "gpu_enabled", gpu.UseGPU)

	runner, err := onnxrt.NewORTRunner(modelPath, gpu, numThreads)
	if err != nil {
		return nil, ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "load detector model %s", modelPath)
	}
	return &Detector{opts: opts, runner: runner}, nil
}

// NewDetectorWithRunner binds to an already-constructed Runner, used by
// tests and by callers that manage the inference runtime themselves.
func NewDetectorWithRunner(runner onnxrt.Runner, opts Options) *Detector {
	return &Detector{opts: opts, runner: runner}
}

// Close releases the underlying inference session.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runner == nil {
		return nil
	}
	err := d.runner.Close()
	d.runner = nil
	return err
}

// Options returns a copy of the detector's configuration.
func (d *Detector) Options() Options {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.opts
}

// Detect runs the full detector stage (spec §4.B then §4.C) against a
// decoded image and returns boxes in both heatmap and original-image
// coordinates.
func (d *Detector) Detect(ctx context.Context, img imageproc.RasterImage) (Result, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return Result{}, ocrerr.Wrap(ocrerr.ErrBadInput, "detector input image has zero dimension")
	}

	preStart := time.Now()
	pre, err := Preprocess(img, d.opts)
	if err != nil {
		return Result{}, fmt.Errorf("detector preprocess: %w", err)
	}
	preTime := time.Since(preStart)

	d.mu.RLock()
	runner := d.runner
	d.mu.RUnlock()
	if runner == nil {
		return Result{}, errors.New("detector: runner is closed")
	}

	feeds := map[string]onnxrt.Tensor{
		inputTensorName: {Data: pre.Data, Shape: []int64{1, 3, int64(pre.Height), int64(pre.Width)}, DType: onnxrt.DTypeFloat32},
	}

	inferStart := time.Now()
	raw, err := runner.Run(ctx, feeds)
	if err != nil {
		return Result{}, ocrerr.WrapErr(ocrerr.ErrInference, err, "detector inference")
	}
	inferTime := time.Since(inferStart)

	pair, _, err := NormalizeDetectorOutput(raw)
	if err != nil {
		return Result{}, err
	}

	post := Postprocess(pair, pre.ScaleX, pre.ScaleY, pre.Width, pre.Height, d.opts)

	return Result{
		Heatmap:        post.Heatmap,
		Adjusted:       post.Adjusted,
		PreprocessTime: preTime,
		InferenceTime:  inferTime,
	}, nil
}
