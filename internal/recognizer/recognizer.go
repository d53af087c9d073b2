package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/ocrerr"
	"github.com/qduc/easyocr-go/internal/onnxrt"
)

// Recognizer wraps an onnxrt.Runner with CRNN-specific preprocessing and CTC
// decoding. Grounded on the teacher's Recognizer struct (config + session +
// sync.RWMutex around session replacement) generalized to depend on the
// Runner interface, matching internal/detector.Detector's shape.
type Recognizer struct {
	opts    Options
	charset *Charset
	runner  onnxrt.Runner
	mu      sync.RWMutex
}

// NewRecognizer loads modelPath and dictPath and returns a Recognizer bound
// to them. If the model declares a fixed input height, it overrides
// opts.InputHeight (spec §4.F: "inputHeight in options may be raised for
// experimental models", i.e. the model's own declared geometry wins).
func NewRecognizer(modelPath, dictPath string, opts Options, gpu onnxrt.GPUConfig, numThreads int) (*Recognizer, error) {
	if modelPath == "" {
		return nil, ocrerr.Wrap(ocrerr.ErrBadInput, "recognizer model path is empty")
	}
	if dictPath == "" {
		return nil, ocrerr.Wrap(ocrerr.ErrBadInput, "recognizer dictionary path is empty")
	}
	slog.Debug("initializing recognizer", "model_path", modelPath, "dict_path", dictPath, "gpu_enabled", gpu.UseGPU)

	charset, err := LoadCharset(dictPath)
	if err != nil {
		return nil, ocrerr.WrapErr(ocrerr.ErrBadInput, err, "load recognizer charset")
	}

	runner, err := onnxrt.NewORTRunner(modelPath, gpu, numThreads)
	if err != nil {
		return nil, ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "load recognizer model %s", modelPath)
	}

	if name, ok := resolveImageInput(runner); ok {
		if shape, ok := runner.InputShape(name); ok && len(shape) == 4 && shape[2] > 0 {
			opts.InputHeight = int(shape[2])
		}
	}

	return &Recognizer{opts: opts, charset: charset, runner: runner}, nil
}

// NewRecognizerWithRunner binds to an already-constructed Runner and
// charset, used by tests and by callers that manage the inference runtime
// themselves.
func NewRecognizerWithRunner(runner onnxrt.Runner, charset *Charset, opts Options) *Recognizer {
	return &Recognizer{opts: opts, charset: charset, runner: runner}
}

// Close releases the underlying inference session.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runner == nil {
		return nil
	}
	err := r.runner.Close()
	r.runner = nil
	return err
}

// Options returns a copy of the recognizer's configuration.
func (r *Recognizer) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Charset returns the loaded character set.
func (r *Recognizer) Charset() *Charset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.charset
}

// Recognize implements spec §4.H step 5 for a single crop: preprocess, feed
// the image tensor plus a zero placeholder for any secondary text-input the
// model declares, run inference, and greedy-decode the sole output.
func (r *Recognizer) Recognize(ctx context.Context, crop imageproc.RasterImage, ignoreSet map[int]bool) (DecodedText, error) {
	r.mu.RLock()
	runner := r.runner
	opts := r.opts
	charset := r.charset
	r.mu.RUnlock()
	if runner == nil {
		return DecodedText{}, errors.New("recognizer: runner is closed")
	}

	pre, err := Preprocess(crop, opts.InputHeight)
	if err != nil {
		return DecodedText{}, fmt.Errorf("recognizer preprocess: %w", err)
	}

	imageInputName, ok := resolveImageInput(runner)
	if !ok {
		return DecodedText{}, errors.New("recognizer: model declares no inputs")
	}
	feeds := map[string]onnxrt.Tensor{imageInputName: pre.Tensor}
	for _, name := range runner.InputNames() {
		if name == imageInputName {
			continue
		}
		placeholder, err := onnxrt.NewInt64Tensor([]int64{0}, []int64{1, 1})
		if err != nil {
			return DecodedText{}, fmt.Errorf("recognizer: build placeholder input %q: %w", name, err)
		}
		feeds[name] = placeholder
	}

	raw, err := runner.Run(ctx, feeds)
	if err != nil {
		return DecodedText{}, ocrerr.WrapErr(ocrerr.ErrInference, err, "recognizer inference")
	}

	logits, shape, err := soleOutput(raw)
	if err != nil {
		return DecodedText{}, err
	}

	decoded, err := DecodeGreedy(logits, shape, charset, opts.Blank, ignoreSet, false)
	if err != nil {
		return DecodedText{}, err
	}
	if len(decoded) == 0 {
		return DecodedText{}, errors.New("recognizer: decoder produced no sequence")
	}
	result := decoded[0]
	result.Text = PostProcessText(result.Text, opts.Clean)
	return result, nil
}

// resolveImageInput picks the declared input that carries the image tensor:
// the one with a rank-4 [N,C,H,W] shape. Falls back to the first declared
// input name if no input reports a usable shape (test doubles commonly
// don't).
func resolveImageInput(runner onnxrt.Runner) (string, bool) {
	names := runner.InputNames()
	if len(names) == 0 {
		return "", false
	}
	for _, name := range names {
		if shape, ok := runner.InputShape(name); ok && len(shape) == 4 {
			return name, true
		}
	}
	return names[0], true
}

// soleOutput returns the sole entry of a single-output model's result map.
func soleOutput(raw map[string]onnxrt.Tensor) ([]float32, []int64, error) {
	if len(raw) != 1 {
		return nil, nil, fmt.Errorf("recognizer: expected 1 output tensor, got %d", len(raw))
	}
	for _, t := range raw {
		return t.Data, t.Shape, nil
	}
	return nil, nil, errors.New("recognizer: unreachable")
}
