package onnxrt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yalue/onnxruntime_go"
)

// Runner is the inference-execution capability every stage of the pipeline
// depends on (spec §6): feed named input tensors in, get named output
// tensors back. The core never imports onnxruntime_go directly — only this
// package does, so a test double can stand in for Runner without linking the
// native library.
type Runner interface {
	Run(ctx context.Context, feeds map[string]Tensor) (map[string]Tensor, error)
	InputShape(name string) ([]int64, bool)
	InputNames() []string
	OutputNames() []string
	Close() error
}

// IOInfo mirrors onnxruntime_go.InputOutputInfo without leaking the
// dependency's type into callers that only need a name and a shape.
type IOInfo struct {
	Name       string
	Dimensions []int64
}

// ORTRunner is the concrete Runner backed by onnxruntime_go's
// DynamicAdvancedSession, grounded on the teacher's internal/detector/
// session.go createSession and internal/detector/detector.go's
// runInferenceCore, generalized from exactly-one-input/exactly-one-output to
// arbitrary named feeds and fetches since the detector here produces two
// heatmaps (text, link) rather than the teacher's single probability map.
type ORTRunner struct {
	mu      sync.RWMutex
	session *onnxruntime_go.DynamicAdvancedSession
	inputs  []IOInfo
	outputs []IOInfo
}

var _ Runner = (*ORTRunner)(nil)

// NewORTRunner loads modelPath and binds all of its declared inputs and
// outputs by name.
func NewORTRunner(modelPath string, gpu GPUConfig, numThreads int) (*ORTRunner, error) {
	if err := ensureEnvironment(gpu.UseGPU); err != nil {
		return nil, err
	}

	inputInfos, outputInfos, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnxrt: read model input/output info for %s: %w", modelPath, err)
	}
	if len(inputInfos) == 0 || len(outputInfos) == 0 {
		return nil, fmt.Errorf("onnxrt: model %s declares no inputs or outputs", modelPath)
	}

	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnxrt: create session options: %w", err)
	}
	defer func() { _ = sessionOptions.Destroy() }()

	if err := ConfigureSessionForGPU(sessionOptions, gpu); err != nil {
		return nil, fmt.Errorf("onnxrt: configure GPU: %w", err)
	}
	if numThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("onnxrt: set thread count: %w", err)
		}
	}

	inputNames := make([]string, len(inputInfos))
	inputs := make([]IOInfo, len(inputInfos))
	for i, in := range inputInfos {
		inputNames[i] = in.Name
		inputs[i] = IOInfo{Name: in.Name, Dimensions: append([]int64(nil), in.Dimensions...)}
	}
	outputNames := make([]string, len(outputInfos))
	outputs := make([]IOInfo, len(outputInfos))
	for i, out := range outputInfos {
		outputNames[i] = out.Name
		outputs[i] = IOInfo{Name: out.Name, Dimensions: append([]int64(nil), out.Dimensions...)}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("onnxrt: create session for %s: %w", modelPath, err)
	}

	return &ORTRunner{session: session, inputs: inputs, outputs: outputs}, nil
}

func ensureEnvironment(useGPU bool) error {
	if err := SetLibraryPath(useGPU); err != nil {
		return fmt.Errorf("onnxrt: set library path: %w", err)
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnxrt: initialize environment: %w", err)
		}
	}
	return nil
}

// InputShape returns the declared dimensions for a named input, as reported
// by the model itself, used to resolve recognizer geometry from the model
// rather than trusting a configured default.
func (r *ORTRunner) InputShape(name string) ([]int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, in := range r.inputs {
		if in.Name == name {
			return append([]int64(nil), in.Dimensions...), true
		}
	}
	return nil, false
}

// InputNames returns the model's declared input names in declaration order.
func (r *ORTRunner) InputNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.inputs))
	for i, in := range r.inputs {
		names[i] = in.Name
	}
	return names
}

// OutputNames returns the model's declared output names in declaration order.
func (r *ORTRunner) OutputNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.outputs))
	for i, o := range r.outputs {
		names[i] = o.Name
	}
	return names
}

// Run executes the session against the named feeds and returns every
// declared output by name. ctx is honored only up to ONNX Runtime's
// synchronous call boundary — onnxruntime_go's Run has no cancellation hook,
// so a cancelled context aborts before the call starts but cannot interrupt
// an in-flight one.
func (r *ORTRunner) Run(ctx context.Context, feeds map[string]Tensor) (map[string]Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	session := r.session
	inputOrder := r.inputs
	outputOrder := r.outputs
	r.mu.RUnlock()

	if session == nil {
		return nil, errors.New("onnxrt: runner is closed")
	}

	inputValues := make([]onnxruntime_go.Value, len(inputOrder))
	for i, in := range inputOrder {
		t, ok := feeds[in.Name]
		if !ok {
			return nil, fmt.Errorf("onnxrt: missing feed %q", in.Name)
		}
		var v onnxruntime_go.Value
		var err error
		if t.DType == DTypeInt64 {
			v, err = onnxruntime_go.NewTensor(onnxruntime_go.NewShape(t.Shape...), t.Int64Data)
		} else {
			v, err = onnxruntime_go.NewTensor(onnxruntime_go.NewShape(t.Shape...), t.Data)
		}
		if err != nil {
			return nil, fmt.Errorf("onnxrt: build input tensor %q: %w", in.Name, err)
		}
		defer func() { _ = v.Destroy() }()
		inputValues[i] = v
	}

	outputValues := make([]onnxruntime_go.Value, len(outputOrder))
	if err := session.Run(inputValues, outputValues); err != nil {
		return nil, fmt.Errorf("onnxrt: inference failed: %w", err)
	}

	results := make(map[string]Tensor, len(outputOrder))
	for i, out := range outputOrder {
		v := outputValues[i]
		defer func() { _ = v.Destroy() }()

		floatTensor, ok := v.(*onnxruntime_go.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("onnxrt: output %q is not float32 (got %T)", out.Name, v)
		}
		shape := floatTensor.GetShape()
		shapeCopy := make([]int64, len(shape))
		for i, v := range shape {
			shapeCopy[i] = v
		}
		results[out.Name] = Tensor{
			Data:  floatTensor.GetData(),
			Shape: shapeCopy,
			DType: DTypeFloat32,
		}
	}
	return results, nil
}

// Close destroys the underlying session. Safe to call more than once.
func (r *ORTRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	if err != nil {
		return fmt.Errorf("onnxrt: destroy session: %w", err)
	}
	return nil
}
