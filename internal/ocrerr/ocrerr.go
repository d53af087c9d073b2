// Package ocrerr defines the pipeline's error taxonomy as wrapped sentinel
// errors, so callers can distinguish failure kinds with errors.Is without
// depending on concrete error types.
package ocrerr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Each is wrapped with context (path, shape, model
// name) at the point of failure, never replaced — errors.Is(err,
// ErrModelLoad) must still succeed after wrapping.
var (
	// ErrBadInput covers unsupported channel counts, empty images, and
	// non-existent input files.
	ErrBadInput = errors.New("ocr: bad input")

	// ErrModelLoad covers missing model files, unreadable bytes, and ONNX
	// parse failures.
	ErrModelLoad = errors.New("ocr: model load failure")

	// ErrShapeMismatch covers a detector output lacking a 2-channel heatmap
	// or a recognizer output that is not f32.
	ErrShapeMismatch = errors.New("ocr: model shape mismatch")

	// ErrUnsupportedConfig covers unknown language codes and unsupported
	// channel orders.
	ErrUnsupportedConfig = errors.New("ocr: unsupported configuration")

	// ErrInference covers failures propagated from the inference runtime.
	ErrInference = errors.New("ocr: inference failure")
)

// Wrap attaches context to a sentinel kind while preserving errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// WrapErr attaches context and an underlying cause to a sentinel kind.
func WrapErr(kind error, cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), cause)
}
