// Package onnxrt wraps ONNX Runtime behind a small Runner interface so the
// detector and recognizer depend on an abstraction, not a concrete
// inference engine.
package onnxrt

import (
	"errors"
	"fmt"
)

// DType identifies a tensor's element type. Only the types the detector and
// recognizer models actually use are supported.
type DType int

const (
	DTypeFloat32 DType = iota
	DTypeInt32
	DTypeUint8
	DTypeInt64
)

// Tensor is a row-major numeric tensor with an explicit shape, passed across
// the Runner boundary (spec §6). Data holds float32 elements; Int64Data holds
// elements for DTypeInt64 feeds (the recognizer's secondary text-input
// placeholder, spec §4.H step 5). Exactly one of the two is populated,
// selected by DType.
type Tensor struct {
	Data      []float32
	Int64Data []int64
	Shape     []int64
	DType     DType
}

// NewInt64Tensor validates that product(shape) == len(data) before
// constructing an int64 tensor, used for placeholder inputs a model declares
// but the pipeline has no real value for.
func NewInt64Tensor(data []int64, shape []int64) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("onnxrt: nil tensor data")
	}
	want := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("onnxrt: non-positive dimension in shape %v", shape)
		}
		want *= d
	}
	if int64(len(data)) != want {
		return Tensor{}, fmt.Errorf("onnxrt: data length %d != product(shape) %d for shape %v", len(data), want, shape)
	}
	return Tensor{Int64Data: data, Shape: append([]int64(nil), shape...), DType: DTypeInt64}, nil
}

// NewTensor validates that product(shape) == len(data) before constructing
// a float32 tensor.
func NewTensor(data []float32, shape []int64) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("onnxrt: nil tensor data")
	}
	want := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("onnxrt: non-positive dimension in shape %v", shape)
		}
		want *= d
	}
	if int64(len(data)) != want {
		return Tensor{}, fmt.Errorf("onnxrt: data length %d != product(shape) %d for shape %v", len(data), want, shape)
	}
	return Tensor{Data: data, Shape: append([]int64(nil), shape...), DType: DTypeFloat32}, nil
}

// NewImageTensor builds a single-image NCHW tensor of shape [1, c, h, w].
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	return NewTensor(data, []int64{1, int64(c), int64(h), int64(w)})
}

// ValidateNCHW reports whether shape is a well-formed 4D [N,C,H,W] shape.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("onnxrt: shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("onnxrt: dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}
