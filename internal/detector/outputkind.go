package detector

import (
	"fmt"

	"github.com/qduc/easyocr-go/internal/ocrerr"
	"github.com/qduc/easyocr-go/internal/onnxrt"
)

// OutputKind tags the shape convention a detector ONNX model uses for its
// text/link heatmap pair (spec §9 "Polymorphic detector output shapes").
// Reference exporters disagree on this, so the runner's raw output is
// classified before anything downstream can treat it as a canonical pair.
type OutputKind int

const (
	// OutputKindUnknown means NormalizeDetectorOutput has not classified
	// the output yet, or classification failed.
	OutputKindUnknown OutputKind = iota
	// OutputKindChannelsLast is a single [1,H,W,2] tensor, channel axis last.
	OutputKindChannelsLast
	// OutputKindChannelsFirst is a single [1,2,H,W] tensor, channel axis 1.
	OutputKindChannelsFirst
	// OutputKindNamedPair is two separate tensors named "text" and "link",
	// each [1,1,H,W] or [1,H,W].
	OutputKindNamedPair
)

// HeatmapPair holds the text and link heatmaps at the model's native
// half-resolution output size, plus that size.
type HeatmapPair struct {
	Text   []float32
	Link   []float32
	Width  int
	Height int
}

// NormalizeDetectorOutput classifies raw into one of the three accepted
// shape conventions (spec §6 "Inference runner interface") and returns the
// canonical text/link heatmap pair. Any other shape is rejected explicitly
// with ErrShapeMismatch — there is no silent best-effort fallback.
func NormalizeDetectorOutput(raw map[string]onnxrt.Tensor) (HeatmapPair, OutputKind, error) {
	if t, l, ok := namedPair(raw); ok {
		pair, err := fromNamed(t, l)
		return pair, OutputKindNamedPair, err
	}

	if len(raw) != 1 {
		return HeatmapPair{}, OutputKindUnknown, ocrerr.Wrap(ocrerr.ErrShapeMismatch,
			"expected a single combined detector output or a named text/link pair, got %d outputs", len(raw))
	}
	var only onnxrt.Tensor
	for _, v := range raw {
		only = v
	}

	switch len(only.Shape) {
	case 4:
		n, a, b, c := only.Shape[0], only.Shape[1], only.Shape[2], only.Shape[3]
		if n != 1 {
			return HeatmapPair{}, OutputKindUnknown, ocrerr.Wrap(ocrerr.ErrShapeMismatch,
				"detector output batch dimension must be 1, got %d", n)
		}
		switch {
		case c == 2:
			pair, err := fromChannelsLast(only.Data, int(a), int(b))
			return pair, OutputKindChannelsLast, err
		case a == 2:
			pair, err := fromChannelsFirst(only.Data, int(b), int(c))
			return pair, OutputKindChannelsFirst, err
		default:
			return HeatmapPair{}, OutputKindUnknown, ocrerr.Wrap(ocrerr.ErrShapeMismatch,
				"detector output shape %v has no 2-channel axis", only.Shape)
		}
	default:
		return HeatmapPair{}, OutputKindUnknown, ocrerr.Wrap(ocrerr.ErrShapeMismatch,
			"detector output rank %d not supported (want 4)", len(only.Shape))
	}
}

func namedPair(raw map[string]onnxrt.Tensor) (onnxrt.Tensor, onnxrt.Tensor, bool) {
	t, okT := raw["text"]
	l, okL := raw["link"]
	return t, l, okT && okL
}

func fromNamed(text, link onnxrt.Tensor) (HeatmapPair, error) {
	w, h, err := spatialDims(text.Shape)
	if err != nil {
		return HeatmapPair{}, ocrerr.WrapErr(ocrerr.ErrShapeMismatch, err, "named text tensor")
	}
	wl, hl, err := spatialDims(link.Shape)
	if err != nil {
		return HeatmapPair{}, ocrerr.WrapErr(ocrerr.ErrShapeMismatch, err, "named link tensor")
	}
	if w != wl || h != hl {
		return HeatmapPair{}, ocrerr.Wrap(ocrerr.ErrShapeMismatch,
			"named text/link shapes disagree: text=%v link=%v", text.Shape, link.Shape)
	}
	return HeatmapPair{Text: text.Data, Link: link.Data, Width: w, Height: h}, nil
}

func spatialDims(shape []int64) (int, int, error) {
	switch len(shape) {
	case 2:
		return int(shape[1]), int(shape[0]), nil
	case 3:
		return int(shape[2]), int(shape[1]), nil
	case 4:
		return int(shape[3]), int(shape[2]), nil
	default:
		return 0, 0, fmt.Errorf("unsupported rank %d", len(shape))
	}
}

func fromChannelsLast(data []float32, h, w int) (HeatmapPair, error) {
	n := h * w
	text := make([]float32, n)
	link := make([]float32, n)
	for i := range n {
		text[i] = data[i*2]
		link[i] = data[i*2+1]
	}
	return HeatmapPair{Text: text, Link: link, Width: w, Height: h}, nil
}

func fromChannelsFirst(data []float32, h, w int) (HeatmapPair, error) {
	n := h * w
	text := append([]float32(nil), data[:n]...)
	link := append([]float32(nil), data[n:2*n]...)
	return HeatmapPair{Text: text, Link: link, Width: w, Height: h}, nil
}
