package server

import (
	"context"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/ocr"
	"github.com/qduc/easyocr-go/internal/trace"
)

// mockPipeline is a scriptable ocrPipeline stand-in for tests that never
// load real ONNX models.
type mockPipeline struct {
	results []ocr.Result
	err     error
	closed  bool
	calls   int
}

func (m *mockPipeline) RunSplit(_ context.Context, _, _ imageproc.RasterImage) ([]ocr.Result, error) {
	m.calls++
	return m.results, m.err
}

func (m *mockPipeline) RunSplitTraced(ctx context.Context, det, rec imageproc.RasterImage, w trace.Writer) ([]ocr.Result, error) {
	if w != nil {
		_ = w.AddParams("ocr_options", nil, nil)
	}
	return m.RunSplit(ctx, det, rec)
}

func (m *mockPipeline) Close() error {
	m.closed = true
	return nil
}

func sampleResults() []ocr.Result {
	return []ocr.Result{
		{
			Box:        geom.Polygon{{X: 10, Y: 10}, {X: 100, Y: 10}, {X: 100, Y: 30}, {X: 10, Y: 30}},
			Text:       "Hello World",
			Confidence: 0.92,
		},
	}
}
