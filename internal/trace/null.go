package trace

import (
	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
)

// NullWriter discards every step. The zero value is ready to use; pipeline
// call sites that construct a Writer only when tracing is requested can
// default to NullWriter{} instead of branching on a nil interface.
type NullWriter struct{}

func (NullWriter) AddImage(string, imageproc.RasterImage, map[string]any) error { return nil }
func (NullWriter) AddTensor(string, []float32, []int64, string, string, map[string]any) error {
	return nil
}
func (NullWriter) AddBoxes(string, []geom.Polygon, map[string]any) error { return nil }
func (NullWriter) AddParams(string, any, map[string]any) error          { return nil }
func (NullWriter) Close() error                                        { return nil }
