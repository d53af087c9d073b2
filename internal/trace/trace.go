// Package trace implements the pipeline's optional debug-tracing sink
// (spec.md §6): a sequence of named steps of kind image, tensor, boxes, or
// params, emitted at fixed points through the pipeline so independent
// implementations can be diffed stage by stage.
package trace

import (
	"math"
	"strings"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
)

// Kind is one of the four trace step kinds named in spec.md §6.
type Kind string

const (
	KindImage  Kind = "image"
	KindTensor Kind = "tensor"
	KindBoxes  Kind = "boxes"
	KindParams Kind = "params"
)

// Writer receives named trace steps as the pipeline runs. A nil-safe no-op
// implementation (NullWriter) lets call sites invoke these methods
// unconditionally without branching on whether tracing is enabled.
type Writer interface {
	AddImage(name string, img imageproc.RasterImage, meta map[string]any) error
	AddTensor(name string, data []float32, shape []int64, layout, colorSpace string, meta map[string]any) error
	AddBoxes(name string, boxes []geom.Polygon, meta map[string]any) error
	AddParams(name string, params any, meta map[string]any) error
	Close() error
}

// Step names are fixed exactly as listed in spec.md §6 so that a trace
// produced by this pipeline can be diffed step-for-step against a trace from
// any other implementation (including the Python reference).
const (
	StepLoadImage                  = "load_image"
	StepOCROptions                 = "ocr_options"
	StepResizeAspectRatio          = "resize_aspect_ratio"
	StepPadToStride                = "pad_to_stride"
	StepNormalizeMeanVariance      = "normalize_mean_variance"
	StepToTensorLayout             = "to_tensor_layout"
	StepDetectorInputFinal         = "detector_input_final"
	StepDetectorRawOutputText      = "detector_raw_output_text"
	StepDetectorRawOutputLink      = "detector_raw_output_link"
	StepHeatmapText                = "heatmap_text"
	StepHeatmapLink                = "heatmap_link"
	StepThresholdAndBoxDecode      = "threshold_and_box_decode"
	StepAdjustCoordinatesOriginal  = "adjust_coordinates_to_original"
	StepDetectorBoxesHorizontal    = "detector_boxes_horizontal"
	StepDetectorBoxesFree          = "detector_boxes_free"
	StepDetectorBoxesOrdered       = "detector_boxes_ordered"
	StepRecognizerResultsPreMerge  = "recognizer_results_pre_merge"
	StepRecognizerResultsPostMerge = "recognizer_results_post_merge"
)

// sanitizeStepName mirrors original_source/python_reference/trace_writer.py's
// _sanitize_step_name: lowercase, collapse any run of non [a-z0-9] into a
// single underscore, trim leading/trailing underscores, default to "step".
func sanitizeStepName(name string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, ch := range strings.ToLower(strings.TrimSpace(name)) {
		ok := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if ok {
			b.WriteRune(ch)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "step"
	}
	return s
}

// stats mirrors trace_writer.py's _stats: min/max/mean/population-std over a
// float32 buffer, zero-valued for an empty buffer.
func stats(data []float32) map[string]float64 {
	if len(data) == 0 {
		return map[string]float64{"min": 0, "max": 0, "mean": 0, "std": 0}
	}
	min64, max64 := float64(data[0]), float64(data[0])
	var sum float64
	for _, v := range data {
		f := float64(v)
		if f < min64 {
			min64 = f
		}
		if f > max64 {
			max64 = f
		}
		sum += f
	}
	mean := sum / float64(len(data))
	var variance float64
	for _, v := range data {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(data))
	return map[string]float64{
		"min":  min64,
		"max":  max64,
		"mean": mean,
		"std":  math.Sqrt(variance),
	}
}
