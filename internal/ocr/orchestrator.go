package ocr

import (
	"context"
	"fmt"
	"sort"

	"github.com/qduc/easyocr-go/internal/cropbuild"
	"github.com/qduc/easyocr-go/internal/detector"
	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/grouping"
	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/onnxrt"
	"github.com/qduc/easyocr-go/internal/recognizer"
	"github.com/qduc/easyocr-go/internal/trace"
)

// Pipeline composes the detector, box grouping, crop builder, and recognizer
// stages into spec.md §4.H's orchestrator: a linear chain of pure-function
// stages around two read-only model handles, matching spec.md §5's
// scheduling model (a single call is a sequential chain; no mutable shared
// state beyond the models themselves).
type Pipeline struct {
	detector   *detector.Detector
	recognizer *recognizer.Recognizer
	opts       Options
	trace      trace.Writer
}

// New constructs a Pipeline by loading both ONNX models, deriving each
// stage's own option subset from opts (spec.md §4.H step 1: "resolve
// options... nested recognizer sub-record merged field-wise").
func New(detectorModelPath, recognizerModelPath, dictPath string, opts Options, gpu onnxrt.GPUConfig, numThreads int) (*Pipeline, error) {
	det, err := detector.NewDetector(detectorModelPath, detectorOptionsFrom(opts), gpu, numThreads)
	if err != nil {
		return nil, err
	}
	rec, err := recognizer.NewRecognizer(recognizerModelPath, dictPath, recognizerOptionsFrom(opts), gpu, numThreads)
	if err != nil {
		_ = det.Close()
		return nil, err
	}
	return NewWithComponents(det, rec, opts), nil
}

// NewWithComponents binds a Pipeline to already-constructed detector and
// recognizer instances, used by tests and by callers managing model
// lifetimes themselves.
func NewWithComponents(det *detector.Detector, rec *recognizer.Recognizer, opts Options) *Pipeline {
	return &Pipeline{detector: det, recognizer: rec, opts: opts, trace: trace.NullWriter{}}
}

// SetTrace sets the default trace.Writer used by Run and RunSplit when no
// writer is given explicitly.
// Since a Pipeline's detector and recognizer may be shared across
// concurrent callers, this default is meant to be set once before
// concurrent use begins, not mutated per request; concurrent callers that
// each need their own trace destination (the server's /ocr/stream
// endpoint) should call RunSplitTraced directly instead.
func (p *Pipeline) SetTrace(w trace.Writer) {
	if w == nil {
		w = trace.NullWriter{}
	}
	p.trace = w
}

// Close releases both underlying inference sessions.
func (p *Pipeline) Close() error {
	detErr := p.detector.Close()
	recErr := p.recognizer.Close()
	if detErr != nil {
		return detErr
	}
	return recErr
}

// Run executes spec.md §4.H end to end against a single image used for both
// detection and recognition.
func (p *Pipeline) Run(ctx context.Context, image imageproc.RasterImage) ([]Result, error) {
	return p.RunSplit(ctx, image, image)
}

// RunSplit executes the pipeline using separate detection and recognition
// images (spec.md §4.H step 4: the recognition image "may be a grayscale
// sibling of the detection image").
//
// Per spec.md §7, this does not catch-and-continue: an error at any stage —
// including recognizing a single crop — fails the whole call with no
// partial results. An empty detection list is not an error; it yields an
// empty result list.
func (p *Pipeline) RunSplit(ctx context.Context, detectionImage, recognitionImage imageproc.RasterImage) ([]Result, error) {
	return p.RunSplitTraced(ctx, detectionImage, recognitionImage, p.trace)
}

// RunSplitTraced is RunSplit with an explicit trace.Writer, bypassing the
// Pipeline's shared default so concurrent callers (the server's
// /ocr/stream endpoint, one goroutine per connection) can each stream to
// their own destination without racing on Pipeline state.
func (p *Pipeline) RunSplitTraced(ctx context.Context, detectionImage, recognitionImage imageproc.RasterImage, w trace.Writer) ([]Result, error) {
	if w == nil {
		w = trace.NullWriter{}
	}

	_ = w.AddParams(trace.StepOCROptions, p.opts, nil)
	_ = w.AddImage(trace.StepLoadImage, detectionImage, map[string]any{
		"width": detectionImage.Width, "height": detectionImage.Height,
	})

	detResult, err := p.detector.Detect(ctx, detectionImage)
	if err != nil {
		return nil, fmt.Errorf("ocr: detect: %w", err)
	}

	polys := make([]geom.Polygon, len(detResult.Adjusted))
	for i, rb := range detResult.Adjusted {
		polys[i] = geom.Polygon(rb.Points)
	}
	boxes := grouping.Group(polys, groupingOptionsFrom(p.opts))
	boxPolys := make([]geom.Polygon, len(boxes))
	for i, b := range boxes {
		boxPolys[i] = b.Polygon
	}
	_ = w.AddBoxes(trace.StepDetectorBoxesOrdered, boxPolys, map[string]any{"count": len(boxes)})

	crops, err := cropbuild.Build(recognitionImage, boxes, p.opts.RotationInfo)
	if err != nil {
		return nil, fmt.Errorf("ocr: crop: %w", err)
	}

	ignoreSet, err := BuildIgnoreSet(p.recognizer.Charset(), p.recognizer.Options().Blank, p.opts)
	if err != nil {
		return nil, err
	}

	items := make([]recognized, len(crops))
	for i, c := range crops {
		decoded, err := p.recognizer.Recognize(ctx, c.Image, ignoreSet)
		if err != nil {
			return nil, fmt.Errorf("ocr: recognize crop %d: %w", i, err)
		}
		items[i] = recognized{Box: c.SourceBox, Text: decoded.Text, Confidence: decoded.Confidence, RotationDeg: c.RotationDeg}
	}
	_ = w.AddParams(trace.StepRecognizerResultsPreMerge, items, map[string]any{"count": len(items)})

	var results []Result
	if p.opts.MergeLines {
		results = mergeResultLines(items, p.opts)
	} else {
		results = make([]Result, len(items))
		for i, it := range items {
			results[i] = Result{Box: it.Box, Text: it.Text, Confidence: it.Confidence}
		}
	}

	sortResults(results)
	for i := range results {
		results[i].DetectedLanguage = DetectLanguage(results[i].Text, p.opts.LangList)
	}
	_ = w.AddParams(trace.StepRecognizerResultsPostMerge, results, map[string]any{"count": len(results)})
	return results, nil
}

// sortResults implements spec.md §4.H step 7: order by (minY, minX).
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		bi, bj := geom.BoundingBox(results[i].Box), geom.BoundingBox(results[j].Box)
		if bi.MinY != bj.MinY {
			return bi.MinY < bj.MinY
		}
		return bi.MinX < bj.MinX
	})
}

func detectorOptionsFrom(opts Options) detector.Options {
	return detector.Options{
		CanvasSize:    opts.CanvasSize,
		MagRatio:      opts.MagRatio,
		Align:         opts.Align,
		Mean:          opts.Mean,
		Std:           opts.Std,
		TextThreshold: opts.TextThreshold,
		LowText:       opts.LowText,
		LinkThreshold: opts.LinkThreshold,
	}
}

func groupingOptionsFrom(opts Options) grouping.Options {
	return grouping.Options{
		SlopeThreshold:   opts.SlopeThreshold,
		YCenterThreshold: opts.YCenterThreshold,
		HeightThreshold:  opts.HeightThreshold,
		WidthThreshold:   opts.WidthThreshold,
		AddMargin:        opts.AddMargin,
		MinSize:          opts.MinSize,
	}
}

func recognizerOptionsFrom(opts Options) recognizer.Options {
	return recognizer.Options{
		InputHeight: opts.Recognizer.InputHeight,
		Blank:       0,
		Clean:       recognizer.DefaultCleanOptions(),
	}
}
