package ocr

import "github.com/qduc/easyocr-go/internal/geom"

// Result is one OCR detection: a 4-point polygon in original-image
// coordinates, decoded text, and a confidence in [0,1] (spec.md §3's "OCR
// result" data model).
type Result struct {
	Box        geom.Polygon
	Text       string
	Confidence float64

	// DetectedLanguage is a heuristic post-processing hint (spec.md §4.H
	// step 2's langList handling), populated only when the caller
	// configured LangList; empty when no languages were requested or the
	// heuristic was inconclusive.
	DetectedLanguage string
}

// recognized is the pre-merge candidate carrying the rotation tag needed by
// mergeResultLines (spec.md §4.H step 6), dropped once merging has run since
// Result itself has no rotation field.
type recognized struct {
	Box         geom.Polygon
	Text        string
	Confidence  float64
	RotationDeg int
}
