package detector

import (
	"math"

	"github.com/qduc/easyocr-go/internal/geom"
)

// RawBox is a single detector output box, emitted for tracing as well as
// for grouping (spec §4.C "Emits two lists: rawBoxesHeatmap ... and
// rawBoxesAdjusted").
type RawBox struct {
	Points []geom.Point
}

// PostprocessResult carries both coordinate spaces the orchestrator's trace
// steps need: heatmap-space for diffing against a reference trace, and
// original-image-space for grouping.
type PostprocessResult struct {
	Heatmap  []RawBox
	Adjusted []RawBox
}

// Postprocess implements spec §4.C end to end: threshold the two heatmaps,
// flood-fill the combined mask into components, discard components that are
// too small or too weak, suppress link-only pixels, adaptively dilate,
// extract a minimum-area (or near-square AABB fallback) rectangle, order its
// points clockwise, and back-project to original-image coordinates. Grounded
// on the overall shape of the teacher's PostProcessDB (threshold -> connected
// components -> regionsFromComponents -> scale), generalized from a single
// probability map to CRAFT's text/link heatmap pair and from contour tracing
// to minimum-area-rectangle extraction over dilated foreground pixels.
func Postprocess(pair HeatmapPair, scaleX, scaleY float64, inputW, inputH int, opts Options) PostprocessResult {
	w, h := pair.Width, pair.Height
	stride := HeatmapStride(inputW, inputH, w, h)
	combined := make([]bool, w*h)
	for i := range combined {
		textFired := float64(pair.Text[i]) > opts.LowText
		linkFired := float64(pair.Link[i]) > opts.LinkThreshold
		combined[i] = textFired || linkFired
	}

	comps := findComponents(combined, pair.Text, w, h)

	var result PostprocessResult
	for _, c := range comps {
		area := len(c.pixels)
		if area < 10 || float64(c.peakText) < opts.TextThreshold {
			continue
		}

		bw0 := c.maxX - c.minX + 1
		bh0 := c.maxY - c.minY + 1
		niter := adaptiveDilationIterations(area, bw0, bh0)

		segmap, bw, bh, ox, oy := buildSegmap(c, pair.Text, w, h, opts.LowText, niter)

		dilated := segmap
		if niter > 0 {
			dilated = dilateBinary(segmap, bw, bh, 1+niter)
		}

		pts := foregroundPoints(dilated, bw, bh, ox, oy)
		if len(pts) == 0 {
			continue
		}

		rect := geom.MinimumAreaRectangle(pts)
		if len(rect) != 4 {
			continue
		}
		if geom.AspectRatioNearSquare(rect, 0.1) {
			rect = axisAlignedFallback(pts)
		}
		rect = geom.OrderClockwiseFromTopLeft(rect)

		result.Heatmap = append(result.Heatmap, RawBox{Points: append([]geom.Point(nil), rect...)})
		result.Adjusted = append(result.Adjusted, RawBox{Points: backProject(rect, scaleX, scaleY, stride)})
	}
	return result
}

func foregroundPoints(mask []bool, w, h, offsetX, offsetY int) []geom.Point {
	var pts []geom.Point
	for y := range h {
		for x := range w {
			if mask[y*w+x] {
				pts = append(pts, geom.Point{X: float64(x + offsetX), Y: float64(y + offsetY)})
			}
		}
	}
	return pts
}

// axisAlignedFallback implements spec §4.C step 6: when the min-area
// rectangle is nearly square, fall back to the axis-aligned bounding box of
// the segmap foreground.
func axisAlignedFallback(pts []geom.Point) []geom.Point {
	box := geom.BoundingBox(pts)
	return []geom.Point{
		{X: box.MinX, Y: box.MinY},
		{X: box.MaxX, Y: box.MinY},
		{X: box.MaxX, Y: box.MaxY},
		{X: box.MinX, Y: box.MaxY},
	}
}

// backProject implements spec §4.C step 8: divide heatmap-space points by
// (scaleX/stride, scaleY/stride), where stride is the detector's actual
// observed heatmap-to-input downsampling ratio (see HeatmapStride) rather
// than a hardcoded 2, per the Open Question resolution in DESIGN.md.
func backProject(pts []geom.Point, scaleX, scaleY, stride float64) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = geom.Point{X: p.X / (scaleX / stride), Y: p.Y / (scaleY / stride)}
	}
	return out
}

// HeatmapStride computes the detector's actual heatmap-to-input downsampling
// ratio from the observed tensor sizes, rather than trusting the reference's
// hardcoded 2 (Open Question 1): stride = round(mean(inputW/heatmapW,
// inputH/heatmapH)). Falls back to 2 only when the heatmap dimensions are
// degenerate.
func HeatmapStride(inputW, inputH, heatmapW, heatmapH int) float64 {
	if heatmapW <= 0 || heatmapH <= 0 {
		return 2.0
	}
	rw := float64(inputW) / float64(heatmapW)
	rh := float64(inputH) / float64(heatmapH)
	return math.Round((rw + rh) / 2)
}
