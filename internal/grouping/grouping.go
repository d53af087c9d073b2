package grouping

import (
	"math"

	"github.com/qduc/easyocr-go/internal/geom"
)

// horizontalBox is the running-cluster record spec §9's "Pattern
// re-architecture" calls for: a small mutable structure scoped to a single
// grouping call, carrying the axis-aligned summary of a horizontal polygon
// (xMin, xMax, yMin, yMax, yCenter, height).
type horizontalBox struct {
	XMin, XMax, YMin, YMax, YCenter, Height float64
}

func (b horizontalBox) toPolygon() geom.Polygon {
	return geom.Polygon{
		{X: b.XMin, Y: b.YMin},
		{X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax},
		{X: b.XMin, Y: b.YMax},
	}
}

func (b horizontalBox) width() float64  { return b.XMax - b.XMin }
func (b horizontalBox) height() float64 { return b.YMax - b.YMin }

// Kind tags a grouped box as having come from the horizontal or free-form
// branch of classification (spec §4.D step 2), since the two branches feed
// different crop strategies in internal/cropbuild.
type Kind int

const (
	KindHorizontal Kind = iota
	KindFree
)

// Box is a single grouping-stage output: its final polygon plus which
// branch produced it.
type Box struct {
	Polygon geom.Polygon
	Kind    Kind
}

// Group implements spec §4.D end to end: classify each polygon as horizontal
// or free-form, cluster horizontals into lines and merge adjacent boxes
// within a line, expand margins, and apply the final minSize filter.
// Returns horizontals first (line-major, left-to-right), then frees in
// discovery order, matching spec.md §4.D's emission order.
func Group(polys []geom.Polygon, opts Options) []Box {
	var horizontals []horizontalBox
	var frees []geom.Polygon

	for _, p := range polys {
		if len(p) != 4 {
			continue
		}
		if isHorizontal(p, opts.SlopeThreshold) {
			horizontals = append(horizontals, classifyHorizontal(p))
		} else {
			frees = append(frees, expandFreeMargin(p, opts.AddMargin))
		}
	}

	merged := mergeLines(horizontals, opts)

	var out []Box
	for _, b := range merged {
		if math.Max(b.width(), b.height()) <= opts.MinSize {
			continue
		}
		out = append(out, Box{Polygon: b.toPolygon(), Kind: KindHorizontal})
	}
	for _, f := range frees {
		box := geom.BoundingBox(f)
		if math.Max(box.Width(), box.Height()) <= opts.MinSize {
			continue
		}
		out = append(out, Box{Polygon: f, Kind: KindFree})
	}
	return out
}

// isHorizontal implements spec §4.D step 1-2: compute the slope of the
// polygon's top and bottom edges (p0->p1 and p3->p2, in the clockwise-
// from-top-left convention spec.md §3 establishes) and route by the larger
// magnitude against slopeThs.
func isHorizontal(p geom.Polygon, slopeThs float64) bool {
	slopeUp := (p[1].Y - p[0].Y) / math.Max(10, p[1].X-p[0].X)
	slopeDown := (p[2].Y - p[3].Y) / math.Max(10, p[2].X-p[3].X)
	return math.Max(math.Abs(slopeUp), math.Abs(slopeDown)) < slopeThs
}

func classifyHorizontal(p geom.Polygon) horizontalBox {
	xs := []float64{p[0].X, p[1].X, p[2].X, p[3].X}
	ys := []float64{p[0].Y, p[1].Y, p[2].Y, p[3].Y}
	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	return horizontalBox{
		XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax,
		YCenter: 0.5 * (yMin + yMax),
		Height:  yMax - yMin,
	}
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// expandFreeMargin implements spec §4.D step 2's free-form branch: expand
// the quadrilateral by addMargin*min(w,h) along its own axes, using the
// arctangent of each edge for direction (spec.md §4.D step 2). p0 and p3
// sit on the left edge and expand along the left edge's angle (p0-p3); p1
// and p2 sit on the right edge and expand along the right edge's angle
// (p1-p2), each corner moving outward and preserving the box's corner
// convention (top corners move up, bottom corners move down).
func expandFreeMargin(p geom.Polygon, addMargin float64) geom.Polygon {
	width := math.Hypot(p[1].X-p[0].X, p[1].Y-p[0].Y)
	height := math.Hypot(p[3].X-p[0].X, p[3].Y-p[0].Y)
	margin := 1.44 * addMargin * math.Min(width, height)

	thetaLeft := math.Abs(math.Atan2(p[3].Y-p[0].Y, math.Max(10, p[3].X-p[0].X)))
	thetaRight := math.Abs(math.Atan2(p[2].Y-p[1].Y, math.Max(10, p[2].X-p[1].X)))

	return geom.Polygon{
		{X: p[0].X - math.Cos(thetaLeft)*margin, Y: p[0].Y - math.Sin(thetaLeft)*margin},
		{X: p[1].X + math.Cos(thetaRight)*margin, Y: p[1].Y - math.Sin(thetaRight)*margin},
		{X: p[2].X + math.Cos(thetaRight)*margin, Y: p[2].Y + math.Sin(thetaRight)*margin},
		{X: p[3].X - math.Cos(thetaLeft)*margin, Y: p[3].Y + math.Sin(thetaLeft)*margin},
	}
}

// mergeLines implements spec §4.D steps 3-5: sort horizontals by yCenter,
// cluster into running lines by yCenterThs, then within each line sort by
// xMin and merge adjacent boxes by heightThs/widthThs, expanding margins on
// both multi-box clusters and singletons.
func mergeLines(boxes []horizontalBox, opts Options) []horizontalBox {
	lines := clusterByYCenter(boxes, opts.YCenterThreshold)

	var merged []horizontalBox
	for _, line := range lines {
		merged = append(merged, mergeLineClusters(line, opts)...)
	}
	return merged
}

func clusterByYCenter(boxes []horizontalBox, yCenterThs float64) [][]horizontalBox {
	if len(boxes) == 0 {
		return nil
	}
	sorted := append([]horizontalBox(nil), boxes...)
	sortByYCenter(sorted)

	var lines [][]horizontalBox
	var current []horizontalBox
	var sumYCenter, sumHeight float64

	for _, b := range sorted {
		if len(current) == 0 {
			current = []horizontalBox{b}
			sumYCenter, sumHeight = b.YCenter, b.Height
			continue
		}
		meanYCenter := sumYCenter / float64(len(current))
		meanHeight := sumHeight / float64(len(current))
		if math.Abs(meanYCenter-b.YCenter) < yCenterThs*meanHeight {
			current = append(current, b)
			sumYCenter += b.YCenter
			sumHeight += b.Height
		} else {
			lines = append(lines, current)
			current = []horizontalBox{b}
			sumYCenter, sumHeight = b.YCenter, b.Height
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

func mergeLineClusters(line []horizontalBox, opts Options) []horizontalBox {
	sorted := append([]horizontalBox(nil), line...)
	sortByXMin(sorted)

	clusters := clusterByGap(sorted, opts.HeightThreshold, opts.WidthThreshold)

	out := make([]horizontalBox, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, mergeCluster(c, opts.AddMargin))
	}
	return out
}

func clusterByGap(boxes []horizontalBox, heightThs, widthThs float64) [][]horizontalBox {
	var clusters [][]horizontalBox
	var current []horizontalBox
	var sumHeight, xMax float64

	for _, b := range boxes {
		if len(current) == 0 {
			current = []horizontalBox{b}
			sumHeight, xMax = b.Height, b.XMax
			continue
		}
		meanHeight := sumHeight / float64(len(current))
		gap := b.XMin - xMax
		if math.Abs(meanHeight-b.Height) < heightThs*meanHeight && gap < widthThs*(b.YMax-b.YMin) {
			current = append(current, b)
			sumHeight += b.Height
			xMax = b.XMax
		} else {
			clusters = append(clusters, current)
			current = []horizontalBox{b}
			sumHeight, xMax = b.Height, b.XMax
		}
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

func mergeCluster(cluster []horizontalBox, addMargin float64) horizontalBox {
	xMin, xMax := cluster[0].XMin, cluster[0].XMax
	yMin, yMax := cluster[0].YMin, cluster[0].YMax
	for _, b := range cluster[1:] {
		xMin = math.Min(xMin, b.XMin)
		xMax = math.Max(xMax, b.XMax)
		yMin = math.Min(yMin, b.YMin)
		yMax = math.Max(yMax, b.YMax)
	}
	margin := addMargin * math.Min(xMax-xMin, yMax-yMin)
	xMin -= margin
	xMax += margin
	yMin -= margin
	yMax += margin
	return horizontalBox{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax, YCenter: 0.5 * (yMin + yMax), Height: yMax - yMin}
}

func sortByYCenter(boxes []horizontalBox) {
	for i := 1; i < len(boxes); i++ {
		v := boxes[i]
		j := i - 1
		for j >= 0 && boxes[j].YCenter > v.YCenter {
			boxes[j+1] = boxes[j]
			j--
		}
		boxes[j+1] = v
	}
}

func sortByXMin(boxes []horizontalBox) {
	for i := 1; i < len(boxes); i++ {
		v := boxes[i]
		j := i - 1
		for j >= 0 && boxes[j].XMin > v.XMin {
			boxes[j+1] = boxes[j]
			j--
		}
		boxes[j+1] = v
	}
}
