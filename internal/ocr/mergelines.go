package ocr

import (
	"math"
	"sort"
	"strings"

	"github.com/qduc/easyocr-go/internal/geom"
)

// mergeResultLines implements spec.md §4.H step 6: group recognized results
// by rotation tag, then within each group cluster into lines and merge
// adjacent boxes, joining text with a single space and keeping the minimum
// member confidence. The combined box is the axis-aligned union of its
// members.
//
// Per Open Question 4 (SPEC_FULL.md §11), rotation grouping is exact
// equality on the crop's probed rotation angle (an integer number of
// degrees) — a surprise worth stating
// plainly rather than silently rounding or bucketing.
//
// A candidate whose own box orientation exceeds MaxAngleDeg is excluded from
// merging entirely and passed through standalone (the golden scenario this
// implements: two 9.9°-rotated boxes merge, but a 9.9° and a 10.1° box with
// maxAngleDeg=10 do not, because the 10.1° box is simply ineligible).
func mergeResultLines(items []recognized, opts Options) []Result {
	byRotation := make(map[int][]recognized)
	for _, it := range items {
		byRotation[it.RotationDeg] = append(byRotation[it.RotationDeg], it)
	}

	var out []Result
	for _, group := range byRotation {
		var eligible, ineligible []recognized
		for _, it := range group {
			if math.Abs(boxAngleDeg(it.Box)) <= opts.MaxAngleDeg {
				eligible = append(eligible, it)
			} else {
				ineligible = append(ineligible, it)
			}
		}
		for _, it := range ineligible {
			out = append(out, Result{Box: it.Box, Text: it.Text, Confidence: it.Confidence})
		}
		for _, line := range clusterIntoLines(eligible, opts.YThreshold) {
			out = append(out, mergeLineClusters(line, opts.XThreshold)...)
		}
	}
	return out
}

// boxAngleDeg is the orientation angle, in degrees, of a polygon's first
// edge (p0->p1) — the same edge spec.md §4.D step 1 uses for its slope
// classification, reused here as the per-box angle maxAngleDeg filters on.
func boxAngleDeg(poly geom.Polygon) float64 {
	if len(poly) < 2 {
		return 0
	}
	dx := poly[1].X - poly[0].X
	dy := poly[1].Y - poly[0].Y
	return math.Atan2(dy, dx) * 180 / math.Pi
}

type lineMember struct {
	recognized
	yCenter float64
	height  float64
	xMin    float64
	xMax    float64
}

func toLineMember(r recognized) lineMember {
	box := geom.BoundingBox(r.Box)
	return lineMember{
		recognized: r,
		yCenter:    (box.MinY + box.MaxY) / 2,
		height:     box.Height(),
		xMin:       box.MinX,
		xMax:       box.MaxX,
	}
}

// clusterIntoLines groups candidates by Y-center proximity, mirroring
// internal/grouping's clusterByYCenter: a candidate joins the running line
// iff its Y-center is within ycenterThs·meanLineHeight of the line's running
// mean Y-center.
func clusterIntoLines(items []recognized, yThreshold float64) [][]lineMember {
	if len(items) == 0 {
		return nil
	}
	members := make([]lineMember, len(items))
	for i, r := range items {
		members[i] = toLineMember(r)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].yCenter < members[j].yCenter })

	var lines [][]lineMember
	var current []lineMember
	var sumYCenter, sumHeight float64

	for _, m := range members {
		if len(current) == 0 {
			current = []lineMember{m}
			sumYCenter, sumHeight = m.yCenter, m.height
			continue
		}
		meanYCenter := sumYCenter / float64(len(current))
		meanHeight := sumHeight / float64(len(current))
		if math.Abs(m.yCenter-meanYCenter) < yThreshold*meanHeight {
			current = append(current, m)
			sumYCenter += m.yCenter
			sumHeight += m.height
			continue
		}
		lines = append(lines, current)
		current = []lineMember{m}
		sumYCenter, sumHeight = m.yCenter, m.height
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// mergeLineClusters sorts a line's members by xMin and greedily merges
// adjacent members whose gap is within xThreshold·lineHeight (Open Question
// 3's resolution: a pixel gap scaled by the line's own height, computed once
// per line — not re-derived per cluster).
func mergeLineClusters(line []lineMember, xThreshold float64) []Result {
	if len(line) == 0 {
		return nil
	}
	sort.Slice(line, func(i, j int) bool { return line[i].xMin < line[j].xMin })

	var sumHeight float64
	for _, m := range line {
		sumHeight += m.height
	}
	lineHeight := sumHeight / float64(len(line))
	threshold := xThreshold * lineHeight

	var out []Result
	cluster := []lineMember{line[0]}
	for i := 1; i < len(line); i++ {
		gap := line[i].xMin - cluster[len(cluster)-1].xMax
		if gap <= threshold {
			cluster = append(cluster, line[i])
			continue
		}
		out = append(out, mergeCluster(cluster))
		cluster = []lineMember{line[i]}
	}
	out = append(out, mergeCluster(cluster))
	return out
}

func mergeCluster(cluster []lineMember) Result {
	if len(cluster) == 1 {
		return Result{Box: cluster[0].Box, Text: cluster[0].Text, Confidence: cluster[0].Confidence}
	}

	union := geom.BoundingBox(cluster[0].Box)
	minConf := cluster[0].Confidence
	texts := make([]string, len(cluster))
	for i, m := range cluster {
		union = union.Union(geom.BoundingBox(m.Box))
		if m.Confidence < minConf {
			minConf = m.Confidence
		}
		texts[i] = m.Text
	}

	return Result{
		Box: geom.Polygon{
			{X: union.MinX, Y: union.MinY},
			{X: union.MaxX, Y: union.MinY},
			{X: union.MaxX, Y: union.MaxY},
			{X: union.MinX, Y: union.MaxY},
		},
		Text:       strings.Join(texts, " "),
		Confidence: minConf,
	}
}
