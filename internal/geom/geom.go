// Package geom provides the point/box/polygon primitives shared by every
// stage of the OCR pipeline.
package geom

import "math"

// Point is a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from two corners, ensuring min/max ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns MaxX - MinX.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the box centroid.
func (b Box) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Union returns the smallest box containing both a and b.
func (b Box) Union(o Box) Box {
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Polygon is a sequence of points. For detector output it is a 4-point
// quadrilateral with index 0 at the minimum (x+y) corner, the remainder
// ordered clockwise (spec §3).
type Polygon []Point

// Clone returns an independent copy.
func (p Polygon) Clone() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// BoundingBox returns the axis-aligned bounding box of a point set.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// ScalePoints returns a scaled copy of pts.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// OffsetPoints returns pts translated by (dx, dy).
func OffsetPoints(pts []Point, dx, dy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// OrderClockwiseFromTopLeft rotates pts (in place semantics, returns a new
// slice) so index 0 is the point with minimum (x+y) and the remainder is
// in clockwise order, per spec §3's box convention.
func OrderClockwiseFromTopLeft(pts []Point) []Point {
	if len(pts) != 4 {
		return append(Polygon(nil), pts...)
	}
	startIdx := 0
	best := pts[0].X + pts[0].Y
	for i := 1; i < 4; i++ {
		if s := pts[i].X + pts[i].Y; s < best {
			best = s
			startIdx = i
		}
	}
	rotated := make([]Point, 4)
	for i := range 4 {
		rotated[i] = pts[(startIdx+i)%4]
	}
	if !isClockwise(rotated) {
		rotated[1], rotated[3] = rotated[3], rotated[1]
	}
	return rotated
}

func isClockwise(pts []Point) bool {
	// Screen coordinates: y grows downward, so clockwise has negative
	// shoelace sum.
	var sum float64
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		sum += (b.X - a.X) * (b.Y + a.Y)
	}
	return sum <= 0
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull computes the convex hull via the monotone-chain algorithm.
// Returns points in CCW order, not repeating the first point.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := append([]Point(nil), pts...)
	sortPoints(p)
	p = dedupe(p)
	n = len(p)
	if n <= 1 {
		return p
	}
	lower := chain(p, 1)
	upper := chain(p, -1)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func chain(p []Point, dir int) []Point {
	out := make([]Point, 0, len(p))
	if dir > 0 {
		for _, pt := range p {
			for len(out) >= 2 && cross(out[len(out)-2], out[len(out)-1], pt) <= 0 {
				out = out[:len(out)-1]
			}
			out = append(out, pt)
		}
		return out
	}
	for i := len(p) - 1; i >= 0; i-- {
		pt := p[i]
		for len(out) >= 2 && cross(out[len(out)-2], out[len(out)-1], pt) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, pt)
	}
	return out
}

func sortPoints(p []Point) {
	for i := 1; i < len(p); i++ {
		v := p[i]
		j := i - 1
		for j >= 0 && (p[j].X > v.X || (p[j].X == v.X && p[j].Y > v.Y)) {
			p[j+1] = p[j]
			j--
		}
		p[j+1] = v
	}
}

func dedupe(p []Point) []Point {
	out := p[:0]
	var last Point
	has := false
	for _, pt := range p {
		if !has || pt.X != last.X || pt.Y != last.Y {
			out = append(out, pt)
			last = pt
			has = true
		}
	}
	return out
}

// MinimumAreaRectangle computes the minimum-area enclosing rectangle of a
// point set via rotating calipers over the convex hull (spec §4.C step 5).
// Returns 4 points; falls back to a degenerate rectangle for <3 hull points.
func MinimumAreaRectangle(pts []Point) []Point {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return nil
	case 1:
		p := hull[0]
		return []Point{{p.X, p.Y}, {p.X + 1, p.Y}, {p.X + 1, p.Y + 1}, {p.X, p.Y + 1}}
	case 2:
		a, b := hull[0], hull[1]
		return []Point{a, b, {b.X, b.Y + 1}, {a.X, a.Y + 1}}
	default:
		return minAreaRectFromHull(hull)
	}
}

func minAreaRectFromHull(hull []Point) []Point {
	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS, maxS = math.Min(minS, s), math.Max(maxS, s)
			minT, maxT = math.Min(minT, t), math.Max(maxT, t)
		}
		if area := (maxS - minS) * (maxT - minT); area < bestArea {
			bestArea = area
			bestU, bestV = Point{ux, uy}, Point{vx, vy}
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
		}
	}
	corner := func(s, t float64) Point {
		return Point{X: bestU.X*s + bestV.X*t, Y: bestU.Y*s + bestV.Y*t}
	}
	return []Point{
		corner(bestMinS, bestMinT),
		corner(bestMaxS, bestMinT),
		corner(bestMaxS, bestMaxT),
		corner(bestMinS, bestMaxT),
	}
}

// AspectRatioNearSquare reports whether a rectangle's aspect ratio is within
// tol of 1 (spec §4.C step 6: fall back to the AABB when the min-area rect
// is nearly square).
func AspectRatioNearSquare(pts []Point, tol float64) bool {
	if len(pts) < 4 {
		return false
	}
	w := math.Hypot(pts[1].X-pts[0].X, pts[1].Y-pts[0].Y)
	h := math.Hypot(pts[3].X-pts[0].X, pts[3].Y-pts[0].Y)
	if w == 0 || h == 0 {
		return false
	}
	ratio := w / h
	if ratio < 1 {
		ratio = 1 / ratio
	}
	return ratio-1 <= tol
}
