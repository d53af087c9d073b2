package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBox(t *testing.T) {
	pts := []Point{{1, 2}, {-3, 4}, {5, -6}}
	b := BoundingBox(pts)
	require.Equal(t, Box{MinX: -3, MinY: -6, MaxX: 5, MaxY: 4}, b)
}

func TestBoundingBoxEmpty(t *testing.T) {
	require.Equal(t, Box{}, BoundingBox(nil))
}

func TestConvexHullSquare(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
}

func TestMinimumAreaRectangleAxisAligned(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 5}, {0, 5}}
	rect := MinimumAreaRectangle(pts)
	require.Len(t, rect, 4)
	area := rect[0].X // sanity placeholder
	_ = area
	box := BoundingBox(rect)
	require.InDelta(t, 50, box.Width()*box.Height(), 1e-6)
}

func TestOrderClockwiseFromTopLeft(t *testing.T) {
	pts := []Point{{10, 0}, {10, 10}, {0, 10}, {0, 0}}
	ordered := OrderClockwiseFromTopLeft(pts)
	require.Equal(t, Point{0, 0}, ordered[0])
}

func TestAspectRatioNearSquare(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	require.True(t, AspectRatioNearSquare(square, 0.1))
	rect := []Point{{0, 0}, {10, 0}, {10, 100}, {0, 100}}
	require.False(t, AspectRatioNearSquare(rect, 0.1))
}

func TestBoxUnion(t *testing.T) {
	a := NewBox(0, 0, 5, 5)
	b := NewBox(3, 3, 10, 10)
	u := a.Union(b)
	require.Equal(t, NewBox(0, 0, 10, 10), u)
}

func TestScaleAndOffsetPoints(t *testing.T) {
	pts := []Point{{1, 1}, {2, 2}}
	scaled := ScalePoints(pts, 2, 3)
	require.Equal(t, Point{2, 3}, scaled[0])
	offset := OffsetPoints(pts, 1, -1)
	require.Equal(t, Point{2, 0}, offset[0])
}

func TestMinimumAreaRectangleDegenerate(t *testing.T) {
	require.Nil(t, MinimumAreaRectangle(nil))
	single := MinimumAreaRectangle([]Point{{1, 1}})
	require.Len(t, single, 4)
	twoPts := MinimumAreaRectangle([]Point{{0, 0}, {10, 0}})
	require.Len(t, twoPts, 4)
}

func TestConvexHullCollinear(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	hull := ConvexHull(pts)
	require.LessOrEqual(t, len(hull), 4)
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBoxCenter(t *testing.T) {
	b := NewBox(0, 0, 10, 20)
	c := b.Center()
	require.True(t, approxEqual(c.X, 5, 1e-9))
	require.True(t, approxEqual(c.Y, 10, 1e-9))
}
