package ocr

import (
	"math"
	"testing"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/stretchr/testify/require"
)

func rectPoly(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

func TestMergeResultLinesJoinsNearbyBoxesOnOneLine(t *testing.T) {
	items := []recognized{
		{Box: rectPoly(0, 0, 10, 10), Text: "foo"},
		{Box: rectPoly(15, 0, 25, 10), Text: "bar"},
		{Box: rectPoly(40, 0, 50, 10), Text: "baz"},
	}
	opts := Options{XThreshold: 1.0, YThreshold: 0.5, MaxAngleDeg: 10}

	results := mergeResultLines(items, opts)
	require.Len(t, results, 2)

	texts := map[string]bool{}
	for _, r := range results {
		texts[r.Text] = true
	}
	require.True(t, texts["foo bar"])
	require.True(t, texts["baz"])
}

func TestMergeResultLinesRotationBoundary(t *testing.T) {
	// Two boxes at 9.9 degrees should merge with each other; a 10.1-degree
	// box with maxAngleDeg=10 is ineligible and stays standalone, regardless
	// of its position relative to the others.
	rotated := func(x0, y0 float64, angleDeg float64) geom.Polygon {
		rad := angleDeg * math.Pi / 180
		dx, dy := 10.0, 0.0
		cos, sin := math.Cos(rad), math.Sin(rad)
		ex := dx*cos - dy*sin
		ey := dx*sin + dy*cos
		return geom.Polygon{
			{X: x0, Y: y0},
			{X: x0 + ex, Y: y0 + ey},
			{X: x0 + ex, Y: y0 + ey + 10},
			{X: x0, Y: y0 + 10},
		}
	}

	items := []recognized{
		{Box: rotated(0, 0, 9.9), Text: "a"},
		{Box: rotated(12, 0, 9.9), Text: "b"},
		{Box: rotated(24, 0, 10.1), Text: "c"},
	}
	opts := Options{XThreshold: 1.0, YThreshold: 0.5, MaxAngleDeg: 10}

	results := mergeResultLines(items, opts)

	var foundMerged, foundStandalone bool
	for _, r := range results {
		if r.Text == "a b" {
			foundMerged = true
		}
		if r.Text == "c" {
			foundStandalone = true
		}
	}
	require.True(t, foundMerged, "9.9deg boxes should merge")
	require.True(t, foundStandalone, "10.1deg box should stay standalone")
}

func TestMergeResultLinesGroupsByExactRotationTag(t *testing.T) {
	items := []recognized{
		{Box: rectPoly(0, 0, 10, 10), Text: "a", RotationDeg: 0},
		{Box: rectPoly(15, 0, 25, 10), Text: "b", RotationDeg: 90},
	}
	opts := Options{XThreshold: 10, YThreshold: 10, MaxAngleDeg: 45}

	results := mergeResultLines(items, opts)
	// Different rotation tags never merge even though position/threshold
	// would otherwise allow it.
	require.Len(t, results, 2)
}

func TestMergeClusterUnionsBoxAndKeepsMinConfidence(t *testing.T) {
	cluster := []lineMember{
		toLineMember(recognized{Box: rectPoly(0, 0, 10, 10), Text: "foo", Confidence: 0.9}),
		toLineMember(recognized{Box: rectPoly(11, 0, 20, 10), Text: "bar", Confidence: 0.5}),
	}
	result := mergeCluster(cluster)
	require.Equal(t, "foo bar", result.Text)
	require.InDelta(t, 0.5, result.Confidence, 1e-9)

	box := geom.BoundingBox(result.Box)
	require.InDelta(t, 0, box.MinX, 1e-9)
	require.InDelta(t, 20, box.MaxX, 1e-9)
}
