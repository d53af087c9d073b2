// Package cropbuild extracts recognizer-ready crops from a grouped box list
// (spec §4.E): horizontal boxes are cut out as an axis-aligned subregion,
// free-form boxes are perspective-warped into a rectangle sized to their
// longer opposite-side pairs, and each crop is optionally duplicated once
// per probed rotation angle.
package cropbuild

import (
	"fmt"
	"math"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/grouping"
	"github.com/qduc/easyocr-go/internal/imageproc"
)

// Crop is one recognizer input candidate: a cropped raster plus the box it
// came from (for final-result coordinates) and a rotation tag distinguishing
// the zero-rotation variant from any probed rotations (spec §4.E step 3,
// Open Question 4).
type Crop struct {
	Image       imageproc.RasterImage
	SourceIndex int
	SourceBox   geom.Polygon
	RotationDeg int
}

// Build extracts a base crop for every box in boxes, then duplicates each
// once per angle in rotationInfo. img must be the recognition image (spec
// §4.H step 4: "may be a grayscale sibling of the detection image").
func Build(img imageproc.RasterImage, boxes []grouping.Box, rotationInfo []int) ([]Crop, error) {
	var out []Crop
	for i, b := range boxes {
		base, err := cropOne(img, b)
		if err != nil {
			return nil, fmt.Errorf("cropbuild: box %d: %w", i, err)
		}
		out = append(out, Crop{Image: base, SourceIndex: i, SourceBox: b.Polygon, RotationDeg: 0})

		for _, angle := range rotationInfo {
			rotated, err := rotateCrop(base, angle)
			if err != nil {
				return nil, fmt.Errorf("cropbuild: box %d rotation %d: %w", i, angle, err)
			}
			out = append(out, Crop{Image: rotated, SourceIndex: i, SourceBox: b.Polygon, RotationDeg: angle})
		}
	}
	return out, nil
}

func cropOne(img imageproc.RasterImage, b grouping.Box) (imageproc.RasterImage, error) {
	if b.Kind == grouping.KindHorizontal {
		box := geom.BoundingBox(b.Polygon)
		return imageproc.CropBox(img, box), nil
	}
	return warpFreeCrop(img, b.Polygon)
}

// warpFreeCrop implements spec §4.E's free-polygon branch: the output
// rectangle's width is the longer of the polygon's two "horizontal" opposite
// sides (p1-p0, p2-p3) and its height is the longer of the two "vertical"
// opposite sides (p1-p2, p0-p3).
func warpFreeCrop(img imageproc.RasterImage, poly geom.Polygon) (imageproc.RasterImage, error) {
	if len(poly) != 4 {
		return imageproc.RasterImage{}, fmt.Errorf("cropbuild: free polygon must have 4 points, got %d", len(poly))
	}
	p0, p1, p2, p3 := poly[0], poly[1], poly[2], poly[3]
	width := math.Max(dist(p1, p0), dist(p2, p3))
	height := math.Max(dist(p1, p2), dist(p0, p3))
	w := maxInt(1, roundPositive(width))
	h := maxInt(1, roundPositive(height))

	quad := [4]geom.Point{p0, p1, p2, p3}
	return imageproc.WarpPerspective(img, quad, w, h)
}

// rotateCrop duplicates crop at the given probe angle (spec §4.E step 3).
// Only the right-angle rotations imageproc exposes are supported; any other
// probe angle is rejected rather than silently falling back, since no
// general-angle rotation primitive exists in this pipeline.
func rotateCrop(crop imageproc.RasterImage, angleDeg int) (imageproc.RasterImage, error) {
	switch ((angleDeg % 360) + 360) % 360 {
	case 90:
		return imageproc.Rotate90(crop), nil
	case 180:
		return imageproc.Rotate180(crop), nil
	case 270:
		return imageproc.Rotate270(crop), nil
	case 0:
		return crop, nil
	default:
		return imageproc.RasterImage{}, fmt.Errorf("cropbuild: unsupported rotation probe angle %d", angleDeg)
	}
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func roundPositive(v float64) int {
	return int(math.Round(v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
