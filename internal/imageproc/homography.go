package imageproc

import (
	"fmt"

	"github.com/qduc/easyocr-go/internal/geom"
)

// Homography is a 3x3 projective transform stored row-major.
type Homography [9]float64

// ComputeHomography solves for the 3x3 homography mapping src (a 4-point
// quadrilateral, in any consistent order) onto dst (typically the target
// rectangle's 4 corners) via Gauss-Jordan elimination on the 8x9 linear
// system derived from the standard planar-homography constraint with h22
// fixed to 1 (spec §4.A "Perspective warp"). Grounded on the teacher's
// internal/rectify/homography.go solve8x8 structure, generalized from 8x8
// to 8x9 (augmented) Gauss-Jordan rather than back-substitution.
func ComputeHomography(src, dst [4]geom.Point) (Homography, error) {
	var a [8][9]float64
	for i := range 4 {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}
	h, err := solveGaussJordan8x9(a)
	if err != nil {
		return Homography{}, err
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// solveGaussJordan8x9 reduces an 8x9 augmented matrix [A|b] to solve Ax=b
// via Gauss-Jordan elimination with partial pivoting, returning the 8
// unknowns h0..h7.
func solveGaussJordan8x9(a [8][9]float64) ([8]float64, error) {
	const n = 8
	for col := range n {
		pivot := col
		best := absF(a[col][col])
		for r := col + 1; r < n; r++ {
			if v := absF(a[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-12 {
			return [8]float64{}, fmt.Errorf("imageproc: degenerate homography (singular system)")
		}
		a[col], a[pivot] = a[pivot], a[col]

		pv := a[col][col]
		for c := col; c < n+1; c++ {
			a[col][c] /= pv
		}
		for r := range n {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n+1; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}
	var h [8]float64
	for i := range n {
		h[i] = a[i][n]
	}
	return h, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Apply maps a source-space point through the homography.
func (h Homography) Apply(p geom.Point) geom.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return geom.Point{}
	}
	return geom.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Invert returns the inverse homography via Gauss-Jordan elimination on the
// 3x3 matrix, used to back-project destination pixels into source space.
func (h Homography) Invert() (Homography, error) {
	m := [3][6]float64{
		{h[0], h[1], h[2], 1, 0, 0},
		{h[3], h[4], h[5], 0, 1, 0},
		{h[6], h[7], h[8], 0, 0, 1},
	}
	for col := range 3 {
		pivot := col
		best := absF(m[col][col])
		for r := col + 1; r < 3; r++ {
			if v := absF(m[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-12 {
			return Homography{}, fmt.Errorf("imageproc: singular homography, cannot invert")
		}
		m[col], m[pivot] = m[pivot], m[col]
		pv := m[col][col]
		for c := range 6 {
			m[col][c] /= pv
		}
		for r := range 3 {
			if r == col {
				continue
			}
			factor := m[r][col]
			if factor == 0 {
				continue
			}
			for c := range 6 {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	return Homography{
		m[0][3], m[0][4], m[0][5],
		m[1][3], m[1][4], m[1][5],
		m[2][3], m[2][4], m[2][5],
	}, nil
}

// WarpPerspective maps the quadrilateral quad in src onto a dstW x dstH
// output rectangle. Each output pixel is back-projected into source space
// via the inverse homography and sampled by nearest-neighbor, clamped to
// source bounds (spec §4.A: "Sample the source by nearest-neighbor at the
// back-projected coordinate, clamped to bounds" — a deliberate departure
// from bilinear sampling, to match the reference implementation exactly).
func WarpPerspective(src RasterImage, quad [4]geom.Point, dstW, dstH int) (RasterImage, error) {
	dstCorners := [4]geom.Point{
		{X: 0, Y: 0},
		{X: float64(dstW - 1), Y: 0},
		{X: float64(dstW - 1), Y: float64(dstH - 1)},
		{X: 0, Y: float64(dstH - 1)},
	}
	fwd, err := ComputeHomography(quad, dstCorners)
	if err != nil {
		return RasterImage{}, err
	}
	inv, err := fwd.Invert()
	if err != nil {
		return RasterImage{}, err
	}

	c := src.Channels
	out := make([]byte, dstW*dstH*c)
	for y := range dstH {
		for x := range dstW {
			sp := inv.Apply(geom.Point{X: float64(x), Y: float64(y)})
			sx := clampInt(roundToInt(sp.X), 0, src.Width-1)
			sy := clampInt(roundToInt(sp.Y), 0, src.Height-1)
			copy(out[(y*dstW+x)*c:(y*dstW+x)*c+c], src.At(sx, sy))
		}
	}
	return RasterImage{Data: out, Width: dstW, Height: dstH, Channels: c, Order: src.Order}, nil
}

func roundToInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
