package imageproc

import "math"

// ResizeBilinear resamples img to (dstW, dstH) using the half-pixel-center
// mapping and output rounding specified in spec §4.A:
//
//	sx = (x+0.5)*(W/W') - 0.5, sy = (y+0.5)*(H/H') - 0.5
//
// Both axes are clamped to [0, dim-1]; output is u8-rounded.
func ResizeBilinear(img RasterImage, dstW, dstH int) RasterImage {
	c := img.Channels
	out := make([]byte, dstW*dstH*c)
	scaleX := float64(img.Width) / float64(dstW)
	scaleY := float64(img.Height) / float64(dstH)
	for y := range dstH {
		sy := (float64(y)+0.5)*scaleY - 0.5
		sy = clampF(sy, 0, float64(img.Height-1))
		y0 := int(math.Floor(sy))
		y1 := minInt(y0+1, img.Height-1)
		fy := sy - float64(y0)
		for x := range dstW {
			sx := (float64(x)+0.5)*scaleX - 0.5
			sx = clampF(sx, 0, float64(img.Width-1))
			x0 := int(math.Floor(sx))
			x1 := minInt(x0+1, img.Width-1)
			fx := sx - float64(x0)
			dstIdx := (y*dstW + x) * c
			for ch := range c {
				v00 := float64(img.Data[(y0*img.Width+x0)*c+ch])
				v10 := float64(img.Data[(y0*img.Width+x1)*c+ch])
				v01 := float64(img.Data[(y1*img.Width+x0)*c+ch])
				v11 := float64(img.Data[(y1*img.Width+x1)*c+ch])
				top := v00 + (v10-v00)*fx
				bot := v01 + (v11-v01)*fx
				v := top + (bot-top)*fy
				out[dstIdx+ch] = roundByte(v)
			}
		}
	}
	return RasterImage{Data: out, Width: dstW, Height: dstH, Channels: c, Order: img.Order}
}

// ResizeBicubic resamples using the Catmull-Rom cubic kernel (spec §4.A):
//
//	(1.5|t|-2.5)t^2+1          for |t|<=1
//	((-0.5|t|+2.5)|t|-4)|t|+2  for 1<|t|<2
//
// Per-pixel weights are renormalized (sum divided out) to avoid overshoot
// at borders, matching the reference implementation's boundary behavior.
func ResizeBicubic(img RasterImage, dstW, dstH int) RasterImage {
	c := img.Channels
	out := make([]byte, dstW*dstH*c)
	scaleX := float64(img.Width) / float64(dstW)
	scaleY := float64(img.Height) / float64(dstH)
	for y := range dstH {
		sy := (float64(y)+0.5)*scaleY - 0.5
		y0 := int(math.Floor(sy))
		wy := cubicWeights(sy - float64(y0))
		for x := range dstW {
			sx := (float64(x)+0.5)*scaleX - 0.5
			x0 := int(math.Floor(sx))
			wx := cubicWeights(sx - float64(x0))
			dstIdx := (y*dstW + x) * c
			for ch := range c {
				var sum, wsum float64
				for j := -1; j <= 2; j++ {
					sy2 := clampInt(y0+j, 0, img.Height-1)
					for i := -1; i <= 2; i++ {
						sx2 := clampInt(x0+i, 0, img.Width-1)
						w := wx[i+1] * wy[j+1]
						sum += w * float64(img.Data[(sy2*img.Width+sx2)*c+ch])
						wsum += w
					}
				}
				v := sum
				if wsum != 0 {
					v = sum / wsum
				}
				out[dstIdx+ch] = roundByte(v)
			}
		}
	}
	return RasterImage{Data: out, Width: dstW, Height: dstH, Channels: c, Order: img.Order}
}

// cubicWeights returns the four Catmull-Rom weights for offsets -1,0,1,2
// relative to the integer floor, given fractional offset t in [0,1).
func cubicWeights(t float64) [4]float64 {
	return [4]float64{
		catmullRom(t + 1),
		catmullRom(t),
		catmullRom(1 - t),
		catmullRom(2 - t),
	}
}

func catmullRom(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (1.5*t-2.5)*t*t + 1
	case t < 2:
		return ((-0.5*t+2.5)*t-4)*t + 2
	default:
		return 0
	}
}

// ResizeLongSide scales img so its longer side equals maxSide, preserving
// aspect ratio, without any padding (spec §4.A resizeLongSide). The target
// dimensions are floor(dim*scale), minimum 1.
func ResizeLongSide(img RasterImage, maxSide int) (RasterImage, float64, float64) {
	longer := img.Width
	if img.Height > longer {
		longer = img.Height
	}
	scale := float64(maxSide) / float64(longer)
	targetW := maxInt(1, int(math.Floor(float64(img.Width)*scale)))
	targetH := maxInt(1, int(math.Floor(float64(img.Height)*scale)))
	resized := ResizeBilinear(img, targetW, targetH)
	scaleX := float64(targetW) / float64(img.Width)
	scaleY := float64(targetH) / float64(img.Height)
	return resized, scaleX, scaleY
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func roundByte(v float64) byte {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
