package detector

import "math"

// adaptiveDilationIterations computes CRAFT's component-adaptive dilation
// count: niter = trunc(sqrt(area * min(bw,bh) / (bw*bh)) * 2) (spec §4.C
// step 4). bw, bh are the component's bounding-box dimensions in pixels.
func adaptiveDilationIterations(area, bw, bh int) int {
	if bw <= 0 || bh <= 0 {
		return 0
	}
	minDim := bw
	if bh < minDim {
		minDim = bh
	}
	ratio := float64(area) * float64(minDim) / float64(bw*bh)
	return int(math.Sqrt(ratio) * 2)
}

// dilateBinary performs one dilation pass over a boolean mask: output pixel
// is true iff any neighbor within the square kernel of the given size is
// true (spec §4.C step 4's "literal morphological dilation"). Grounded on
// the teacher's dilateFloat32 kernel-scan shape in this same package,
// adapted from a max-over-float32-neighborhood to an OR-over-bool-
// neighborhood since CRAFT dilates a binary segmap, not a probability map.
func dilateBinary(mask []bool, w, h, kernelSize int) []bool {
	if kernelSize <= 1 {
		return mask
	}
	half := kernelSize / 2
	out := make([]bool, len(mask))
	for y := range h {
		for x := range w {
			var hit bool
			for ky := -half; ky <= half && !hit; ky++ {
				ny := y + ky
				if ny < 0 || ny >= h {
					continue
				}
				for kx := -half; kx <= half; kx++ {
					nx := x + kx
					if nx < 0 || nx >= w {
						continue
					}
					if mask[ny*w+nx] {
						hit = true
						break
					}
				}
			}
			out[y*w+x] = hit
		}
	}
	return out
}
