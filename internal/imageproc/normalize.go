package imageproc

// ToFloatHWC normalizes a RasterImage to an HWC float32 buffer using
// per-channel mean/std in 0..1 space: (pixel/255 - mean[c]) / std[c].
// RGB order is enforced regardless of img.Order — BGR/BGRA inputs are
// channel-swapped during normalization (spec §4.A "Float image").
func ToFloatHWC(img RasterImage, mean, std [3]float64) []float32 {
	out := make([]float32, img.Width*img.Height*3)
	for y := range img.Height {
		for x := range img.Width {
			r, g, b := img.RGB888(x, y)
			idx := (y*img.Width + x) * 3
			out[idx] = float32((float64(r)/255 - mean[0]) / std[0])
			out[idx+1] = float32((float64(g)/255 - mean[1]) / std[1])
			out[idx+2] = float32((float64(b)/255 - mean[2]) / std[2])
		}
	}
	return out
}

// HWCToCHW transposes an HWC float32 buffer (channels last) into CHW
// (channels first), as required to build an NCHW model input tensor
// (spec §4.B step 5).
func HWCToCHW(hwc []float32, w, h, c int) []float32 {
	out := make([]float32, len(hwc))
	for y := range h {
		for x := range w {
			srcOff := (y*w + x) * c
			for ch := range c {
				out[ch*h*w+y*w+x] = hwc[srcOff+ch]
			}
		}
	}
	return out
}

// Grayscale converts a RasterImage to single-channel gray using the
// integer-rounded luma the reference recognizer preprocessor relies on
// (spec §4.F step 1): round(0.299R + 0.587G + 0.114B), with BGR/BGRA
// inputs channel-swapped before the weighted sum. Images already
// single-channel are returned unchanged.
func Grayscale(img RasterImage) RasterImage {
	if img.Order == ChannelOrderGray {
		return img
	}
	out := make([]byte, img.Width*img.Height)
	for y := range img.Height {
		for x := range img.Width {
			r, g, b := img.RGB888(x, y)
			v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			out[y*img.Width+x] = roundByte(v)
		}
	}
	return RasterImage{Data: out, Width: img.Width, Height: img.Height, Channels: 1, Order: ChannelOrderGray}
}
