package imageproc

// PadToStride right/bottom-pads a RasterImage with zero bytes so both
// dimensions become multiples of align (spec §4.B step 3). Returns the
// padded image and the pad amounts applied.
func PadToStride(img RasterImage, align int) (RasterImage, int, int) {
	padW := (align - img.Width%align) % align
	padH := (align - img.Height%align) % align
	if padW == 0 && padH == 0 {
		return img, 0, 0
	}
	newW := img.Width + padW
	newH := img.Height + padH
	c := img.Channels
	out := make([]byte, newW*newH*c)
	for y := range img.Height {
		srcOff := y * img.Width * c
		dstOff := y * newW * c
		copy(out[dstOff:dstOff+img.Width*c], img.Data[srcOff:srcOff+img.Width*c])
	}
	return RasterImage{Data: out, Width: newW, Height: newH, Channels: c, Order: img.Order}, padW, padH
}

// ReplicatePadCHWWidth pads a CHW float32 buffer of width srcW to width
// dstW by repeating the value at the last valid column (spec §4.A
// "Replicate-pad to width"). For srcW >= dstW this is the identity, per
// invariant 5 in spec §8. channels*height must match between src and dst
// buffers; height is passed explicitly since CHW layout needs it to find
// row boundaries.
func ReplicatePadCHWWidth(data []float32, channels, height, srcW, dstW int) []float32 {
	if srcW >= dstW {
		out := make([]float32, len(data))
		copy(out, data)
		return out
	}
	out := make([]float32, channels*height*dstW)
	for ch := range channels {
		for y := range height {
			srcRowOff := ch*height*srcW + y*srcW
			dstRowOff := ch*height*dstW + y*dstW
			copy(out[dstRowOff:dstRowOff+srcW], data[srcRowOff:srcRowOff+srcW])
			last := data[srcRowOff+srcW-1]
			for x := srcW; x < dstW; x++ {
				out[dstRowOff+x] = last
			}
		}
	}
	return out
}

// PadCHWWidthConstant right-pads a CHW float32 buffer to width dstW with a
// constant fill value (spec §4.A "Generic right-pad to width with fill
// value"), used by the 3-channel recognizer path where padding should
// become numeric zero after normalization.
func PadCHWWidthConstant(data []float32, channels, height, srcW, dstW int, fill float32) []float32 {
	if srcW >= dstW {
		out := make([]float32, len(data))
		copy(out, data)
		return out
	}
	out := make([]float32, channels*height*dstW)
	for ch := range channels {
		for y := range height {
			srcRowOff := ch*height*srcW + y*srcW
			dstRowOff := ch*height*dstW + y*dstW
			copy(out[dstRowOff:dstRowOff+srcW], data[srcRowOff:srcRowOff+srcW])
			for x := srcW; x < dstW; x++ {
				out[dstRowOff+x] = fill
			}
		}
	}
	return out
}
