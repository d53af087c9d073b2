package imageproc

import "github.com/qduc/easyocr-go/internal/geom"

// CropBox extracts the axis-aligned pixel subregion covered by box,
// clamped to image bounds (spec §4.E "Horizontal polygons -> direct pixel
// subregion"). Points may be negative or beyond bounds (margin expansion);
// the clamp here is where that gets resolved.
func CropBox(img RasterImage, box geom.Box) RasterImage {
	x0 := clampInt(int(box.MinX), 0, img.Width)
	y0 := clampInt(int(box.MinY), 0, img.Height)
	x1 := clampInt(int(box.MaxX), 0, img.Width)
	y1 := clampInt(int(box.MaxY), 0, img.Height)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	x1 = minInt(x1, img.Width)
	y1 = minInt(y1, img.Height)
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return RasterImage{Width: 0, Height: 0, Channels: img.Channels, Order: img.Order}
	}
	c := img.Channels
	out := make([]byte, w*h*c)
	for y := range h {
		srcOff := ((y0+y)*img.Width + x0) * c
		dstOff := y * w * c
		copy(out[dstOff:dstOff+w*c], img.Data[srcOff:srcOff+w*c])
	}
	return RasterImage{Data: out, Width: w, Height: h, Channels: c, Order: img.Order}
}

// Rotate90 rotates img 90 degrees clockwise.
func Rotate90(img RasterImage) RasterImage { return rotateIndexed(img, 90) }

// Rotate180 rotates img 180 degrees.
func Rotate180(img RasterImage) RasterImage { return rotateIndexed(img, 180) }

// Rotate270 rotates img 270 degrees clockwise (90 CCW).
func Rotate270(img RasterImage) RasterImage { return rotateIndexed(img, 270) }

// rotateIndexed supports the four right-angle rotations via index remap
// (spec §4.A "Rotate ... 0/90/180/270 by index remap").
func rotateIndexed(img RasterImage, angle int) RasterImage {
	c := img.Channels
	switch angle {
	case 90:
		out := make([]byte, img.Width*img.Height*c)
		newW, newH := img.Height, img.Width
		for y := range img.Height {
			for x := range img.Width {
				nx := newW - 1 - y
				ny := x
				copy(out[(ny*newW+nx)*c:(ny*newW+nx)*c+c], img.At(x, y))
			}
		}
		return RasterImage{Data: out, Width: newW, Height: newH, Channels: c, Order: img.Order}
	case 180:
		out := make([]byte, img.Width*img.Height*c)
		for y := range img.Height {
			for x := range img.Width {
				nx := img.Width - 1 - x
				ny := img.Height - 1 - y
				copy(out[(ny*img.Width+nx)*c:(ny*img.Width+nx)*c+c], img.At(x, y))
			}
		}
		return RasterImage{Data: out, Width: img.Width, Height: img.Height, Channels: c, Order: img.Order}
	case 270:
		out := make([]byte, img.Width*img.Height*c)
		newW, newH := img.Height, img.Width
		for y := range img.Height {
			for x := range img.Width {
				nx := y
				ny := newH - 1 - x
				copy(out[(ny*newW+nx)*c:(ny*newW+nx)*c+c], img.At(x, y))
			}
		}
		return RasterImage{Data: out, Width: newW, Height: newH, Channels: c, Order: img.Order}
	default:
		return img
	}
}
