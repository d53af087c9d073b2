package imageproc

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
)

// Decoder is the image-loader capability the core depends on (spec §6). An
// opaque source is decoded to 8-bit sRGB with alpha explicitly stripped —
// never a 4-channel buffer advertised as 3 channels.
type Decoder interface {
	Decode(r io.Reader) (RasterImage, error)
	DecodeGrayscale(r io.Reader) (RasterImage, error)
}

// StdDecoder decodes via the standard library's image package plus
// golang.org/x/image/bmp, matching the formats the teacher's CLI accepts
// (JPEG, PNG, BMP).
type StdDecoder struct{}

var _ Decoder = StdDecoder{}

// Decode reads an image and returns it as RGB (alpha, if any, is stripped by
// fromGoImage).
func (StdDecoder) Decode(r io.Reader) (RasterImage, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return RasterImage{}, fmt.Errorf("imageproc: decode: %w", err)
	}
	return fromGoImage(img), nil
}

// DecodeGrayscale decodes to RGB via Decode and then converts to
// single-channel gray using the same integer rounding rule the recognizer
// preprocessor uses (spec §4.F step 1).
func (StdDecoder) DecodeGrayscale(r io.Reader) (RasterImage, error) {
	rgb, err := (StdDecoder{}).Decode(r)
	if err != nil {
		return RasterImage{}, err
	}
	return Grayscale(rgb), nil
}

// fromGoImage converts a decoded image.Image into an RGB RasterImage,
// stripping alpha explicitly: it keeps the alpha-premultiplied color that
// color.Color.RGBA reports and drops the alpha channel, so a translucent
// pixel comes out as if composited over black.
func fromGoImage(img image.Image) RasterImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[i] = byte(r >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	out, _ := NewRasterImage(data, w, h, ChannelOrderRGB)
	return out
}
