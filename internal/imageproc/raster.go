// Package imageproc implements the numerical image primitives the OCR
// pipeline is built on: resizing, padding, channel conversion, cropping and
// perspective warping. Every function here is a pure transformation on a
// RasterImage or a float tensor buffer — no package in this module keeps
// image state beyond the call that produced it.
package imageproc

import "fmt"

// ChannelOrder records how channels are interleaved in a RasterImage's Data.
// It is metadata only — the pipeline never silently reorders channels on a
// consumer's behalf (spec §3).
type ChannelOrder int

const (
	ChannelOrderRGB ChannelOrder = iota
	ChannelOrderRGBA
	ChannelOrderBGR
	ChannelOrderBGRA
	ChannelOrderGray
)

func (o ChannelOrder) Channels() int {
	switch o {
	case ChannelOrderRGB, ChannelOrderBGR:
		return 3
	case ChannelOrderRGBA, ChannelOrderBGRA:
		return 4
	case ChannelOrderGray:
		return 1
	default:
		return 0
	}
}

func (o ChannelOrder) String() string {
	switch o {
	case ChannelOrderRGB:
		return "rgb"
	case ChannelOrderRGBA:
		return "rgba"
	case ChannelOrderBGR:
		return "bgr"
	case ChannelOrderBGRA:
		return "bgra"
	case ChannelOrderGray:
		return "gray"
	default:
		return "unknown"
	}
}

// RasterImage is a contiguous, row-major, channel-interleaved (HWC) byte
// buffer plus the metadata needed to interpret it (spec §3).
type RasterImage struct {
	Data     []byte
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
}

// NewRasterImage validates the length invariant len(data) == w*h*channels
// before constructing the image.
func NewRasterImage(data []byte, w, h int, order ChannelOrder) (RasterImage, error) {
	c := order.Channels()
	if c == 0 {
		return RasterImage{}, fmt.Errorf("imageproc: unsupported channel order %v", order)
	}
	if w <= 0 || h <= 0 {
		return RasterImage{}, fmt.Errorf("imageproc: invalid dimensions %dx%d", w, h)
	}
	want := w * h * c
	if len(data) != want {
		return RasterImage{}, fmt.Errorf("imageproc: data length %d != w*h*channels %d", len(data), want)
	}
	return RasterImage{Data: data, Width: w, Height: h, Channels: c, Order: order}, nil
}

// At returns the channel values for pixel (x,y) as a slice view into Data.
func (img RasterImage) At(x, y int) []byte {
	idx := (y*img.Width + x) * img.Channels
	return img.Data[idx : idx+img.Channels]
}

// RGB888 returns the (r,g,b) byte triple for pixel (x,y), accounting for the
// image's channel order (including BGR/BGRA swap).
func (img RasterImage) RGB888(x, y int) (r, g, b byte) {
	px := img.At(x, y)
	switch img.Order {
	case ChannelOrderBGR, ChannelOrderBGRA:
		return px[2], px[1], px[0]
	case ChannelOrderGray:
		return px[0], px[0], px[0]
	default: // RGB, RGBA
		return px[0], px[1], px[2]
	}
}
