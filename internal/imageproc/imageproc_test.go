package imageproc

import (
	"testing"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, r, g, b byte) RasterImage {
	data := make([]byte, w*h*3)
	for i := 0; i < len(data); i += 3 {
		data[i], data[i+1], data[i+2] = r, g, b
	}
	img, err := NewRasterImage(data, w, h, ChannelOrderRGB)
	if err != nil {
		panic(err)
	}
	return img
}

func TestResizeBilinearShape(t *testing.T) {
	img := solidImage(4, 4, 100, 150, 200)
	out := ResizeBilinear(img, 8, 2)
	require.Equal(t, 8, out.Width)
	require.Equal(t, 2, out.Height)
	r, g, b := out.RGB888(0, 0)
	require.Equal(t, byte(100), r)
	require.Equal(t, byte(150), g)
	require.Equal(t, byte(200), b)
}

func TestResizeBicubicShape(t *testing.T) {
	img := solidImage(6, 6, 10, 20, 30)
	out := ResizeBicubic(img, 3, 9)
	require.Equal(t, 3, out.Width)
	require.Equal(t, 9, out.Height)
}

func TestResizeLongSidePreservesAspect(t *testing.T) {
	img := solidImage(100, 50, 0, 0, 0)
	out, sx, sy := ResizeLongSide(img, 20)
	require.Equal(t, 20, out.Width)
	require.Equal(t, 10, out.Height)
	require.InDelta(t, 0.2, sx, 1e-9)
	require.InDelta(t, 0.2, sy, 1e-9)
}

func TestPadToStrideMultiple(t *testing.T) {
	img := solidImage(5, 7, 1, 2, 3)
	out, padW, padH := PadToStride(img, 4)
	require.Equal(t, 3, padW)
	require.Equal(t, 1, padH)
	require.Equal(t, 8, out.Width)
	require.Equal(t, 8, out.Height)
}

func TestPadToStrideNoop(t *testing.T) {
	img := solidImage(8, 8, 1, 2, 3)
	out, padW, padH := PadToStride(img, 4)
	require.Equal(t, 0, padW)
	require.Equal(t, 0, padH)
	require.Equal(t, img.Width, out.Width)
}

func TestReplicatePadCHWWidthSmallerSrc(t *testing.T) {
	data := []float32{1, 2, 3}
	out := ReplicatePadCHWWidth(data, 1, 1, 3, 5)
	require.Equal(t, []float32{1, 2, 3, 3, 3}, out)
}

func TestReplicatePadCHWWidthIdentityWhenSrcGESize(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	out := ReplicatePadCHWWidth(data, 1, 1, 4, 3)
	require.Equal(t, data, out)
}

func TestToFloatHWCNormalization(t *testing.T) {
	img := solidImage(1, 1, 255, 0, 128)
	out := ToFloatHWC(img, [3]float64{0.5, 0.5, 0.5}, [3]float64{0.5, 0.5, 0.5})
	require.InDelta(t, 1.0, out[0], 1e-6)
	require.InDelta(t, -1.0, out[1], 1e-6)
	require.InDelta(t, float64(128)/255/0.5-1, out[2], 1e-6)
}

func TestHWCToCHWTranspose(t *testing.T) {
	hwc := []float32{1, 2, 3, 4, 5, 6} // 1x2 HWC with 3 channels
	chw := HWCToCHW(hwc, 2, 1, 3)
	require.Equal(t, []float32{1, 4, 2, 5, 3, 6}, chw)
}

func TestGrayscaleIntegerRounding(t *testing.T) {
	img := solidImage(1, 1, 100, 150, 200)
	gray := Grayscale(img)
	require.Equal(t, 1, gray.Channels)
	want := roundByte(0.299*100 + 0.587*150 + 0.114*200)
	require.Equal(t, want, gray.Data[0])
}

func TestGrayscaleNoopOnGray(t *testing.T) {
	data := []byte{10, 20, 30}
	img, err := NewRasterImage(data, 3, 1, ChannelOrderGray)
	require.NoError(t, err)
	out := Grayscale(img)
	require.Equal(t, img.Data, out.Data)
}

func TestCropBoxBasic(t *testing.T) {
	img := solidImage(10, 10, 0, 0, 0)
	for x := 2; x < 5; x++ {
		for y := 3; y < 6; y++ {
			copy(img.At(x, y), []byte{9, 9, 9})
		}
	}
	out := CropBox(img, geom.NewBox(2, 3, 5, 6))
	require.Equal(t, 3, out.Width)
	require.Equal(t, 3, out.Height)
	r, _, _ := out.RGB888(0, 0)
	require.Equal(t, byte(9), r)
}

func TestCropBoxClampsToBounds(t *testing.T) {
	img := solidImage(4, 4, 1, 1, 1)
	out := CropBox(img, geom.NewBox(-5, -5, 100, 100))
	require.Equal(t, 4, out.Width)
	require.Equal(t, 4, out.Height)
}

func TestRotate90Dimensions(t *testing.T) {
	img := solidImage(3, 5, 1, 2, 3)
	out := Rotate90(img)
	require.Equal(t, 5, out.Width)
	require.Equal(t, 3, out.Height)
}

func TestRotate180PreservesDimensions(t *testing.T) {
	img := solidImage(3, 5, 1, 2, 3)
	out := Rotate180(img)
	require.Equal(t, 3, out.Width)
	require.Equal(t, 5, out.Height)
}

func TestRotate90CornerMapping(t *testing.T) {
	data := []byte{
		1, 0, 0, 2, 0, 0,
		0, 0, 0, 0, 0, 0,
	}
	img, err := NewRasterImage(data, 2, 2, ChannelOrderRGB)
	require.NoError(t, err)
	out := Rotate90(img)
	r, _, _ := out.RGB888(1, 0)
	require.Equal(t, byte(1), r)
}

func TestWarpPerspectiveOutputDimensions(t *testing.T) {
	img := solidImage(10, 10, 7, 8, 9)
	quad := [4]geom.Point{{X: 1, Y: 1}, {X: 8, Y: 1}, {X: 8, Y: 8}, {X: 1, Y: 8}}
	out, err := WarpPerspective(img, quad, 6, 6)
	require.NoError(t, err)
	require.Equal(t, 6, out.Width)
	require.Equal(t, 6, out.Height)
}

func TestWarpPerspectiveSamplesSourceColor(t *testing.T) {
	img := solidImage(10, 10, 7, 8, 9)
	quad := [4]geom.Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	out, err := WarpPerspective(img, quad, 5, 5)
	require.NoError(t, err)
	r, g, b := out.RGB888(2, 2)
	require.Equal(t, byte(7), r)
	require.Equal(t, byte(8), g)
	require.Equal(t, byte(9), b)
}

func TestComputeHomographyIdentityCorners(t *testing.T) {
	src := [4]geom.Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	dst := [4]geom.Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	h, err := ComputeHomography(src, dst)
	require.NoError(t, err)
	p := h.Apply(geom.Point{X: 4, Y: 4})
	require.InDelta(t, 4, p.X, 1e-6)
	require.InDelta(t, 4, p.Y, 1e-6)
}
