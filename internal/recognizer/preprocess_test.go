package recognizer

import (
	"testing"

	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/stretchr/testify/require"
)

func rgbImage(t *testing.T, w, h int) imageproc.RasterImage {
	t.Helper()
	px := make([]byte, w*h*3)
	for i := range px {
		px[i] = byte(i % 200)
	}
	img, err := imageproc.NewRasterImage(px, w, h, imageproc.ChannelOrderRGB)
	require.NoError(t, err)
	return img
}

func TestPreprocessEmitsTargetHeightAndPaddedWidth(t *testing.T) {
	img := rgbImage(t, 200, 32)
	res, err := Preprocess(img, 32)
	require.NoError(t, err)
	require.Equal(t, 32, res.TargetH)
	require.Equal(t, int64(1), res.Tensor.Shape[0])
	require.Equal(t, int64(1), res.Tensor.Shape[1])
	require.Equal(t, int64(32), res.Tensor.Shape[2])
	require.Equal(t, int64(res.PaddedW), res.Tensor.Shape[3])
	require.LessOrEqual(t, res.ResizedW, res.PaddedW)
}

func TestPreprocessNormalizesToMinusOneOne(t *testing.T) {
	img := rgbImage(t, 64, 32)
	res, err := Preprocess(img, 32)
	require.NoError(t, err)
	for _, v := range res.Tensor.Data {
		require.GreaterOrEqual(t, v, float32(-1.0001))
		require.LessOrEqual(t, v, float32(1.0001))
	}
}

func TestPreprocessRejectsZeroHeight(t *testing.T) {
	img := rgbImage(t, 10, 10)
	_, err := Preprocess(img, 0)
	require.Error(t, err)
}

func TestPreprocessRejectsZeroDimensionCrop(t *testing.T) {
	_, err := Preprocess(imageproc.RasterImage{Width: 0, Height: 0}, 32)
	require.Error(t, err)
}

func TestPreprocessTallNarrowCropStillProducesWidePadding(t *testing.T) {
	// A tall, narrow crop (ratio < 1) still yields a width >= targetH after
	// the ratio inversion in spec §4.F step 2.
	img := rgbImage(t, 10, 40)
	res, err := Preprocess(img, 32)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.PaddedW, 32)
}

func TestPreprocessReplicatePadIsIdentityWhenNotNeeded(t *testing.T) {
	// An exact-integer aspect ratio makes ceil(ratio) == ratio, so maxWidth
	// and resizedW land on the same value and no replicate padding is added.
	img := rgbImage(t, 128, 32)
	res, err := Preprocess(img, 32)
	require.NoError(t, err)
	require.Equal(t, res.PaddedW, res.ResizedW)
}
