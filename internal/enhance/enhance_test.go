package enhance_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imageenhancer/internal/apperr"
	"imageenhancer/internal/enhance"
)

func testImagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 7 % 256),
				G: uint8(y * 13 % 256),
				B: uint8((x + y) * 3 % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEnhanceProducesDecodablePNG(t *testing.T) {
	out, seconds, err := enhance.Enhance(testImagePNG(t, 40, 30))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seconds, 0.0)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
}

func TestEnhanceIsDeterministic(t *testing.T) {
	src := testImagePNG(t, 25, 25)

	first, _, err := enhance.Enhance(src)
	require.NoError(t, err)
	second, _, err := enhance.Enhance(src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEnhanceOutputIsGrayscale(t *testing.T) {
	out, _, err := enhance.Enhance(testImagePNG(t, 16, 16))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := decoded.At(x, y).RGBA()
			require.Equal(t, r, g, "pixel (%d,%d)", x, y)
			require.Equal(t, g, b, "pixel (%d,%d)", x, y)
		}
	}
}

func TestEnhanceAcceptsJPEG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, _, err := enhance.Enhance(buf.Bytes())
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestEnhanceRejectsGarbage(t *testing.T) {
	out, _, err := enhance.Enhance([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProcessing))
	assert.Nil(t, out)
}
