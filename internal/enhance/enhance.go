// Package enhance implements the fixed image enhancement pipeline:
// grayscale conversion, 3x3 sharpening and an affine contrast boost.
package enhance

import (
	"bytes"
	"image/color"
	"time"

	"github.com/disintegration/imaging"

	"imageenhancer/internal/apperr"
)

// sharpenKernel is unnormalized: center 9, eight neighbors -1.
var sharpenKernel = [9]float64{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

const (
	contrastAlpha = 1.2
	contrastBeta  = 10
)

// Enhance runs the pipeline over raw JPEG/PNG bytes and returns PNG bytes
// plus elapsed seconds. Edge pixels of the convolution are handled by
// replicating the border row/column (imaging's Convolve3x3 policy).
func Enhance(data []byte) ([]byte, float64, error) {
	const op = "enhance.Enhance"
	start := time.Now()

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.ErrProcessing, op, "decode image", err)
	}

	gray := imaging.Grayscale(src)
	sharpened := imaging.Convolve3x3(gray, sharpenKernel, nil)
	boosted := imaging.AdjustFunc(sharpened, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(contrastAlpha*float64(c.R) + contrastBeta),
			G: clamp(contrastAlpha*float64(c.G) + contrastBeta),
			B: clamp(contrastAlpha*float64(c.B) + contrastBeta),
			A: c.A,
		}
	})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, boosted, imaging.PNG); err != nil {
		return nil, 0, apperr.Wrap(apperr.ErrProcessing, op, "encode png", err)
	}

	return buf.Bytes(), time.Since(start).Seconds(), nil
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
