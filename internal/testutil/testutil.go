// Package testutil provides shared fixtures for the engine's tests:
// synthetic scan images and seeded reference data.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateScanImage creates a plain synthetic scan of the given size with a
// white background. It carries no decodable content; extractor behavior is
// driven by fakes in tests, not by real decoding.
func GenerateScanImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// GenerateScanImageWithStrip creates a synthetic scan with a dark strip
// across the area where the identifier is printed, so crops can be verified
// by pixel inspection.
func GenerateScanImageWithStrip(width, height int, strip image.Rectangle) *image.RGBA {
	img := GenerateScanImage(width, height)
	draw.Draw(img, strip, &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

// EncodePNG encodes an image to PNG bytes, failing the test on error.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
