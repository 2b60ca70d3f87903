// Package ocr recovers a sheet ID candidate from a scanned image when the
// barcode cannot be decoded. The scan is resized to a canonical geometry,
// cropped to the region of interest where the ID is printed, and run through
// single-line text recognition.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/jamesyinbaare/rmps-sub002/internal/identifier"
)

// ROI is the rectangular region of interest, in pixels of the resized image.
type ROI struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Config holds the deterministic preprocessing parameters. One scan layout
// per exam type is assumed, so a single resize geometry and ROI apply to
// every image.
type Config struct {
	ResizeWidth  int
	ResizeHeight int
	ROI          ROI
}

// Extractor runs the preprocess-recognize-clean sequence over scans.
type Extractor struct {
	cfg Config
	rec Recognizer
}

// NewExtractor builds an Extractor around the given recognizer.
func NewExtractor(cfg Config, rec Recognizer) *Extractor {
	return &Extractor{cfg: cfg, rec: rec}
}

// Extract returns the first 13-character alphanumeric candidate recognized
// within the region of interest. The boolean is false when no candidate was
// found; recognition failures are treated the same as an empty read.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (string, bool) {
	if img == nil {
		return "", false
	}

	crop := e.Preprocess(img)
	text, err := e.rec.RecognizeLine(ctx, crop)
	if err != nil {
		return "", false
	}
	return CleanCandidate(text)
}

// Preprocess resizes the image to the canonical geometry and crops it to the
// configured region of interest. The ROI is clamped to the resized bounds so
// a misconfigured region can never exceed or invert the image.
func (e *Extractor) Preprocess(img image.Image) image.Image {
	resized := imaging.Resize(img, e.cfg.ResizeWidth, e.cfg.ResizeHeight, imaging.Lanczos)
	rect := ClampROI(e.cfg.ROI, e.cfg.ResizeWidth, e.cfg.ResizeHeight)
	return imaging.Crop(resized, rect)
}

// ClampROI converts an ROI to an image.Rectangle bounded by width x height.
// Degenerate regions collapse to the full image rather than producing an
// empty or inverted crop.
func ClampROI(roi ROI, width, height int) image.Rectangle {
	left := clamp(roi.Left, 0, width)
	top := clamp(roi.Top, 0, height)
	right := clamp(roi.Right, 0, width)
	bottom := clamp(roi.Bottom, 0, height)
	if right <= left || bottom <= top {
		return image.Rect(0, 0, width, height)
	}
	return image.Rect(left, top, right, bottom)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CleanCandidate strips all non-alphanumeric characters from recognized text
// and returns the first identifier.CodeLength-wide window of the cleaned
// string. Tesseract tends to bracket the ID with stray punctuation and
// whitespace; the strip-then-window pass recovers the code from that noise.
func CleanCandidate(text string) (string, bool) {
	cleaned := make([]byte, 0, len(text))
	for i := range len(text) {
		c := text[i]
		if isAlnumByte(c) {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) < identifier.CodeLength {
		return "", false
	}
	return string(cleaned[:identifier.CodeLength]), true
}

func isAlnumByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// Validate reports configuration problems early, before any image is read.
func (c Config) Validate() error {
	if c.ResizeWidth <= 0 || c.ResizeHeight <= 0 {
		return fmt.Errorf("ocr: resize dimensions must be positive, got %dx%d", c.ResizeWidth, c.ResizeHeight)
	}
	return nil
}
