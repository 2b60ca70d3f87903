package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer performs single-line text recognition over a cropped region.
type Recognizer interface {
	RecognizeLine(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// TesseractRecognizer recognizes text with the Tesseract engine via
// gosseract. It is restricted to single-line segmentation and an
// alphanumeric whitelist, which is all the sheet ID strip contains.
type TesseractRecognizer struct {
	client *gosseract.Client
}

const alnumWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewTesseractRecognizer constructs a recognizer. The returned value owns a
// Tesseract client and must be closed when no longer needed.
func NewTesseractRecognizer() (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ocr: setting page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(alnumWhitelist); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ocr: setting whitelist: %w", err)
	}
	return &TesseractRecognizer{client: client}, nil
}

// RecognizeLine runs OCR over the image. The Tesseract call itself is a
// synchronous unit of work; the context is only checked at the boundary.
func (r *TesseractRecognizer) RecognizeLine(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("ocr: encoding region: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("ocr: loading region: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognition: %w", err)
	}
	return text, nil
}

// Close releases the underlying Tesseract client.
func (r *TesseractRecognizer) Close() error {
	return r.client.Close()
}
