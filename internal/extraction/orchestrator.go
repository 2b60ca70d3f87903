package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/jamesyinbaare/rmps-sub002/internal/barcode"
)

// OCRExtractor is the fallback text-recognition extractor. The concrete
// implementation lives in internal/ocr; tests substitute fakes.
type OCRExtractor interface {
	Extract(ctx context.Context, img image.Image) (string, bool)
}

// OrchestratorConfig holds the feature flags for the fallback chain.
type OrchestratorConfig struct {
	BarcodeEnabled bool
	BarcodeFormat  barcode.Format
	OCREnabled     bool
}

// Orchestrator applies the barcode-first extraction policy. This is a
// strict priority chain, not a race: a successful barcode decode is
// authoritative and OCR is never consulted, because the decode is
// deterministic while OCR is a guess.
type Orchestrator struct {
	cfg     OrchestratorConfig
	backend barcode.Backend
	ocr     OCRExtractor
}

// NewOrchestrator builds an orchestrator. Either extractor may be nil when
// the corresponding method is disabled.
func NewOrchestrator(cfg OrchestratorConfig, backend barcode.Backend, ocr OCRExtractor) *Orchestrator {
	return &Orchestrator{cfg: cfg, backend: backend, ocr: ocr}
}

// Extract decodes the image and runs the fallback chain. A Candidate with
// Found=false means neither method produced a candidate; the error return
// is reserved for undecodable image bytes and context cancellation.
func (o *Orchestrator) Extract(ctx context.Context, imageBytes []byte) (Candidate, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return Candidate{}, fmt.Errorf("decoding scan image: %w", err)
	}

	if o.cfg.BarcodeEnabled && o.backend != nil {
		res, err := o.backend.Decode(ctx, img, barcode.Options{
			Format:    o.cfg.BarcodeFormat,
			TryHarder: true,
		})
		if err == nil && res.Value != "" {
			return Candidate{Value: res.Value, Method: MethodBarcode, Confidence: BarcodeConfidence, Found: true}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, ctxErr
		}
		slog.Debug("barcode decode produced no candidate, falling back", "error", err)
	}

	if o.cfg.OCREnabled && o.ocr != nil {
		if value, ok := o.ocr.Extract(ctx, img); ok {
			return Candidate{Value: value, Method: MethodOCR, Confidence: OCRConfidence, Found: true}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, ctxErr
		}
	}

	return Candidate{}, nil
}
