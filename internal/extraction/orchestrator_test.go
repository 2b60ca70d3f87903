package extraction

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesyinbaare/rmps-sub002/internal/barcode"
	"github.com/jamesyinbaare/rmps-sub002/internal/testutil"
)

type stubBackend struct {
	value string
	err   error
	calls int
}

func (s *stubBackend) Decode(_ context.Context, _ image.Image, _ barcode.Options) (barcode.Result, error) {
	s.calls++
	if s.err != nil {
		return barcode.Result{}, s.err
	}
	return barcode.Result{Format: barcode.FormatCode128, Value: s.value}, nil
}

type stubOCR struct {
	value string
	ok    bool
	calls int
}

func (s *stubOCR) Extract(_ context.Context, _ image.Image) (string, bool) {
	s.calls++
	return s.value, s.ok
}

func scanBytes(t *testing.T) []byte {
	t.Helper()
	return testutil.EncodePNG(t, testutil.GenerateScanImage(60, 40))
}

func TestOrchestrator_BarcodeWinsOverOCR(t *testing.T) {
	be := &stubBackend{value: "ABC123MA01107"}
	ocr := &stubOCR{value: "ZZZ999XX01201", ok: true}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true, OCREnabled: true, BarcodeFormat: barcode.FormatCode128}, be, ocr)

	cand, err := o.Extract(context.Background(), scanBytes(t))
	require.NoError(t, err)
	require.True(t, cand.Found)
	assert.Equal(t, "ABC123MA01107", cand.Value)
	assert.Equal(t, MethodBarcode, cand.Method)
	assert.InDelta(t, BarcodeConfidence, cand.Confidence, 1e-9)
	assert.Zero(t, ocr.calls, "OCR must not run when barcode succeeds")
}

func TestOrchestrator_FallsBackToOCR(t *testing.T) {
	be := &stubBackend{err: barcode.ErrNotFound}
	ocr := &stubOCR{value: "ABC123MA01107", ok: true}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true, OCREnabled: true, BarcodeFormat: barcode.FormatCode128}, be, ocr)

	cand, err := o.Extract(context.Background(), scanBytes(t))
	require.NoError(t, err)
	require.True(t, cand.Found)
	assert.Equal(t, MethodOCR, cand.Method)
	assert.InDelta(t, OCRConfidence, cand.Confidence, 1e-9)
	assert.Equal(t, 1, be.calls)
}

func TestOrchestrator_BarcodeDisabled(t *testing.T) {
	be := &stubBackend{value: "ABC123MA01107"}
	ocr := &stubOCR{value: "DEF456EN02202", ok: true}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: false, OCREnabled: true}, be, ocr)

	cand, err := o.Extract(context.Background(), scanBytes(t))
	require.NoError(t, err)
	require.True(t, cand.Found)
	assert.Equal(t, MethodOCR, cand.Method)
	assert.Zero(t, be.calls, "barcode must not run when disabled")
}

func TestOrchestrator_BothFail(t *testing.T) {
	be := &stubBackend{err: barcode.ErrNotFound}
	ocr := &stubOCR{ok: false}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true, OCREnabled: true, BarcodeFormat: barcode.FormatCode128}, be, ocr)

	cand, err := o.Extract(context.Background(), scanBytes(t))
	require.NoError(t, err)
	assert.False(t, cand.Found)
}

func TestOrchestrator_BothDisabled(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{}, nil, nil)

	cand, err := o.Extract(context.Background(), scanBytes(t))
	require.NoError(t, err)
	assert.False(t, cand.Found)
}

func TestOrchestrator_UndecodableImage(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true}, &stubBackend{}, nil)

	_, err := o.Extract(context.Background(), []byte("not an image"))
	require.Error(t, err)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	be := &stubBackend{err: ctx.Err()}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true, OCREnabled: true}, be, &stubOCR{ok: true, value: "x"})

	_, err := o.Extract(ctx, scanBytes(t))
	require.ErrorIs(t, err, context.Canceled)
}
