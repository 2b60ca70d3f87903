package cmd

import (
	"fmt"
	"time"

	"github.com/jamesyinbaare/rmps-sub002/internal/barcode"
	"github.com/jamesyinbaare/rmps-sub002/internal/batch"
	"github.com/jamesyinbaare/rmps-sub002/internal/config"
	"github.com/jamesyinbaare/rmps-sub002/internal/extraction"
	"github.com/jamesyinbaare/rmps-sub002/internal/ocr"
	"github.com/jamesyinbaare/rmps-sub002/internal/storage"
	"github.com/jamesyinbaare/rmps-sub002/internal/store"
)

// engine bundles the components every command needs. Each component is
// constructed once and injected by reference; nothing here is global.
type engine struct {
	store   *store.Store
	files   storage.Storage
	service *extraction.Service
	runner  *batch.Runner

	recognizer *ocr.TesseractRecognizer
}

// buildEngine constructs the full component graph from configuration.
// The returned cleanup releases the OCR engine and must always be called.
func buildEngine(cfg *config.Config) (*engine, func(), error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	files := storage.NewLocal(cfg.Storage.BaseDir)

	format, err := barcode.ParseFormat(cfg.Extraction.BarcodeFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid extraction.barcode_format: %w", err)
	}

	var (
		recognizer   *ocr.TesseractRecognizer
		ocrExtractor extraction.OCRExtractor
	)
	if cfg.Extraction.OCREnabled {
		recognizer, err = ocr.NewTesseractRecognizer()
		if err != nil {
			return nil, nil, err
		}
		ocrExtractor = ocr.NewExtractor(ocr.Config{
			ResizeWidth:  cfg.Extraction.OCRResizeWidth,
			ResizeHeight: cfg.Extraction.OCRResizeHeight,
			ROI: ocr.ROI{
				Left:   cfg.Extraction.OCRRegion.Left,
				Top:    cfg.Extraction.OCRRegion.Top,
				Right:  cfg.Extraction.OCRRegion.Right,
				Bottom: cfg.Extraction.OCRRegion.Bottom,
			},
		}, recognizer)
	}

	orchestrator := extraction.NewOrchestrator(extraction.OrchestratorConfig{
		BarcodeEnabled: cfg.Extraction.BarcodeEnabled,
		BarcodeFormat:  format,
		OCREnabled:     cfg.Extraction.OCREnabled,
	}, barcode.NewBackend(), ocrExtractor)

	validator := extraction.NewValidator(st)
	service := extraction.NewService(orchestrator, validator, st, cfg.Extraction.MinConfidence)

	runner := batch.NewRunner(st, files, service, batch.Config{
		Workers:         cfg.Batch.Workers,
		DocumentTimeout: time.Duration(cfg.Batch.DocumentTimeout) * time.Second,
	})

	eng := &engine{
		store:      st,
		files:      files,
		service:    service,
		runner:     runner,
		recognizer: recognizer,
	}
	cleanup := func() {
		if eng.recognizer != nil {
			_ = eng.recognizer.Close()
		}
	}
	return eng, cleanup, nil
}
