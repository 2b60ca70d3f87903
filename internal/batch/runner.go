// Package batch processes submission batches: bounded-concurrency fan-out
// of per-document extraction, and the read-only consistency audit over a
// batch's extracted documents.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jamesyinbaare/rmps-sub002/internal/extraction"
	"github.com/jamesyinbaare/rmps-sub002/internal/storage"
	"github.com/jamesyinbaare/rmps-sub002/internal/store"
)

// Extractor runs the per-document extraction pipeline.
type Extractor interface {
	ExtractID(ctx context.Context, imageBytes []byte, documentID, examID uuid.UUID) (*extraction.Result, error)
}

// Store is the slice of the relational store the runner needs.
type Store interface {
	GetBatch(ctx context.Context, id uuid.UUID) (*store.Batch, error)
	ListBatchDocuments(ctx context.Context, batchID uuid.UUID) ([]store.BatchDocument, error)
	UpdateBatchDocument(ctx context.Context, itemID uuid.UUID, status string, errorMessage string) error
	UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status store.BatchStatus, processed, failed int) error
}

// Config controls batch fan-out.
type Config struct {
	// Workers bounds concurrent document extractions, protecting the
	// CPU-bound decode/OCR work and the database connection pool.
	Workers int

	// DocumentTimeout is the per-document deadline. A stuck extraction is
	// abandoned without blocking the rest of the batch.
	DocumentTimeout time.Duration
}

// DefaultConfig returns the runner defaults.
func DefaultConfig() Config {
	return Config{Workers: 5, DocumentTimeout: 30 * time.Second}
}

// Summary reports the outcome of one batch run.
type Summary struct {
	BatchID   uuid.UUID         `json:"batch_id"`
	Status    store.BatchStatus `json:"status"`
	Total     int               `json:"total"`
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Duration  time.Duration     `json:"duration"`
}

// Runner drives extraction over all documents of a batch. Each document is
// isolated: a failure is recorded on its batch item and siblings continue.
// A batch is best-effort with partial success; it is marked failed only
// when zero documents succeeded.
type Runner struct {
	store   Store
	files   storage.Storage
	extract Extractor
	cfg     Config
}

// NewRunner wires a runner.
func NewRunner(st Store, files storage.Storage, extract Extractor, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = DefaultConfig().DocumentTimeout
	}
	return &Runner{store: st, files: files, extract: extract, cfg: cfg}
}

// Run processes every document in the batch and records the final counts.
// A cancelled run is not an error: the recorded counts and status are
// accurate for the work that happened, and unprocessed documents are
// recorded as failed items, so the summary is returned either way.
func (r *Runner) Run(ctx context.Context, batchID uuid.UUID) (*Summary, error) {
	batch, err := r.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	items, err := r.store.ListBatchDocuments(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpdateBatchStatus(ctx, batchID, store.BatchProcessing, 0, 0); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		mu        sync.Mutex
		processed int
		failed    int
	)

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for _, item := range items {
		g.Go(func() error {
			ok := r.processItem(ctx, item)
			mu.Lock()
			if ok {
				processed++
			} else {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := store.BatchCompleted
	if len(items) > 0 && processed == 0 {
		status = store.BatchFailed
	}

	// Record the outcome even when the run was cancelled mid-batch.
	finishCtx := context.WithoutCancel(ctx)
	if err := r.store.UpdateBatchStatus(finishCtx, batchID, status, processed, failed); err != nil {
		return nil, err
	}

	summary := &Summary{
		BatchID:   batch.ID,
		Status:    status,
		Total:     len(items),
		Processed: processed,
		Failed:    failed,
		Duration:  time.Since(start),
	}
	slog.Info("batch run finished",
		"batch_id", batchID,
		"status", status,
		"total", summary.Total,
		"processed", processed,
		"failed", failed,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// processItem runs one document end to end and records the outcome on its
// batch item. It never propagates an error; every failure mode becomes a
// failed item with a message.
func (r *Runner) processItem(ctx context.Context, item store.BatchDocument) bool {
	ictx, cancel := context.WithTimeout(ctx, r.cfg.DocumentTimeout)
	defer cancel()

	// Item bookkeeping must land even after a timeout or cancellation.
	recordCtx := context.WithoutCancel(ctx)

	if item.Document == nil {
		r.recordItem(recordCtx, item.ID, store.ItemFailed, "document record missing")
		return false
	}
	doc := item.Document

	if err := r.store.UpdateBatchDocument(ictx, item.ID, store.ItemProcessing, ""); err != nil {
		slog.Warn("failed to mark batch item processing", "item_id", item.ID, "error", err)
	}

	data, err := r.files.Retrieve(ictx, doc.FilePath)
	if err != nil {
		msg := fmt.Sprintf("retrieving scan: %v", err)
		if errors.Is(err, storage.ErrNotFound) {
			msg = fmt.Sprintf("scan file not found: %s", doc.FilePath)
		}
		r.recordItem(recordCtx, item.ID, store.ItemFailed, msg)
		return false
	}

	res, err := r.extract.ExtractID(ictx, data, doc.ID, doc.ExamID)
	if err != nil {
		r.recordItem(recordCtx, item.ID, store.ItemFailed, fmt.Sprintf("extraction error: %v", err))
		return false
	}
	if !res.IsValid {
		r.recordItem(recordCtx, item.ID, store.ItemFailed, res.ErrorMessage)
		return false
	}

	r.recordItem(recordCtx, item.ID, store.ItemCompleted, "")
	return true
}

func (r *Runner) recordItem(ctx context.Context, itemID uuid.UUID, status, message string) {
	if err := r.store.UpdateBatchDocument(ctx, itemID, status, message); err != nil {
		slog.Error("failed to record batch item outcome", "item_id", itemID, "status", status, "error", err)
	}
}
