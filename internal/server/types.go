// Package server exposes the extraction engine over HTTP: per-document
// extraction, batch runs and consistency reports, and sheet ID generation
// for the print side.
package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jamesyinbaare/rmps-sub002/internal/batch"
	"github.com/jamesyinbaare/rmps-sub002/internal/config"
	"github.com/jamesyinbaare/rmps-sub002/internal/extraction"
)

// extractorService is what the server needs from the extraction pipeline.
type extractorService interface {
	ExtractID(ctx context.Context, imageBytes []byte, documentID, examID uuid.UUID) (*extraction.Result, error)
}

// batchRunner is what the server needs from the batch subsystem.
type batchRunner interface {
	Run(ctx context.Context, batchID uuid.UUID) (*batch.Summary, error)
	ValidateBatch(ctx context.Context, batchID uuid.UUID) (*batch.Report, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	extractor   extractorService
	batches     batchRunner
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
}

// NewServer creates a server around already-constructed components.
func NewServer(cfg config.ServerConfig, extractor extractorService, batches batchRunner) *Server {
	return &Server{
		extractor:   extractor,
		batches:     batches,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ExtractResponse wraps a per-document extraction result.
type ExtractResponse struct {
	Success bool               `json:"success"`
	Result  *extraction.Result `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// GenerateRequest is the POST /api/sheets/generate payload.
type GenerateRequest struct {
	SchoolCode  string `json:"school_code"`
	SubjectCode string `json:"subject_code"`
	Series      string `json:"series"`
	TestType    string `json:"test_type"`
	SheetNumber int    `json:"sheet_number"`
	Candidates  int    `json:"candidates,omitempty"`
}

// GenerateResponse carries the generated canonical sheet ID.
type GenerateResponse struct {
	SheetID    string `json:"sheet_id"`
	SheetCount int    `json:"sheet_count,omitempty"`
}

// ErrorResponse is the generic failure payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}
