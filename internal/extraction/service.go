package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jamesyinbaare/rmps-sub002/internal/identifier"
	"github.com/jamesyinbaare/rmps-sub002/internal/store"
)

// DocumentStore is the slice of the relational store the service writes
// through: the reference queries plus the document read-modify-write cycle.
type DocumentStore interface {
	ReferenceStore
	SaveExtractionSuccess(ctx context.Context, documentID uuid.UUID, upd store.ExtractionUpdate) error
	SaveExtractionFailure(ctx context.Context, documentID uuid.UUID,
		extractedID, method string, confidence float64, message string) error
}

// Service runs the full extract-parse-validate-gate sequence for one
// document and persists the outcome. Construct one instance at startup and
// share it between the batch runner and the request handlers; it holds no
// per-call state.
type Service struct {
	orchestrator  *Orchestrator
	validator     *Validator
	docs          DocumentStore
	minConfidence float64
}

// NewService wires the pipeline together.
func NewService(orchestrator *Orchestrator, validator *Validator, docs DocumentStore, minConfidence float64) *Service {
	return &Service{
		orchestrator:  orchestrator,
		validator:     validator,
		docs:          docs,
		minConfidence: minConfidence,
	}
}

// ExtractID recovers and validates the sheet identifier from the scanned
// image, then records the outcome on the document. The four gates run in
// order (grammar, reference data, duplicate slot, confidence) and the first
// failure wins. Gate failures are reported in the Result, not the error
// return; the error return carries only storage and infrastructure
// failures, which the caller records against the document and siblings
// continue past.
func (s *Service) ExtractID(ctx context.Context, imageBytes []byte, documentID, examID uuid.UUID) (*Result, error) {
	cand, err := s.orchestrator.Extract(ctx, imageBytes)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return s.fail(ctx, documentID, Result{
			ErrorKind:    FailureExtraction,
			ErrorMessage: fmt.Sprintf("extraction failed: %v", err),
		})
	}
	if !cand.Found {
		return s.fail(ctx, documentID, Result{
			ErrorKind:    FailureExtraction,
			ErrorMessage: "extraction failed: no identifier could be read from the image",
		})
	}

	base := Result{
		ExtractedID: cand.Value,
		Method:      cand.Method,
		Confidence:  cand.Confidence,
	}

	parsed, err := identifier.Parse(cand.Value)
	if err != nil {
		base.ErrorKind = FailureFormat
		base.ErrorMessage = err.Error()
		return s.fail(ctx, documentID, base)
	}
	base.SchoolCode = parsed.SchoolCode
	base.SubjectCode = parsed.SubjectCode
	base.TestType = parsed.TestType
	base.SheetNumber = parsed.SheetNumber

	ref, err := s.validator.Validate(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if !ref.OK {
		base.ErrorKind = FailureReference
		base.ErrorMessage = ref.Message
		return s.fail(ctx, documentID, base)
	}
	base.SchoolID = &ref.SchoolID
	base.SubjectID = &ref.SubjectID

	dup, err := s.validator.CheckDuplicate(ctx, ref.SchoolID, ref.SubjectID, parsed.TestType, parsed.SheetNumber, documentID)
	if err != nil {
		return nil, err
	}
	if dup.IsDuplicate {
		base.ErrorKind = FailureDuplicate
		base.ErrorMessage = dup.Message
		return s.fail(ctx, documentID, base)
	}

	// The candidate is structurally and referentially sound; the last gate
	// asks whether we trust the read itself.
	if cand.Confidence < s.minConfidence {
		base.ErrorKind = FailureConfidence
		base.ErrorMessage = fmt.Sprintf("confidence %.2f below threshold %.2f", cand.Confidence, s.minConfidence)
		return s.fail(ctx, documentID, base)
	}

	err = s.docs.SaveExtractionSuccess(ctx, documentID, store.ExtractionUpdate{
		ExtractedID: cand.Value,
		Method:      string(cand.Method),
		Confidence:  cand.Confidence,
		SchoolID:    ref.SchoolID,
		SubjectID:   ref.SubjectID,
		TestType:    parsed.TestType,
		SheetNumber: parsed.SheetNumber,
	})
	if errors.Is(err, store.ErrDuplicateSlot) {
		// A concurrent extraction won the slot between the pre-check and
		// the commit. The constraint violation is the authoritative signal.
		base.ErrorKind = FailureDuplicate
		base.ErrorMessage = fmt.Sprintf("duplicate sheet: test type %s sheet %s committed by a concurrent extraction",
			parsed.TestType, parsed.SheetNumber)
		return s.fail(ctx, documentID, base)
	}
	if err != nil {
		return nil, err
	}

	base.IsValid = true
	slog.Info("document extracted",
		"document_id", documentID,
		"exam_id", examID,
		"method", cand.Method,
		"school_code", parsed.SchoolCode,
		"subject_code", parsed.SubjectCode,
		"test_type", parsed.TestType,
		"sheet_number", parsed.SheetNumber)
	return &base, nil
}

// fail records a gate failure on the document and returns the result. The
// raw extracted string and method survive on the row when the pipeline got
// far enough to have them.
func (s *Service) fail(ctx context.Context, documentID uuid.UUID, res Result) (*Result, error) {
	err := s.docs.SaveExtractionFailure(ctx, documentID,
		res.ExtractedID, string(res.Method), res.Confidence, res.ErrorMessage)
	if err != nil {
		return nil, err
	}
	slog.Warn("document extraction rejected",
		"document_id", documentID,
		"kind", res.ErrorKind.String(),
		"reason", res.ErrorMessage)
	return &res, nil
}
