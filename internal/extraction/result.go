// Package extraction runs the full identifier recovery pipeline for one
// scanned sheet: barcode-first extraction with OCR fallback, grammar parse,
// reference validation, duplicate pre-check, and the confidence gate.
package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Method identifies which technique produced an extracted identifier.
type Method string

const (
	MethodBarcode Method = "barcode"
	MethodOCR     Method = "ocr"
	MethodManual  Method = "manual"
)

// Fixed confidences per method. A barcode decode is deterministic and
// checksummed, so it carries a fixed high confidence; OCR is a heuristic
// read over noisy pixels and carries a fixed lower one.
const (
	BarcodeConfidence = 0.99
	OCRConfidence     = 0.85
)

// FailureKind classifies why an extraction was rejected, so callers can
// handle each case without matching message strings.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureExtraction
	FailureFormat
	FailureReference
	FailureDuplicate
	FailureConfidence
)

// String returns a stable machine-readable name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailureExtraction:
		return "extraction_failed"
	case FailureFormat:
		return "format_error"
	case FailureReference:
		return "reference_error"
	case FailureDuplicate:
		return "duplicate_error"
	case FailureConfidence:
		return "confidence_error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its string name.
func (k FailureKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON maps a string name back to the kind, so results round-trip
// through API clients.
func (k *FailureKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "":
		*k = FailureNone
	case "extraction_failed":
		*k = FailureExtraction
	case "format_error":
		*k = FailureFormat
	case "reference_error":
		*k = FailureReference
	case "duplicate_error":
		*k = FailureDuplicate
	case "confidence_error":
		*k = FailureConfidence
	default:
		return fmt.Errorf("unknown failure kind %q", s)
	}
	return nil
}

// Candidate is the outcome of the barcode/OCR fallback chain.
type Candidate struct {
	Value      string
	Method     Method
	Confidence float64
	Found      bool
}

// Result is the structured outcome of a full extract-and-validate pass.
type Result struct {
	ExtractedID  string      `json:"extracted_id,omitempty"`
	Method       Method      `json:"method,omitempty"`
	Confidence   float64     `json:"confidence"`
	IsValid      bool        `json:"is_valid"`
	SchoolID     *uuid.UUID  `json:"school_id,omitempty"`
	SubjectID    *uuid.UUID  `json:"subject_id,omitempty"`
	SchoolCode   string      `json:"school_code,omitempty"`
	SubjectCode  string      `json:"subject_code,omitempty"`
	TestType     string      `json:"test_type,omitempty"`
	SheetNumber  string      `json:"sheet_number,omitempty"`
	ErrorKind    FailureKind `json:"error_kind,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// ReferenceResult is the outcome of resolving parsed codes against the
// reference entities. IDs are carried forward so later stages avoid
// re-querying.
type ReferenceResult struct {
	SchoolID  uuid.UUID
	SubjectID uuid.UUID
	OK        bool
	Message   string
}

// DuplicateResult reports an application-level duplicate pre-check.
type DuplicateResult struct {
	IsDuplicate  bool
	CollidingIDs []uuid.UUID
	Message      string
}
