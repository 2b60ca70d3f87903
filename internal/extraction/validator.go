package extraction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jamesyinbaare/rmps-sub002/internal/identifier"
)

// ReferenceStore is the read-only slice of the relational store the
// validator needs: point lookups by code, the association membership check,
// and the duplicate existence query.
type ReferenceStore interface {
	ResolveSchool(ctx context.Context, code string) (uuid.UUID, bool, error)
	ResolveSubject(ctx context.Context, code string) (uuid.UUID, bool, error)
	HasAssociation(ctx context.Context, schoolID, subjectID uuid.UUID) (bool, error)
	FindDuplicates(ctx context.Context, schoolID, subjectID uuid.UUID,
		testType, sheetNumber string, excludeDocumentID uuid.UUID) ([]uuid.UUID, error)
}

// Validator resolves parsed identifier fields against live reference data
// and pre-checks the sheet slot for collisions.
type Validator struct {
	refs ReferenceStore
}

// NewValidator builds a validator over the given reference store.
func NewValidator(refs ReferenceStore) *Validator {
	return &Validator{refs: refs}
}

// Validate resolves the parsed codes. A ReferenceResult with OK=false names
// the first lookup that failed; the error return is reserved for store
// failures.
func (v *Validator) Validate(ctx context.Context, parsed identifier.Parsed) (ReferenceResult, error) {
	schoolID, found, err := v.refs.ResolveSchool(ctx, parsed.SchoolCode)
	if err != nil {
		return ReferenceResult{}, err
	}
	if !found {
		return ReferenceResult{Message: fmt.Sprintf("school not found for code %q", parsed.SchoolCode)}, nil
	}

	subjectID, found, err := v.refs.ResolveSubject(ctx, parsed.SubjectCode)
	if err != nil {
		return ReferenceResult{}, err
	}
	if !found {
		return ReferenceResult{Message: fmt.Sprintf("subject not found for code %q", parsed.SubjectCode)}, nil
	}

	allowed, err := v.refs.HasAssociation(ctx, schoolID, subjectID)
	if err != nil {
		return ReferenceResult{}, err
	}
	if !allowed {
		return ReferenceResult{
			Message: fmt.Sprintf("school %q not permitted for subject %q", parsed.SchoolCode, parsed.SubjectCode),
		}, nil
	}

	return ReferenceResult{SchoolID: schoolID, SubjectID: subjectID, OK: true}, nil
}

// CheckDuplicate reports whether another valid document already occupies the
// sheet slot. The document being re-validated is excluded so idempotent
// re-extraction does not flag itself. This is a fast pre-check only; the
// storage-level uniqueness index remains authoritative at commit time.
func (v *Validator) CheckDuplicate(ctx context.Context, schoolID, subjectID uuid.UUID,
	testType, sheetNumber string, excludeDocumentID uuid.UUID,
) (DuplicateResult, error) {
	ids, err := v.refs.FindDuplicates(ctx, schoolID, subjectID, testType, sheetNumber, excludeDocumentID)
	if err != nil {
		return DuplicateResult{}, err
	}
	if len(ids) == 0 {
		return DuplicateResult{}, nil
	}
	return DuplicateResult{
		IsDuplicate:  true,
		CollidingIDs: ids,
		Message: fmt.Sprintf("duplicate sheet: test type %s sheet %s already registered for this school and subject by %d document(s)",
			testType, sheetNumber, len(ids)),
	}, nil
}
