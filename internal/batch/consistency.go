package batch

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/jamesyinbaare/rmps-sub002/internal/store"
)

// SlotDuplicate reports a sheet number claimed by more than one document
// within a (school, subject, test type) group.
type SlotDuplicate struct {
	SchoolID    uuid.UUID   `json:"school_id"`
	SubjectID   uuid.UUID   `json:"subject_id"`
	TestType    string      `json:"test_type"`
	SheetNumber string      `json:"sheet_number"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

// SequenceGap reports sheet numbers missing from the contiguous run between
// a group's lowest and highest observed sheet.
type SequenceGap struct {
	SchoolID      uuid.UUID `json:"school_id"`
	SubjectID     uuid.UUID `json:"subject_id"`
	TestType      string    `json:"test_type"`
	MissingSheets []string  `json:"missing_sheets"`
}

// Report is the outcome of a batch consistency audit.
type Report struct {
	ValidationErrors []string        `json:"validation_errors"`
	Duplicates       []SlotDuplicate `json:"duplicates"`
	SequenceGaps     []SequenceGap   `json:"sequence_gaps"`
}

type slotKey struct {
	schoolID  uuid.UUID
	subjectID uuid.UUID
	testType  string
}

type groupEntry struct {
	sheet int
	docID uuid.UUID
}

// CheckConsistency audits the documents of one batch for duplicate sheet
// numbers and numeric sequence gaps per (school, subject, test type) group.
// It is a pure read-only aggregation: documents without resolved reference
// fields, or with non-numeric sheet numbers, are skipped. Sequence gaps
// start at the group's observed minimum, not at 1; a submission need not
// begin at sheet one.
func CheckConsistency(documents []store.Document) *Report {
	groups := make(map[slotKey][]groupEntry)
	for _, doc := range documents {
		if doc.SchoolID == nil || doc.SubjectID == nil || doc.TestType == nil || doc.SheetNumber == nil {
			continue
		}
		sheet, err := strconv.Atoi(*doc.SheetNumber)
		if err != nil {
			continue
		}
		key := slotKey{schoolID: *doc.SchoolID, subjectID: *doc.SubjectID, testType: *doc.TestType}
		groups[key] = append(groups[key], groupEntry{sheet: sheet, docID: doc.ID})
	}

	keys := make([]slotKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].schoolID != keys[j].schoolID {
			return keys[i].schoolID.String() < keys[j].schoolID.String()
		}
		if keys[i].subjectID != keys[j].subjectID {
			return keys[i].subjectID.String() < keys[j].subjectID.String()
		}
		return keys[i].testType < keys[j].testType
	})

	report := &Report{
		ValidationErrors: []string{},
		Duplicates:       []SlotDuplicate{},
		SequenceGaps:     []SequenceGap{},
	}
	for _, key := range keys {
		entries := groups[key]

		bySheet := make(map[int][]uuid.UUID)
		minSheet, maxSheet := entries[0].sheet, entries[0].sheet
		for _, e := range entries {
			bySheet[e.sheet] = append(bySheet[e.sheet], e.docID)
			if e.sheet < minSheet {
				minSheet = e.sheet
			}
			if e.sheet > maxSheet {
				maxSheet = e.sheet
			}
		}

		sheets := make([]int, 0, len(bySheet))
		for sheet := range bySheet {
			sheets = append(sheets, sheet)
		}
		sort.Ints(sheets)

		for _, sheet := range sheets {
			ids := bySheet[sheet]
			if len(ids) < 2 {
				continue
			}
			dup := SlotDuplicate{
				SchoolID:    key.schoolID,
				SubjectID:   key.subjectID,
				TestType:    key.testType,
				SheetNumber: fmt.Sprintf("%02d", sheet),
				DocumentIDs: ids,
			}
			report.Duplicates = append(report.Duplicates, dup)
			report.ValidationErrors = append(report.ValidationErrors,
				fmt.Sprintf("duplicate sheet %02d (test type %s): claimed by %d documents", sheet, key.testType, len(ids)))
		}

		var missing []string
		for sheet := minSheet; sheet <= maxSheet; sheet++ {
			if _, ok := bySheet[sheet]; !ok {
				missing = append(missing, fmt.Sprintf("%02d", sheet))
			}
		}
		if len(missing) > 0 {
			report.SequenceGaps = append(report.SequenceGaps, SequenceGap{
				SchoolID:      key.schoolID,
				SubjectID:     key.subjectID,
				TestType:      key.testType,
				MissingSheets: missing,
			})
			report.ValidationErrors = append(report.ValidationErrors,
				fmt.Sprintf("missing sheets (test type %s): %v", key.testType, missing))
		}
	}
	return report
}

// ValidateBatch loads the batch's documents and audits them. Only documents
// inside the batch are consulted; cross-table collisions are the
// per-document duplicate check's concern.
func (r *Runner) ValidateBatch(ctx context.Context, batchID uuid.UUID) (*Report, error) {
	if _, err := r.store.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	items, err := r.store.ListBatchDocuments(ctx, batchID)
	if err != nil {
		return nil, err
	}
	docs := make([]store.Document, 0, len(items))
	for _, item := range items {
		if item.Document != nil {
			docs = append(docs, *item.Document)
		}
	}
	return CheckConsistency(docs), nil
}
