// Package identifier implements the fixed-width sheet identifier grammar.
//
// A sheet ID is a 13-character alphanumeric code laid out as
// school code (6) + subject code (4) + test type (1) + sheet number (2).
// Parse recovers the fields from a scanned candidate; Generate is the
// inverse used when labelling printed score sheets. Both directions share
// the same validation rules so that every generated ID parses back to the
// tuple it was built from.
package identifier

import (
	"fmt"
	"strconv"
)

const (
	// CodeLength is the total length of a sheet ID.
	CodeLength = 13

	// SchoolCodeLength and SubjectCodeLength are the fixed widths of the
	// two reference-entity codes embedded in a sheet ID.
	SchoolCodeLength  = 6
	SubjectCodeLength = 4

	// SheetMin and SheetMax bound the per-group sheet number.
	SheetMin = 1
	SheetMax = 99

	// RowsPerSheet is the number of candidate rows printed on one physical
	// score sheet. All rows on a page share the same generated sheet ID.
	RowsPerSheet = 25
)

// Test types distinguish the objective paper from the essay paper.
const (
	TestTypeObjective = "1"
	TestTypeEssay     = "2"
)

// Parsed is the decomposition of a valid 13-character sheet ID.
type Parsed struct {
	SchoolCode  string
	SubjectCode string
	TestType    string
	SheetNumber string // zero-padded, "01".."99"
}

// String reassembles the canonical 13-character form.
func (p Parsed) String() string {
	return p.SchoolCode + p.SubjectCode + p.TestType + p.SheetNumber
}

// Sheet returns the sheet number as an integer.
func (p Parsed) Sheet() int {
	n, _ := strconv.Atoi(p.SheetNumber)
	return n
}

// Parse validates a candidate string against the grammar and slices it into
// its four fields. Rules apply in order and the first violation wins, so the
// returned *FormatError always names the earliest failing rule.
func Parse(candidate string) (Parsed, error) {
	if len(candidate) != CodeLength {
		return Parsed{}, &FormatError{
			Reason:  ReasonLength,
			Message: fmt.Sprintf("identifier must be exactly %d characters, got %d", CodeLength, len(candidate)),
		}
	}
	if !isAlphanumeric(candidate) {
		return Parsed{}, &FormatError{
			Reason:  ReasonCharset,
			Message: "identifier must contain only letters and digits",
		}
	}

	p := Parsed{
		SchoolCode:  candidate[0:SchoolCodeLength],
		SubjectCode: candidate[SchoolCodeLength : SchoolCodeLength+SubjectCodeLength],
		TestType:    candidate[10:11],
		SheetNumber: candidate[11:13],
	}

	if p.TestType != TestTypeObjective && p.TestType != TestTypeEssay {
		return Parsed{}, &FormatError{
			Reason:  ReasonTestType,
			Message: fmt.Sprintf("test type must be %q or %q, got %q", TestTypeObjective, TestTypeEssay, p.TestType),
		}
	}

	n, err := strconv.Atoi(p.SheetNumber)
	if err != nil {
		return Parsed{}, &FormatError{
			Reason:  ReasonSheetRange,
			Message: fmt.Sprintf("sheet number %q is not numeric", p.SheetNumber),
		}
	}
	if n < SheetMin || n > SheetMax {
		return Parsed{}, &FormatError{
			Reason:  ReasonSheetRange,
			Message: fmt.Sprintf("sheet number must be between %d and %d, got %d", SheetMin, SheetMax, n),
		}
	}

	return p, nil
}

// Generate encodes a tuple into the canonical 13-character sheet ID. Every
// component is validated with the same rules Parse applies, so generated IDs
// always round-trip. The series selects the print run and is validated here
// but not encoded into the code itself.
func Generate(schoolCode, subjectCode, series, testType string, sheetNumber int) (string, error) {
	if len(schoolCode) != SchoolCodeLength {
		return "", &FormatError{
			Reason:  ReasonLength,
			Message: fmt.Sprintf("school code must be exactly %d characters, got %d", SchoolCodeLength, len(schoolCode)),
		}
	}
	if !isAlphanumeric(schoolCode) {
		return "", &FormatError{
			Reason:  ReasonCharset,
			Message: "school code must contain only letters and digits",
		}
	}
	if len(subjectCode) != SubjectCodeLength {
		return "", &FormatError{
			Reason:  ReasonLength,
			Message: fmt.Sprintf("subject code must be exactly %d characters, got %d", SubjectCodeLength, len(subjectCode)),
		}
	}
	if !isAlphanumeric(subjectCode) {
		return "", &FormatError{
			Reason:  ReasonCharset,
			Message: "subject code must contain only letters and digits",
		}
	}
	if series == "" || !isAlphanumeric(series) {
		return "", &FormatError{
			Reason:  ReasonCharset,
			Message: "series must be a non-empty alphanumeric string",
		}
	}
	if testType != TestTypeObjective && testType != TestTypeEssay {
		return "", &FormatError{
			Reason:  ReasonTestType,
			Message: fmt.Sprintf("test type must be %q or %q, got %q", TestTypeObjective, TestTypeEssay, testType),
		}
	}
	if sheetNumber < SheetMin || sheetNumber > SheetMax {
		return "", &FormatError{
			Reason:  ReasonSheetRange,
			Message: fmt.Sprintf("sheet number must be between %d and %d, got %d", SheetMin, SheetMax, sheetNumber),
		}
	}

	return fmt.Sprintf("%s%s%s%02d", schoolCode, subjectCode, testType, sheetNumber), nil
}

// SheetCount returns how many physical sheets a group of candidate rows
// needs, at RowsPerSheet rows per printed sheet.
func SheetCount(candidates int) int {
	if candidates <= 0 {
		return 0
	}
	return (candidates + RowsPerSheet - 1) / RowsPerSheet
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		default:
			return false
		}
	}
	return true
}
