package identifier

// Reason classifies a grammar violation.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonLength
	ReasonCharset
	ReasonTestType
	ReasonSheetRange
)

// String returns a stable machine-readable name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonLength:
		return "length"
	case ReasonCharset:
		return "charset"
	case ReasonTestType:
		return "test_type"
	case ReasonSheetRange:
		return "sheet_range"
	default:
		return "unknown"
	}
}

// FormatError reports a grammar violation in a candidate identifier or in a
// component passed to Generate. Callers can switch on Reason instead of
// matching message text.
type FormatError struct {
	Reason  Reason
	Message string
}

func (e *FormatError) Error() string {
	return "invalid sheet identifier: " + e.Message
}
