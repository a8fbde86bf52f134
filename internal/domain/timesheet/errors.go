package timesheet

import "errors"

// Document-level conditions raised while reconciling a time card.
// Only ErrExtractionFailed and ErrDocumentTimeout are terminal for a document;
// the rest degrade to an excluded or partial result.
var (
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrInsufficientText  = errors.New("insufficient text")
	ErrOCRUnavailable    = errors.New("ocr unavailable")
	ErrHeaderUnresolved  = errors.New("header unresolved")
	ErrAggregation       = errors.New("aggregation error")
	ErrAllowlistMismatch = errors.New("allowlist mismatch")
	ErrDocumentTimeout   = errors.New("document timeout")
)

// Reason maps an error to the short label used in failure reports.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtractionFailed):
		return "ExtractionFailed"
	case errors.Is(err, ErrDocumentTimeout):
		return "Timeout"
	case errors.Is(err, ErrHeaderUnresolved):
		return "HeaderUnresolved"
	case errors.Is(err, ErrAllowlistMismatch):
		return "AllowlistMismatch"
	case errors.Is(err, ErrAggregation):
		return "AggregationError"
	case errors.Is(err, ErrOCRUnavailable):
		return "OCRUnavailable"
	case errors.Is(err, ErrInsufficientText):
		return "InsufficientText"
	default:
		return "Error"
	}
}

// DocumentFailure describes why a document did not produce a timesheet.
type DocumentFailure struct {
	Path   string
	Reason string
	Err    error
}

// NewDocumentFailure builds a failure entry for path from err.
func NewDocumentFailure(path string, err error) DocumentFailure {
	return DocumentFailure{Path: path, Reason: Reason(err), Err: err}
}

// Detail returns the error text, or an empty string when there is none.
func (f DocumentFailure) Detail() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}
