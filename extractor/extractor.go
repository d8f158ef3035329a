// Package extractor converts raw document bytes into ordered pages of
// plain text, dispatching on the declared MIME type.
package extractor

import (
	"fmt"

	"github.com/AnselmPowell/gov-project/schema"
)

// Supported MIME types.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeODT  = "application/vnd.oasis.opendocument.text"
)

// ExtractPages returns the 1-indexed non-blank pages of a document.
// Unknown MIME types fail with schema.ErrUnsupportedFormat; parse failures
// are wrapped in a schema.ExtractionError so the cause stays visible.
func ExtractPages(data []byte, mimeType string) ([]schema.Page, error) {
	switch mimeType {
	case MimePDF:
		return extractPDFPages(data)
	case MimeDOCX:
		return extractDOCXPages(data)
	case MimeODT:
		return extractODTPages(data)
	default:
		return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedFormat, mimeType)
	}
}
