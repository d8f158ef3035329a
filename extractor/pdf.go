package extractor

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/AnselmPowell/gov-project/schema"
)

// extractPDFPages emits one page per physical PDF page, keeping physical
// page numbers even when blank pages are skipped.
func extractPDFPages(data []byte) ([]schema.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &schema.ExtractionError{Op: "pdf open", Err: err}
	}

	var pages []schema.Page
	for number := 1; number <= reader.NumPage(); number++ {
		page := reader.Page(number)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &schema.ExtractionError{Op: "pdf page text", Err: err}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, schema.Page{Text: text, Number: number})
	}
	return pages, nil
}
