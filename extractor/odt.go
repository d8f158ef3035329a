package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/AnselmPowell/gov-project/schema"
)

// extractODTPages parses content.xml and uses entirely-empty paragraphs as
// the page-break heuristic, matching how exported governance reviews space
// their sections.
func extractODTPages(data []byte) ([]schema.Page, error) {
	paragraphs, err := odtParagraphs(data)
	if err != nil {
		return nil, &schema.ExtractionError{Op: "odt parse", Err: err}
	}

	var pages []schema.Page
	var current []string
	number := 1
	for _, text := range paragraphs {
		if strings.TrimSpace(text) == "" && len(current) > 0 {
			content := strings.Join(current, "\n")
			if strings.TrimSpace(content) != "" {
				pages = append(pages, schema.Page{Text: content, Number: number})
			}
			number++
			current = nil
			continue
		}
		current = append(current, text)
	}
	if len(current) > 0 {
		content := strings.Join(current, "\n")
		if strings.TrimSpace(content) != "" {
			pages = append(pages, schema.Page{Text: content, Number: number})
		}
	}
	return pages, nil
}

func odtParagraphs(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var contentFile *zip.File
	for _, f := range reader.File {
		if strings.EqualFold(f.Name, "content.xml") {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml missing")
	}
	rc, err := contentFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decodeODTParagraphs(rc)
}

// decodeODTParagraphs collects the character data of every text:p element,
// including empty ones, since emptiness is the page-break signal.
func decodeODTParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var paragraphs []string
	var buf strings.Builder
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				if depth == 0 {
					buf.Reset()
				}
				depth++
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && depth > 0 {
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, buf.String())
				}
			}
		}
	}
	return paragraphs, nil
}
