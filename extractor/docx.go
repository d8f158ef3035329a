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

type docxParagraph struct {
	text      string
	pageBreak bool
}

// extractDOCXPages parses word/document.xml and groups paragraphs into
// pages delimited by explicit page-break runs. The first paragraph always
// starts a page even without a preceding break.
func extractDOCXPages(data []byte) ([]schema.Page, error) {
	paragraphs, err := docxParagraphs(data)
	if err != nil {
		return nil, &schema.ExtractionError{Op: "docx parse", Err: err}
	}
	return assemblePages(paragraphs), nil
}

// assemblePages walks delimited paragraphs into numbered pages, skipping
// pages whose accumulated text is blank while still advancing the counter.
func assemblePages(paragraphs []docxParagraph) []schema.Page {
	var pages []schema.Page
	var current []string
	number := 1

	flush := func() {
		content := strings.Join(current, "\n")
		if strings.TrimSpace(content) != "" {
			pages = append(pages, schema.Page{Text: content, Number: number})
		}
		number++
		current = nil
	}

	for _, paragraph := range paragraphs {
		if paragraph.pageBreak && len(current) > 0 {
			flush()
		}
		current = append(current, paragraph.text)
	}
	if len(current) > 0 {
		flush()
	}
	return pages
}

func docxParagraphs(data []byte) ([]docxParagraph, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var docFile *zip.File
	for _, f := range reader.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml missing")
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decodeDOCXParagraphs(rc)
}

func decodeDOCXParagraphs(r io.Reader) ([]docxParagraph, error) {
	dec := xml.NewDecoder(r)
	var paragraphs []docxParagraph
	var current docxParagraph
	inParagraph := false

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
			switch t.Name.Local {
			case "p":
				current = docxParagraph{}
				inParagraph = true
			case "t":
				if !inParagraph {
					continue
				}
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, err
				}
				if strings.ContainsRune(text, '\f') {
					current.pageBreak = true
					text = strings.ReplaceAll(text, "\f", "")
				}
				current.text += text
			case "br":
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" && attr.Value == "page" {
						current.pageBreak = true
					}
				}
			case "tab":
				if inParagraph {
					current.text += "\t"
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				paragraphs = append(paragraphs, current)
				inParagraph = false
			}
		}
	}
	return paragraphs, nil
}
