package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AnselmPowell/gov-project/schema"
)

func buildZip(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const docxXML = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Board attendance was strong all year.</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Financial controls were reviewed in March.</w:t></w:r></w:p>` +
	`<w:p><w:r><w:br w:type="page"/><w:t>Safeguarding policy was updated.</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func TestExtractPages_DOCX(t *testing.T) {
	data := buildZip(t, "word/document.xml", docxXML)
	pages, err := ExtractPages(data, MimeDOCX)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Fatalf("unexpected page numbers: %d, %d", pages[0].Number, pages[1].Number)
	}
	if want := "Board attendance was strong all year.\nFinancial controls were reviewed in March."; pages[0].Text != want {
		t.Fatalf("unexpected first page: %q", pages[0].Text)
	}
	if pages[1].Text != "Safeguarding policy was updated." {
		t.Fatalf("unexpected second page: %q", pages[1].Text)
	}
}

func TestExtractPages_DOCX_FormFeedBreak(t *testing.T) {
	xmlDoc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>First page.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>` + "\f" + `Second page.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	pages, err := ExtractPages(buildZip(t, "word/document.xml", xmlDoc), MimeDOCX)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
}

// buildPDF assembles a minimal uncompressed PDF with one page per entry.
// An empty entry becomes a page with an empty content stream.
func buildPDF(t *testing.T, pageTexts ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pageTexts))
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageTexts)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, text := range pageTexts {
		var content string
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractPages_PDF(t *testing.T) {
	data := buildPDF(t, "Board attendance was strong all year.")
	pages, err := ExtractPages(data, MimePDF)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 {
		t.Fatalf("expected page number 1, got %d", pages[0].Number)
	}
	if !strings.Contains(pages[0].Text, "Board attendance was strong all year.") {
		t.Fatalf("unexpected page text: %q", pages[0].Text)
	}
}

func TestExtractPages_PDF_BlankPageSkipped(t *testing.T) {
	data := buildPDF(t, "First page text.", "", "Third page text.")
	pages, err := ExtractPages(data, MimePDF)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected blank page to be skipped, got %d pages", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 3 {
		t.Fatalf("expected physical page numbers 1 and 3, got %d and %d", pages[0].Number, pages[1].Number)
	}
	if !strings.Contains(pages[1].Text, "Third page text.") {
		t.Fatalf("unexpected last page text: %q", pages[1].Text)
	}
}

const odtXML = `<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"><office:body><office:text>` +
	`<text:p>Risk register reviewed quarterly.</text:p>` +
	`<text:p>Trustees completed induction.</text:p>` +
	`<text:p></text:p>` +
	`<text:p>Audit actions remain open.</text:p>` +
	`</office:text></office:body></office:document-content>`

func TestExtractPages_ODT(t *testing.T) {
	pages, err := ExtractPages(buildZip(t, "content.xml", odtXML), MimeODT)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if want := "Risk register reviewed quarterly.\nTrustees completed induction."; pages[0].Text != want {
		t.Fatalf("unexpected first page: %q", pages[0].Text)
	}
	if pages[1].Text != "Audit actions remain open." || pages[1].Number != 2 {
		t.Fatalf("unexpected second page: %+v", pages[1])
	}
}

func TestExtractPages_UnsupportedFormat(t *testing.T) {
	_, err := ExtractPages([]byte("x"), "application/vnd.ms-excel")
	if !errors.Is(err, schema.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractPages_CorruptDOCX(t *testing.T) {
	_, err := ExtractPages([]byte("not a zip"), MimeDOCX)
	var extractionErr *schema.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if extractionErr.Unwrap() == nil {
		t.Fatalf("expected wrapped cause")
	}
}
