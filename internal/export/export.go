// Package export renders simplified content as downloadable PDF and DOCX files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pep299/clarify/internal/content"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts "pdf" or "docx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// MIME returns the content type for the format.
func (f Format) MIME() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// Document is the content of one export.
type Document struct {
	Content  content.SimplifiedContent
	KeyTerms []content.KeyTerm
	Language string
}

// Filename returns the download name for the document in format f.
func (d Document) Filename(f Format) string {
	return content.ExportFilename(d.Language, string(f))
}

// Section headings, in export order.
const (
	titleHeading       = "Simplified Content"
	contentsHeading    = "Table of Contents"
	summaryHeading     = "1. Summary"
	keyPointsHeading   = "2. Key Points"
	explanationHeading = "3. Simple Explanation"
	keyTermsHeading    = "4. Explain Key Terms"
	bulletPrefix       = "• "
)

func (d Document) headings() []string {
	h := []string{summaryHeading, keyPointsHeading, explanationHeading}
	if len(d.KeyTerms) > 0 {
		h = append(h, keyTermsHeading)
	}
	return h
}

// Exporter renders documents.
type Exporter struct {
	// FontPath optionally names a UTF-8 TrueType font for PDFs. Without it
	// PDFs use Helvetica, which only covers Western European scripts.
	FontPath string
}

// New creates an Exporter.
func New(fontPath string) *Exporter {
	return &Exporter{FontPath: fontPath}
}

// Write renders doc in format f to w.
func (e *Exporter) Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatPDF:
		return e.PDF(w, doc)
	case FormatDOCX:
		return e.DOCX(w, doc)
	}
	return fmt.Errorf("unsupported export format: %q", f)
}

// Render returns the rendered bytes of doc in format f.
func (e *Exporter) Render(f Format, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, f, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
