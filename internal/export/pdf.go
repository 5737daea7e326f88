package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin      = 20.0
	pdfFontFamily  = "Helvetica"
	utf8FontFamily = "ExportFont"
)

// pdfWriter tracks the cursor while laying out a document top to bottom.
type pdfWriter struct {
	pdf        *fpdf.Fpdf
	family     string
	utf8       bool
	tr         func(string) string
	pageWidth  float64
	pageHeight float64
	maxWidth   float64
	y          float64
}

func (e *Exporter) newPDFWriter() (*pdfWriter, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(titleHeading, true)
	pdf.SetCreator("clarify", true)

	w := &pdfWriter{pdf: pdf, family: pdfFontFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if e.FontPath != "" {
		pdf.AddUTF8Font(utf8FontFamily, "", e.FontPath)
		pdf.AddUTF8Font(utf8FontFamily, "B", e.FontPath)
		if pdf.Err() {
			return nil, fmt.Errorf("loading font %s: %w", e.FontPath, pdf.Error())
		}
		w.family = utf8FontFamily
		w.utf8 = true
		w.tr = func(s string) string { return s }
	}

	w.pageWidth, w.pageHeight = pdf.GetPageSize()
	w.maxWidth = w.pageWidth - 2*pdfMargin
	w.y = pdfMargin
	pdf.AddPage()
	return w, pdf.Error()
}

func (w *pdfWriter) font(size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	w.pdf.SetFont(w.family, style, size)
}

func (w *pdfWriter) text(x float64, s string) {
	w.pdf.Text(x, w.y, w.tr(s))
}

// breakIfBelow starts a new page once the cursor passes limit.
func (w *pdfWriter) breakIfBelow(limit float64) {
	if w.y > limit {
		w.pdf.AddPage()
		w.y = pdfMargin
	}
}

// lines wraps s to the printable width using the current font.
func (w *pdfWriter) lines(s string) []string {
	if w.pdf.Err() {
		return nil
	}
	if w.utf8 {
		return w.pdf.SplitText(s, w.maxWidth)
	}
	// Core fonts are single-byte, so wrap the translated bytes.
	raw := w.pdf.SplitLines([]byte(w.tr(s)), w.maxWidth)
	out := make([]string, len(raw))
	for i, line := range raw {
		out[i] = string(line)
	}
	return out
}

func (w *pdfWriter) wrapped(s string, size float64, step float64) {
	w.font(size, false)
	for _, line := range w.lines(s) {
		w.breakIfBelow(w.pageHeight - pdfMargin)
		// lines are already encoded for the page
		w.pdf.Text(pdfMargin, w.y, line)
		w.y += step
	}
}

func (w *pdfWriter) heading(s string, size float64, advance float64) {
	w.font(size, true)
	w.text(pdfMargin, s)
	w.y += advance
}

// PDF renders doc as an A4 portrait PDF.
func (e *Exporter) PDF(out io.Writer, doc Document) error {
	w, err := e.newPDFWriter()
	if err != nil {
		return err
	}
	c := doc.Content

	w.heading(titleHeading, 24, 15)

	w.heading(contentsHeading, 18, 10)
	w.font(12, false)
	for _, h := range doc.headings() {
		w.text(pdfMargin+5, h)
		w.y += 7
	}
	w.y += 10

	w.pdf.SetDrawColor(200, 200, 200)
	w.pdf.Line(pdfMargin, w.y, w.pageWidth-pdfMargin, w.y)
	w.y += 10

	w.heading(summaryHeading, 16, 10)
	w.wrapped(c.Summary, 12, 12*0.5)
	w.y += 10

	w.heading(keyPointsHeading, 16, 10)
	for _, point := range c.BulletPoints {
		w.wrapped(bulletPrefix+point, 12, 6)
		w.y += 3
	}
	w.y += 5

	w.heading(explanationHeading, 16, 10)
	w.wrapped(c.ELI5, 12, 12*0.5)
	w.y += 10

	if len(doc.KeyTerms) > 0 {
		w.heading(keyTermsHeading, 16, 10)
		for _, term := range doc.KeyTerms {
			w.breakIfBelow(w.pageHeight - pdfMargin - 20)
			w.heading(term.Term, 12, 7)
			w.wrapped(term.Definition, 11, 11*0.5)
			w.y += 8
		}
	}

	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}
