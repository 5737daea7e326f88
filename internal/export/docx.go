package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docxFont      = "Calibri"
	docxBodySize  = 12
	docxTermSize  = 11
	docxTextColor = "000000"
)

func addRun(p *docx.Paragraph, text string, size uint64, bold bool) {
	run := p.AddText(text).Font(docxFont).Size(size).Color(docxTextColor)
	if bold {
		run.Bold(true)
	}
}

// DOCX renders doc as a Word document with the same sections as the PDF.
func (e *Exporter) DOCX(out io.Writer, doc Document) error {
	d, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	c := doc.Content

	addRun(d.AddParagraph(""), titleHeading, 24, true)

	addRun(d.AddParagraph(""), contentsHeading, 18, true)
	for _, h := range doc.headings() {
		addRun(d.AddParagraph(""), "    "+h, docxBodySize, false)
	}
	d.AddParagraph("")

	addRun(d.AddParagraph(""), summaryHeading, 16, true)
	addRun(d.AddParagraph(""), c.Summary, docxBodySize, false)

	addRun(d.AddParagraph(""), keyPointsHeading, 16, true)
	for _, point := range c.BulletPoints {
		addRun(d.AddParagraph(""), bulletPrefix+point, docxBodySize, false)
	}

	addRun(d.AddParagraph(""), explanationHeading, 16, true)
	addRun(d.AddParagraph(""), c.ELI5, docxBodySize, false)

	if len(doc.KeyTerms) > 0 {
		addRun(d.AddParagraph(""), keyTermsHeading, 16, true)
		for _, term := range doc.KeyTerms {
			addRun(d.AddParagraph(""), term.Term, docxBodySize, true)
			addRun(d.AddParagraph(""), term.Definition, docxTermSize, false)
		}
	}

	// The document package writes to paths, so stage the file on disk.
	dir, err := os.MkdirTemp("", "clarify-export-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "export.docx")
	if err := d.SaveTo(path); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
