package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxDocumentXML bounds the decompressed body part.
const maxDocumentXML = 64 * 1024 * 1024

var errNoDocumentPart = errors.New("word/document.xml not found")

// extractDOCX returns the paragraph text of the main document part, one
// blank line between paragraphs.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening DOCX: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening document part: %w", err)
		}
		defer rc.Close()
		return paragraphs(io.LimitReader(rc, maxDocumentXML))
	}
	return "", errNoDocumentPart
}

func paragraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		out    []string
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document part: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out = append(out, para.String())
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		out = append(out, para.String())
	}
	return strings.Join(out, "\n\n"), nil
}
