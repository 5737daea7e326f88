// Package document validates uploaded PDF and DOCX files and extracts their text.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pep299/clarify/internal/guard"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 10 * 1024 * 1024

// Accepted MIME types
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	pdfMagic  = []byte("%PDF-")
	docxMagic = []byte("PK\x03\x04")
)

// Upload is a file submitted for text extraction.
type Upload struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

func invalid(message string) error {
	return &guard.ValidationError{Message: message}
}

// Validate checks presence, size, type, name and leading bytes of an upload.
func Validate(u *Upload) error {
	if u == nil {
		return invalid("No file provided")
	}
	if u.Size > MaxFileSize || int64(len(u.Data)) > MaxFileSize {
		return invalid("File size exceeds 10MB limit")
	}
	if u.MIME != MIMEPDF && u.MIME != MIMEDOCX {
		return invalid("Invalid file type. Only PDF and DOCX files are allowed.")
	}
	if u.Name == "" || strings.Contains(u.Name, "..") || strings.ContainsAny(u.Name, `/\`) {
		return invalid("Invalid file name")
	}

	magic := pdfMagic
	if u.MIME == MIMEDOCX {
		magic = docxMagic
	}
	if !bytes.HasPrefix(u.Data, magic) {
		return invalid("Invalid file type. Only PDF and DOCX files are allowed.")
	}
	return nil
}

// Extract validates u and returns its sanitized plain text.
func Extract(ctx context.Context, u *Upload) (string, error) {
	if err := Validate(u); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch u.MIME {
	case MIMEPDF:
		text, err = extractPDF(u.Data)
	case MIMEDOCX:
		text, err = extractDOCX(u.Data)
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", u.Name, err)
	}

	return guard.SanitizeText(text), nil
}

// DetectMIME maps a file name to an accepted MIME type by extension.
// It returns "" for anything else.
func DetectMIME(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	}
	return ""
}

// Supported reports whether name has an extractable extension.
func Supported(name string) bool {
	return DetectMIME(name) != ""
}

// FromFile reads a local file into an Upload.
func FromFile(path string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, invalid("File size exceeds 10MB limit")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	return &Upload{
		Name: name,
		MIME: DetectMIME(name),
		Size: int64(len(data)),
		Data: data,
	}, nil
}
