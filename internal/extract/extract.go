// Package extract turns resume documents into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	ExtPDF      = ".pdf"
	ExtDOCX     = ".docx"
	ExtText     = ".txt"
	ExtMarkdown = ".md"
)

// Supported reports whether name has an extension Text can read.
func Supported(name string) bool {
	switch ext(name) {
	case ExtPDF, ExtDOCX, ExtText, ExtMarkdown:
		return true
	}
	return false
}

// Text returns the text content of the document at path.
func Text(path string) (string, error) {
	if !Supported(path) {
		return "", nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	return fromBytes(path, raw)
}

// FromReader extracts text from an uploaded document, dispatching on the
// extension of name. Unsupported extensions yield an empty string and no
// error, so the document is later excluded for having no text.
func FromReader(name string, r io.Reader) (string, error) {
	if !Supported(name) {
		return "", nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(name), err)
	}

	return fromBytes(name, raw)
}

func fromBytes(name string, raw []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch ext(name) {
	case ExtPDF:
		text, err = pdfText(bytes.NewReader(raw), int64(len(raw)))
	case ExtDOCX:
		text, err = docxText(bytes.NewReader(raw), int64(len(raw)))
	default:
		text = string(raw)
	}

	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(name), err)
	}

	return text, nil
}

func ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
