// Package extract turns note files of various formats into plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from note files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
// Plain-text formats come back with their front matter intact; binary formats never
// carry front matter. Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".rtf", ".odt":
		return extractRich(content, ext)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}

// IsPlainText reports whether ext is read verbatim and may carry YAML front matter.
func IsPlainText(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".rtf", ".odt", ".xlsx":
		return false
	}
	return true
}
