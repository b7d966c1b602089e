package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultBody  = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// docxParagraph matches one <w:p> element, with or without attributes.
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// docxText matches <w:t> runs including xml:space="preserve".
	docxText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// docxOverride finds the main part name regardless of attribute order.
	docxOverride = regexp.MustCompile(`<Override[^>]*>`)
	docxPartName = regexp.MustCompile(`PartName="/?([^"]+)"`)
)

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// docxBodyPath returns the main document part declared in [Content_Types].xml,
// falling back to word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	types, err := readZipEntry(zr, docxContentTypes)
	if err != nil || types == nil {
		return docxDefaultBody
	}
	for _, override := range docxOverride.FindAll(types, -1) {
		if !bytes.Contains(override, []byte(docxMainType)) {
			continue
		}
		if m := docxPartName.FindSubmatch(override); m != nil {
			return string(m[1])
		}
	}
	return docxDefaultBody
}

// extractDOCX returns one line per Word paragraph so heading-aware chunking
// still sees paragraph boundaries.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	path := docxBodyPath(zr)
	body, err := readZipEntry(zr, path)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", path)
	}

	var lines []string
	for _, para := range docxParagraph.FindAll(body, -1) {
		var line strings.Builder
		for _, run := range docxText.FindAllSubmatch(para, -1) {
			line.Write(run[1])
		}
		if text := strings.TrimSpace(html.UnescapeString(line.String())); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
