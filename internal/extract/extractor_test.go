package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\r\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainBOMAndUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("\xEF\xBB\xBFcaf\xc3\xa9"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "# Sheet1\nTitle\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractBytes_unknownExtension(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

func docxBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const docxBody = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p w:rsidR="00A1"><w:r><w:t># Plan</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Ship the </w:t></w:r><w:r><w:t>index &amp; search</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t></w:t></w:r></w:p>` +
	`</w:body></w:document>`

func TestExtractBytes_docxParagraphs(t *testing.T) {
	content := docxBytes(t, map[string]string{"word/document.xml": docxBody})
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "# Plan\nShip the index & search" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	for _, override := range []string{
		`<Override PartName="/word/document2.xml" ContentType="` + docxMainType + `"/>`,
		`<Override ContentType="` + docxMainType + `" PartName="/word/document2.xml"/>`,
	} {
		content := docxBytes(t, map[string]string{
			docxContentTypes:     `<?xml version="1.0"?><Types>` + override + `</Types>`,
			"word/document2.xml": docxBody,
		})
		got, err := NewExtractor().ExtractBytes(content, ".docx")
		if err != nil {
			t.Fatalf("ExtractBytes: %v", err)
		}
		if got != "# Plan\nShip the index & search" {
			t.Errorf("override %s: got %q", override, got)
		}
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestIsPlainText(t *testing.T) {
	for ext, want := range map[string]bool{".md": true, ".txt": true, ".PDF": false, ".docx": false, ".odt": false} {
		if got := IsPlainText(ext); got != want {
			t.Errorf("IsPlainText(%s) = %v, want %v", ext, got, want)
		}
	}
}
