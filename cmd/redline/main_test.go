package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/extract"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/redline"
	"github.com/FocuswithJustin/Redline/internal/docx"
)

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const testDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Governing law: Texas applies.</w:t></w:r></w:p></w:body>
</w:document>`

// Test helper functions

func createTestDocx(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		docx.ContentTypesPart: testContentTypes,
		"word/document.xml":   testDocument,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	path := filepath.Join(dir, "test.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write test document: %v", err)
	}
	return path
}

func TestLoadMainPart(t *testing.T) {
	path := createTestDocx(t, t.TempDir())
	doc, err := loadMainPart(path)
	if err != nil {
		t.Fatalf("loadMainPart: %v", err)
	}
	text := extract.Text(extract.Flatten(doc))
	if text != "Governing law: Texas applies." {
		t.Errorf("visible text = %q", text)
	}
}

func TestAcceptedText(t *testing.T) {
	path := createTestDocx(t, t.TempDir())
	doc, err := loadMainPart(path)
	if err != nil {
		t.Fatalf("loadMainPart: %v", err)
	}

	pass := redline.NewPass(redline.Options{Author: "reviewer"})
	result := pass.Run(doc, []edits.Operation{
		{Anchor: "Texas", Replacement: "Delaware", Kind: edits.Replace},
	})
	if result.Applied != 1 {
		t.Fatalf("applied = %d; want 1", result.Applied)
	}

	if got := acceptedText(doc); got != "Governing law: Delaware applies." {
		t.Errorf("acceptedText = %q; want accepted-changes view", got)
	}
	// The raw flattened text still holds both old and new spans.
	raw := extract.Text(extract.Flatten(doc))
	if raw == "Governing law: Delaware applies." {
		t.Error("raw text should still contain the struck span")
	}
}

func TestAcceptedTextSkipsOnlyDeletions(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p>
<w:del w:id="1"><w:r><w:delText>old</w:delText></w:r></w:del>
<w:ins w:id="2"><w:r><w:t>new</w:t></w:r></w:ins>
<w:r><w:t> tail</w:t></w:r>
</w:p></w:body>
</w:document>`)
	doc, err := markup.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := acceptedText(doc); got != "new tail" {
		t.Errorf("acceptedText = %q; want %q", got, "new tail")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long anchor string", 10); got != "a very lon..." {
		t.Errorf("truncate(long) = %q", got)
	}
}
