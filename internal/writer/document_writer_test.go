package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coregx/uatag/internal/parser"
)

// buildMinimalPDF writes a one-page, classic-xref PDF to dir and returns its
// path: a Catalog, a Pages tree with one Page, and an empty content stream.
func buildMinimalPDF(t *testing.T, dir string) string {
	t.Helper()

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, 5)

	offsets[1] = pdf.Len()
	pdf.WriteString("1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n")

	offsets[2] = pdf.Len()
	pdf.WriteString("2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1>>\nendobj\n")

	offsets[3] = pdf.Len()
	pdf.WriteString("3 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]/Contents 4 0 R/Resources<<>>>>\nendobj\n")

	offsets[4] = pdf.Len()
	content := "BT /F1 12 Tf 72 720 Td (Hello) Tj ET"
	pdf.WriteString(fmt.Sprintf("4 0 obj\n<</Length %d>>\nstream\n%s\nendstream\nendobj\n", len(content), content))

	xrefOffset := pdf.Len()
	pdf.WriteString("xref\n0 5\n")
	pdf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		pdf.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	pdf.WriteString("trailer\n<</Size 5/Root 1 0 R>>\n")
	pdf.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOffset))

	path := filepath.Join(dir, "minimal.pdf")
	if err := os.WriteFile(path, pdf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestDocumentWriterRoundTripsUnmodifiedObjects(t *testing.T) {
	path := buildMinimalPDF(t, t.TempDir())
	reader := parser.NewReader(path)
	if err := reader.Open(); err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer reader.Close()

	dw := NewDocumentWriter(reader, parser.IndirectReference{Number: 1, Generation: 0}, nil)
	out, err := dw.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	s := string(out)
	if !strings.HasPrefix(s, "%PDF-1.7") {
		t.Errorf("expected PDF header, got %q", s[:20])
	}
	if !strings.Contains(s, "/Type/Catalog") && !strings.Contains(s, "/Type /Catalog") {
		t.Errorf("expected catalog object present, got %q", s)
	}
	if !strings.Contains(s, "trailer") || !strings.Contains(s, "startxref") {
		t.Errorf("expected trailer and startxref, got %q", s)
	}

	reopened := parser.NewReader(writeTemp(t, out))
	if err := reopened.Open(); err != nil {
		t.Fatalf("reopen written PDF: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.GetPageCount()
	if err != nil || count != 1 {
		t.Errorf("expected 1 page in round-tripped PDF, got %d (err %v)", count, err)
	}
}

func TestDocumentWriterAppliesOverrides(t *testing.T) {
	path := buildMinimalPDF(t, t.TempDir())
	reader := parser.NewReader(path)
	if err := reader.Open(); err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer reader.Close()

	dw := NewDocumentWriter(reader, parser.IndirectReference{Number: 1, Generation: 0}, nil)

	newCatalog := parser.NewDictionary()
	newCatalog.Set("Type", parser.NewName("Catalog"))
	newCatalog.Set("Pages", parser.NewIndirectReference(2, 0))
	newCatalog.Set("Lang", parser.NewString("en-US"))
	dw.SetObject(1, newCatalog)

	out, err := dw.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(string(out), "/Lang") {
		t.Errorf("expected overridden catalog with /Lang present, got %q", out)
	}
}

func TestNextObjectNumberExceedsExisting(t *testing.T) {
	path := buildMinimalPDF(t, t.TempDir())
	reader := parser.NewReader(path)
	if err := reader.Open(); err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer reader.Close()

	dw := NewDocumentWriter(reader, parser.IndirectReference{Number: 1, Generation: 0}, nil)
	if next := dw.NextObjectNumber(); next < 5 {
		t.Errorf("expected next object number >= 5, got %d", next)
	}
}

func TestAllocateObjectNumberIsMonotonicAndDistinct(t *testing.T) {
	path := buildMinimalPDF(t, t.TempDir())
	reader := parser.NewReader(path)
	if err := reader.Open(); err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer reader.Close()

	dw := NewDocumentWriter(reader, parser.IndirectReference{Number: 1, Generation: 0}, nil)

	first := dw.AllocateObjectNumber()
	second := dw.AllocateObjectNumber()
	third := dw.AllocateObjectNumber()

	if first < 5 {
		t.Errorf("expected first allocation >= 5 (past existing objects), got %d", first)
	}
	if second != first+1 || third != second+1 {
		t.Errorf("expected consecutive allocations, got %d, %d, %d", first, second, third)
	}
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp pdf: %v", err)
	}
	return path
}
