package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

// makePDF builds a minimal uncompressed PDF with one Helvetica text line per
// page, good enough for the reader used in extraction.
func makePDF(pageTexts ...string) []byte {
	n := len(pageTexts)
	type object struct {
		num  int
		body string
	}
	var objects []object

	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		object{1, "<< /Type /Catalog /Pages 2 0 R >>"},
		object{2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)},
		object{3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"},
	)
	for i, text := range pageTexts {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escapePDFString(text))
		objects = append(objects,
			object{pageNum, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNum)},
			object{contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)},
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make(map[int]int)
	for _, obj := range objects {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
	}
	xrefStart := buf.Len()
	maxNum := 3 + 2*n
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", maxNum+1)
	for i := 1; i <= maxNum; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", maxNum+1, xrefStart)
	return buf.Bytes()
}

func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}

func TestPages(t *testing.T) {
	data := makePDF("first page text", "second page text")
	pages, err := Pages(data)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages: got %d, want 2", len(pages))
	}
	if !strings.Contains(pages[0], "first page text") {
		t.Errorf("page 1: got %q", pages[0])
	}
	if !strings.Contains(pages[1], "second page text") {
		t.Errorf("page 2: got %q", pages[1])
	}
}

func TestPages_EmptyDocument(t *testing.T) {
	_, err := Pages(makePDF())
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestPages_NotAPDF(t *testing.T) {
	_, err := Pages([]byte("definitely not a pdf"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		numPages, from, to int
		wantFrom, wantTo   int
		wantErr            bool
	}{
		{10, 0, 0, 1, 10, false},
		{10, -3, 99, 1, 10, false},
		{10, 2, 5, 2, 5, false},
		{10, 5, 2, 0, 0, true},
		{3, 3, 3, 3, 3, false},
	}
	for _, tt := range tests {
		from, to, err := ClampRange(tt.numPages, tt.from, tt.to)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("ClampRange(%d,%d,%d): expected ErrInvalidRange, got %v", tt.numPages, tt.from, tt.to, err)
			}
			continue
		}
		if err != nil || from != tt.wantFrom || to != tt.wantTo {
			t.Errorf("ClampRange(%d,%d,%d) = %d,%d,%v", tt.numPages, tt.from, tt.to, from, to, err)
		}
	}
}

func TestExtractRange(t *testing.T) {
	pages := []string{"one", "two", "three"}
	text, from, to, err := ExtractRange(pages, 2, 3)
	if err != nil {
		t.Fatalf("ExtractRange: %v", err)
	}
	if from != 2 || to != 3 {
		t.Errorf("range: got %d-%d", from, to)
	}
	if text != "two\n\nthree" {
		t.Errorf("text: got %q", text)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate: got %q", got)
	}
	got := Truncate("abcdefghij", 4)
	if got != "abcd"+TruncationMarker {
		t.Errorf("Truncate: got %q", got)
	}
	// A cut landing inside a multi-byte rune backs off to the boundary.
	got = Truncate("naïve", 3)
	if got != "na"+TruncationMarker {
		t.Errorf("Truncate: got %q, want %q", got, "na"+TruncationMarker)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
}
