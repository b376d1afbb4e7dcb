// Package pdftext extracts and searches plain text from PDF attachments.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrEmptyDocument is returned for PDFs with zero pages.
	ErrEmptyDocument = errors.New("pdf has no pages")
	// ErrInvalidRange is returned when page_from > page_to after clamping.
	ErrInvalidRange = errors.New("invalid page range")
	// ErrEmptyPhrase is returned for a blank search phrase.
	ErrEmptyPhrase = errors.New("empty search phrase")
	// ErrDecode wraps parse failures from the PDF reader.
	ErrDecode = errors.New("pdf decode failed")
	// ErrNotPDF is returned when an attachment's declared content type is
	// not a PDF.
	ErrNotPDF = errors.New("attachment is not a PDF")
)

// TruncationMarker is appended to extracted text cut at the character limit.
const TruncationMarker = "... [truncated]"

// pageSeparator joins page texts with a blank line.
const pageSeparator = "\n\n"

// Pages opens content as a PDF and returns the plain text of each page.
func Pages(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, ErrEmptyDocument
	}
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrDecode, i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// ClampRange clamps a 1-based page range to the document. A zero or
// negative from means the first page; a zero to means the last.
func ClampRange(numPages, from, to int) (int, int, error) {
	if from < 1 {
		from = 1
	}
	if to < 1 || to > numPages {
		to = numPages
	}
	if from > to {
		return 0, 0, fmt.Errorf("%w: %d-%d of %d pages", ErrInvalidRange, from, to, numPages)
	}
	return from, to, nil
}

// ExtractRange joins the texts of pages from..to (1-based, inclusive) with
// a blank-line separator after clamping to the document bounds.
func ExtractRange(pages []string, from, to int) (string, int, int, error) {
	from, to, err := ClampRange(len(pages), from, to)
	if err != nil {
		return "", 0, 0, err
	}
	return strings.Join(pages[from-1:to], pageSeparator), from, to, nil
}

// Truncate cuts s to at most maxChars bytes, appending a visible marker
// when truncated. The cut backs off to a rune boundary so the result stays
// valid UTF-8. Non-positive maxChars leaves s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationMarker
}
