package pdftext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Hit is one phrase occurrence. Page is 1-based; it is null when the match
// straddles a page boundary and cannot be attributed to a single page.
type Hit struct {
	Page    *int   `json:"page"`
	Context string `json:"context"`
}

// SearchPhrase finds case-insensitive occurrences of phrase in the first
// maxPages pages. The coarse text of those pages is scanned in one pass;
// each hit carries a contextChars-wide window centered on the match, and
// the page number is resolved from recorded page offsets. Returns the hits
// and the number of pages scanned.
func SearchPhrase(pages []string, phrase string, maxPages, maxHits, contextChars int) ([]Hit, int, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, 0, ErrEmptyPhrase
	}
	if maxPages <= 0 || maxPages > len(pages) {
		maxPages = len(pages)
	}
	if maxHits <= 0 {
		maxHits = 20
	}
	if contextChars <= 0 {
		contextChars = 160
	}

	// Concatenate the scanned pages, recording where each page starts so
	// hits can be attributed back to a page.
	var coarse strings.Builder
	starts := make([]int, maxPages)
	for i := 0; i < maxPages; i++ {
		if i > 0 {
			coarse.WriteString(pageSeparator)
		}
		starts[i] = coarse.Len()
		coarse.WriteString(pages[i])
	}
	text := coarse.String()

	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	matches := re.FindAllStringIndex(text, maxHits)

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{
			Page:    attributePage(starts, pages, m[0], m[1]),
			Context: contextWindow(text, m[0], m[1], contextChars),
		})
	}
	return hits, maxPages, nil
}

// attributePage maps a coarse-text match to its 1-based page, or nil when
// the match does not fall entirely within one page.
func attributePage(starts []int, pages []string, begin, end int) *int {
	for i := len(starts) - 1; i >= 0; i-- {
		if begin >= starts[i] {
			if end <= starts[i]+len(pages[i]) {
				page := i + 1
				return &page
			}
			return nil
		}
	}
	return nil
}

// contextWindow returns a window of about want bytes centered on the match
// at [begin, end), clamped to the text bounds. Both edges snap to rune
// boundaries so the window is always valid UTF-8.
func contextWindow(text string, begin, end, want int) string {
	matchLen := end - begin
	pad := (want - matchLen) / 2
	if pad < 0 {
		pad = 0
	}
	lo := begin - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}
