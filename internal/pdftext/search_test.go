package pdftext

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSearchPhrase_PageOrderAndContext(t *testing.T) {
	pages := []string{
		"nothing here",
		"the Quick Brown Fox jumps over the fence",
		"still nothing",
		"more filler",
		"again a quick brown fox appears at dusk",
	}
	hits, scanned, err := SearchPhrase(pages, "quick brown fox", 0, 10, 40)
	if err != nil {
		t.Fatalf("SearchPhrase: %v", err)
	}
	if scanned != len(pages) {
		t.Errorf("pages scanned: got %d", scanned)
	}
	if len(hits) != 2 {
		t.Fatalf("hits: got %d, want 2", len(hits))
	}
	wantPages := []int{2, 5}
	for i, h := range hits {
		if h.Page == nil || *h.Page != wantPages[i] {
			t.Errorf("hit %d page: got %v, want %d", i, h.Page, wantPages[i])
		}
		if !strings.Contains(strings.ToLower(h.Context), "quick brown fox") {
			t.Errorf("hit %d context %q does not contain phrase", i, h.Context)
		}
	}
}

func TestSearchPhrase_MaxHits(t *testing.T) {
	pages := []string{"x x x x x x"}
	hits, _, err := SearchPhrase(pages, "x", 0, 3, 10)
	if err != nil {
		t.Fatalf("SearchPhrase: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("hits: got %d, want 3", len(hits))
	}
}

func TestSearchPhrase_MaxPages(t *testing.T) {
	pages := []string{"target", "target", "target"}
	hits, scanned, err := SearchPhrase(pages, "target", 2, 10, 10)
	if err != nil {
		t.Fatalf("SearchPhrase: %v", err)
	}
	if scanned != 2 {
		t.Errorf("scanned: got %d, want 2", scanned)
	}
	if len(hits) != 2 {
		t.Errorf("hits: got %d, want 2", len(hits))
	}
}

func TestSearchPhrase_EmptyPhrase(t *testing.T) {
	_, _, err := SearchPhrase([]string{"text"}, "   ", 0, 0, 0)
	if !errors.Is(err, ErrEmptyPhrase) {
		t.Errorf("expected ErrEmptyPhrase, got %v", err)
	}
}

func TestSearchPhrase_RegexMetacharsLiteral(t *testing.T) {
	pages := []string{"cost is $4.99 (net)"}
	hits, _, err := SearchPhrase(pages, "$4.99 (net)", 0, 5, 30)
	if err != nil {
		t.Fatalf("SearchPhrase: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits: got %d, want 1", len(hits))
	}
}

func TestAttributePage_BoundarySpanIsNull(t *testing.T) {
	pages := []string{"ends with alpha", "beta starts here"}
	// "alpha\n\nbeta" spans the page separator.
	hits, _, err := SearchPhrase(pages, "alpha\n\nbeta", 0, 5, 40)
	if err != nil {
		t.Fatalf("SearchPhrase: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits: got %d, want 1", len(hits))
	}
	if hits[0].Page != nil {
		t.Errorf("page: got %v, want null for boundary-spanning match", *hits[0].Page)
	}
}

func TestContextWindow_Clamped(t *testing.T) {
	text := "abcdef"
	if got := contextWindow(text, 0, 2, 10); got != "abcdef" {
		t.Errorf("window: got %q", got)
	}
	if got := contextWindow(text, 2, 4, 2); got != "cd" {
		t.Errorf("window: got %q", got)
	}
}

func TestContextWindow_RuneBoundaries(t *testing.T) {
	// "X" sits between two-byte runes; a byte-exact window would cut them.
	text := "ééXéé"
	got := contextWindow(text, 4, 5, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("window is not valid UTF-8: %q", got)
	}
	if got != "éXé" {
		t.Errorf("window: got %q, want %q", got, "éXé")
	}
}
