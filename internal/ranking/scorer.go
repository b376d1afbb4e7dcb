// Package ranking scores library items against bibliographic queries.
package ranking

import (
	"strings"

	"github.com/hyperjump/refproxy/internal/models"
	"github.com/hyperjump/refproxy/internal/normalize"
	"github.com/hyperjump/refproxy/internal/zotero"
)

// Scoring weights. One consistent scheme: an exact title substring beats any
// token overlap (cap 7), creators weigh slightly less (exact 6, cap 5), a
// year match adds 5. Free-text tokens count 1 each with +2 bonuses for a
// matching year or preferred creator.
const (
	titleExactScore   = 8
	titleTokenCap     = 7
	creatorExactScore = 6
	creatorTokenCap   = 5
	yearMatchScore    = 5
	textBonusScore    = 2
	nominalScore      = 1
)

// NoStrongSignal is the reason reported for filter-passing records in a
// filters-only query.
const NoStrongSignal = "no_strong_signal"

// Query carries the ranking signals. Text switches on free-text mode; in
// that mode Creator acts as a preferred-creator bonus rather than a
// structured field.
type Query struct {
	Title   string
	Creator string
	Year    string
	Text    string
}

// FromSearch maps an API search query onto ranking signals.
func FromSearch(q *models.SearchQuery) Query {
	return Query{Title: q.Title, Creator: q.Creator, Year: q.Year, Text: q.Text}
}

// FromResolve maps a structured resolve query onto ranking signals.
func FromResolve(q *models.ResolveQuery) Query {
	return Query{Title: q.Title, Creator: q.Creator, Year: q.Year}
}

// HasSignals reports whether the query carries any soft ranking signal.
func (q Query) HasSignals() bool {
	return q.Title != "" || q.Creator != "" || q.Year != "" || q.Text != ""
}

// Score computes an integer relevance score for item and a comma-joined
// reason string of the rules that fired, in evaluation order. A score of 0
// means the item is not a candidate. Filters-only queries (no signals) give
// every record the nominal score with the NoStrongSignal reason.
//
// Free text takes precedence: when Text is set the structured Title signal
// is ignored, while Creator and Year still contribute their free-text
// bonuses. Title-aware ranking needs a query without free text.
func Score(q Query, item *zotero.Item) (int, string) {
	if !q.HasSignals() {
		return nominalScore, NoStrongSignal
	}
	if q.Text != "" {
		return scoreFreeText(q, item)
	}
	return scoreStructured(q, item)
}

func scoreStructured(q Query, item *zotero.Item) (int, string) {
	score := 0
	var reasons []string

	title := fold(item.Data.Title)
	if q.Title != "" {
		qt := fold(q.Title)
		if strings.Contains(title, qt) {
			score += titleExactScore
			reasons = append(reasons, "title_exact")
		} else if hits := tokenHits(qt, title); hits > 0 {
			score += min(titleTokenCap, hits)
			reasons = append(reasons, "title_tokens")
		}
	}

	creators := fold(creatorString(item))
	if q.Creator != "" {
		qc := fold(q.Creator)
		if strings.Contains(creators, qc) {
			score += creatorExactScore
			reasons = append(reasons, "creator_exact")
		} else if hits := tokenHits(qc, creators); hits > 0 {
			score += min(creatorTokenCap, hits)
			reasons = append(reasons, "creator_tokens")
		}
	}

	if q.Year != "" && q.Year == itemYear(item) {
		score += yearMatchScore
		reasons = append(reasons, "year_match")
	}

	return score, strings.Join(reasons, ",")
}

func scoreFreeText(q Query, item *zotero.Item) (int, string) {
	score := 0
	var reasons []string

	haystack := fold(haystackText(item))
	if hits := tokenHits(fold(q.Text), haystack); hits > 0 {
		score += hits
		reasons = append(reasons, "text_tokens")
	}

	year := q.Year
	if year == "" {
		year = normalize.ExtractYear(q.Text)
	}
	if year != "" && year == itemYear(item) {
		score += textBonusScore
		reasons = append(reasons, "text_year")
	}

	if q.Creator != "" && strings.Contains(fold(creatorString(item)), fold(q.Creator)) {
		score += textBonusScore
		reasons = append(reasons, "text_creator")
	}

	return score, strings.Join(reasons, ",")
}

// tokenHits counts whitespace-split query tokens that appear as substrings
// of the haystack. Both sides must already be folded.
func tokenHits(query, haystack string) int {
	hits := 0
	for _, tok := range strings.Fields(query) {
		if strings.Contains(haystack, tok) {
			hits++
		}
	}
	return hits
}

// haystackText builds the free-text matching surface: title, creators,
// publication venue, and tags.
func haystackText(item *zotero.Item) string {
	parts := []string{item.Data.Title, creatorString(item), item.Data.PublicationTitle}
	for _, t := range item.Data.Tags {
		parts = append(parts, t.Tag)
	}
	return strings.Join(parts, " ")
}

func creatorString(item *zotero.Item) string {
	var names []string
	for _, c := range item.Data.Creators {
		name := c.LastName
		if name == "" {
			name = c.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func itemYear(item *zotero.Item) string {
	return normalize.ExtractYear(item.Data.Date)
}

// fold lowercases and mojibake-repairs a string for matching.
func fold(s string) string {
	return strings.ToLower(normalize.Repair(s))
}
