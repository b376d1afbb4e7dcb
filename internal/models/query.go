package models

// ResolveQuery is a structured bibliographic lookup (title/creator/year).
type ResolveQuery struct {
	Title         string `json:"title,omitempty"`
	Creator       string `json:"creator,omitempty"`
	Year          string `json:"year,omitempty"`
	CollectionKey string `json:"collection_key,omitempty"`
	Limit         int    `json:"limit"`
	MaxFetch      int    `json:"max_fetch"`
	RequirePDF    bool   `json:"require_pdf"`
	PDFCheckTopN  int    `json:"pdf_check_top_n"`
}

// SearchQuery is a free-text or faceted library search.
type SearchQuery struct {
	Text          string `json:"q,omitempty"`
	Title         string `json:"title,omitempty"`
	Creator       string `json:"creator,omitempty"`
	Tag           string `json:"tag,omitempty"`
	Year          string `json:"year,omitempty"`
	CollectionKey string `json:"collection_key,omitempty"`
	ItemType      string `json:"item_type,omitempty"`
	HasPDF        bool   `json:"has_pdf"`
	Limit         int    `json:"limit"`
	MaxScan       int    `json:"max_scan"`
}

// HasQueryTerms reports whether any soft ranking signal was supplied. When
// false the query is filters-only and every filter-passing record scores a
// nominal 1.
func (q *SearchQuery) HasQueryTerms() bool {
	return q.Text != "" || q.Title != "" || q.Creator != "" || q.Year != ""
}

// ResolveResponse is the /resolve-biblio payload.
type ResolveResponse struct {
	Query         ResolveQuery    `json:"query"`
	ServerFetched int             `json:"server_fetched"`
	PDFChecked    int             `json:"pdf_checked"`
	Results       []CompactRecord `json:"results"`
}

// SearchResponse is the /search payload.
type SearchResponse struct {
	Query                SearchQuery     `json:"query"`
	ScannedTopLevelItems int             `json:"scanned_top_level_items"`
	Results              []CompactRecord `json:"results"`
}
