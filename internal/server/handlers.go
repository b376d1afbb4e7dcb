package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/refproxy/internal/models"
	"github.com/hyperjump/refproxy/internal/normalize"
	"github.com/hyperjump/refproxy/internal/pdftext"
	"github.com/hyperjump/refproxy/internal/zotero"
	"go.uber.org/zap"
)

var yearParamRe = regexp.MustCompile(`^\d{4}$`)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	upstream, err := s.client.Ping(r.Context())
	if err != nil {
		s.logger.Warn("upstream ping failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":              true,
		"app_version":     s.version,
		"upstream_status": upstream,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	opts := zotero.ItemsOptions{
		Limit: intParam(r, "limit", 0),
		Start: intParam(r, "start", 0),
		Top:   boolParam(r, "top"),
	}
	items, err := s.client.Items(r.Context(), opts)
	if err != nil {
		s.respondUpstream(w, err)
		return
	}
	if boolParam(r, "compact") {
		records := make([]models.CompactRecord, 0, len(items))
		for i := range items {
			records = append(records, models.Compact(&items[i], false, nil, 0, ""))
		}
		s.respondJSON(w, http.StatusOK, records)
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.client.Collections(r.Context())
	if err != nil {
		s.respondUpstream(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cols)
}

func (s *Server) handleCollectionItems(w http.ResponseWriter, r *http.Request) {
	opts := zotero.ItemsOptions{
		CollectionKey: chi.URLParam(r, "key"),
		Limit:         intParam(r, "limit", 0),
		Start:         intParam(r, "start", 0),
		Top:           boolParam(r, "top"),
	}
	items, err := s.client.Items(r.Context(), opts)
	if err != nil {
		s.respondUpstream(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.SearchQuery{
		Text:          q.Get("q"),
		Title:         q.Get("title"),
		Creator:       q.Get("creator"),
		Tag:           q.Get("tag"),
		Year:          q.Get("year"),
		CollectionKey: q.Get("collection_key"),
		ItemType:      q.Get("itemType"),
		HasPDF:        boolParam(r, "has_pdf"),
		Limit:         intParam(r, "limit", 0),
		MaxScan:       intParam(r, "max_scan", 0),
	}
	s.logger.Debug("search request", zap.String("q", query.Text), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondUpstream(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if year := q.Get("year"); year != "" && !yearParamRe.MatchString(year) {
		s.respondError(w, http.StatusBadRequest, "year must be exactly 4 digits")
		return
	}
	query := models.ResolveQuery{
		Title:         q.Get("title"),
		Creator:       q.Get("creator"),
		Year:          q.Get("year"),
		CollectionKey: q.Get("collection_key"),
		Limit:         intParam(r, "limit", 0),
		MaxFetch:      intParam(r, "max_fetch", 0),
		RequirePDF:    boolParam(r, "require_pdf"),
		PDFCheckTopN:  intParam(r, "pdf_check_top_n", 0),
	}
	s.logger.Debug("resolve request",
		zap.String("title", query.Title),
		zap.String("creator", query.Creator),
		zap.String("year", query.Year),
	)
	response, err := s.engine.Resolve(r.Context(), &query)
	if err != nil {
		s.respondUpstream(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleAttachmentDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	att, err := s.pdf.Download(r.Context(), key)
	if err != nil {
		s.respondPDF(w, err)
		return
	}
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	disposition := att.Disposition
	if disposition == "" {
		disposition = fmt.Sprintf("inline; filename=%q", key+".pdf")
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Data)
}

func (s *Server) handleAttachmentHTML(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	pages, err := s.pdf.PageTexts(r.Context(), key)
	if err != nil {
		s.respondPDF(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pdftext.RenderHTML(key, pages)))
}

func (s *Server) handleAttachmentText(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	from := intParam(r, "page_from", 0)
	to := intParam(r, "page_to", 0)
	ext, err := s.pdf.Extract(r.Context(), key, from, to)
	if err != nil {
		s.respondPDF(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"key":         key,
		"page_from":   ext.PageFrom,
		"page_to":     ext.PageTo,
		"total_pages": ext.TotalPages,
		"truncated":   ext.Truncated,
		"text":        ext.Text,
	})
}

func (s *Server) handleAttachmentSearch(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	phrase := r.URL.Query().Get("phrase")
	maxPages := intParam(r, "max_pages", s.config.PDF.DefaultMaxPages)
	maxHits := intParam(r, "max_hits", s.config.PDF.DefaultMaxHits)
	contextChars := intParam(r, "context_chars", s.config.PDF.DefaultContextChars)
	result, err := s.pdf.Search(r.Context(), key, phrase, maxPages, maxHits, contextChars)
	if err != nil {
		s.respondPDF(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"phrase":        phrase,
		"pages_scanned": result.PagesScanned,
		"total_pages":   result.TotalPages,
		"hits":          result.Hits,
	})
}

func (s *Server) handleDebugClean(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("s")
	clean := normalize.Repair(raw)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"raw":                raw,
		"clean":              clean,
		"raw_has_mojibake":   normalize.HasMojibake(raw),
		"clean_has_mojibake": normalize.HasMojibake(clean),
	})
}

// respondUpstream maps scan and passthrough failures to HTTP statuses: a 404
// from the library stays a 404, any other upstream response or a network
// failure becomes a 502 carrying the upstream detail.
func (s *Server) respondUpstream(w http.ResponseWriter, err error) {
	if zotero.IsNotFound(err) {
		s.respondError(w, http.StatusNotFound, "not found in library")
		return
	}
	var ue *zotero.UpstreamError
	if errors.As(err, &ue) {
		s.logger.Error("upstream error", zap.Int("status", ue.StatusCode), zap.String("body", ue.Body))
		s.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           "upstream error",
			"upstream_status": ue.StatusCode,
			"upstream_body":   ue.Body,
		})
		return
	}
	if errors.Is(err, zotero.ErrUnavailable) {
		s.logger.Error("upstream unavailable", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

// respondPDF handles the attachment paths, where bad ranges, empty phrases,
// and non-PDF attachments are caller errors and a corrupt stream is not.
func (s *Server) respondPDF(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pdftext.ErrNotPDF),
		errors.Is(err, pdftext.ErrInvalidRange),
		errors.Is(err, pdftext.ErrEmptyPhrase),
		errors.Is(err, pdftext.ErrEmptyDocument):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pdftext.ErrDecode):
		s.logger.Error("pdf decode failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondUpstream(w, err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolParam(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
