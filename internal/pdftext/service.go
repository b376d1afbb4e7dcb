package pdftext

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/refproxy/internal/cache"
	"github.com/hyperjump/refproxy/internal/zotero"
	"go.uber.org/zap"
)

// FileFetcher downloads an attachment's bytes and declared metadata.
type FileFetcher interface {
	File(ctx context.Context, key string) (*zotero.Attachment, error)
}

// Service downloads PDF attachments and serves extracted text, with the
// per-range text cached.
type Service struct {
	fetcher  FileFetcher
	texts    *cache.Cache
	maxChars int
	logger   *zap.Logger
}

// NewService creates a PDF text service. maxChars bounds extracted text per
// request; texts may be nil to disable caching.
func NewService(fetcher FileFetcher, texts *cache.Cache, maxChars int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxChars <= 0 {
		maxChars = 200000
	}
	return &Service{fetcher: fetcher, texts: texts, maxChars: maxChars, logger: logger}
}

// Download fetches the attachment, failing with ErrNotPDF when the declared
// content type does not indicate a PDF.
func (s *Service) Download(ctx context.Context, key string) (*zotero.Attachment, error) {
	att, err := s.fetcher.File(ctx, key)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(strings.ToLower(att.ContentType), "pdf") {
		return nil, fmt.Errorf("%w: declared content type %q", ErrNotPDF, att.ContentType)
	}
	return att, nil
}

// Extraction is the result of a page-range text extraction.
type Extraction struct {
	Text       string
	PageFrom   int
	PageTo     int
	TotalPages int
	Truncated  bool
}

// Extract downloads attachment key and returns the text of pages from..to.
// Results are cached per (key, range).
func (s *Service) Extract(ctx context.Context, key string, from, to int) (*Extraction, error) {
	cacheKey := textCacheKey(key, from, to)
	if s.texts != nil {
		if v, ok := s.texts.Get(cacheKey); ok {
			s.logger.Debug("pdf text cache hit", zap.String("key", cacheKey))
			return v.(*Extraction), nil
		}
	}

	pages, err := s.pages(ctx, key)
	if err != nil {
		return nil, err
	}
	text, from, to, err := ExtractRange(pages, from, to)
	if err != nil {
		return nil, err
	}
	truncated := len(text) > s.maxChars
	ext := &Extraction{
		Text:       Truncate(text, s.maxChars),
		PageFrom:   from,
		PageTo:     to,
		TotalPages: len(pages),
		Truncated:  truncated,
	}
	if s.texts != nil {
		s.texts.Set(cacheKey, ext)
	}
	return ext, nil
}

// PageTexts downloads attachment key and returns its per-page text.
func (s *Service) PageTexts(ctx context.Context, key string) ([]string, error) {
	return s.pages(ctx, key)
}

// PhraseResult is the outcome of an in-document phrase search.
type PhraseResult struct {
	Hits         []Hit
	PagesScanned int
	TotalPages   int
}

// Search finds phrase occurrences in attachment key. A blank phrase is
// rejected before the attachment is fetched.
func (s *Service) Search(ctx context.Context, key, phrase string, maxPages, maxHits, contextChars int) (*PhraseResult, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, ErrEmptyPhrase
	}
	pages, err := s.pages(ctx, key)
	if err != nil {
		return nil, err
	}
	hits, scanned, err := SearchPhrase(pages, phrase, maxPages, maxHits, contextChars)
	if err != nil {
		return nil, err
	}
	return &PhraseResult{Hits: hits, PagesScanned: scanned, TotalPages: len(pages)}, nil
}

func (s *Service) pages(ctx context.Context, key string) ([]string, error) {
	att, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	return Pages(att.Data)
}

func textCacheKey(key string, from, to int) string {
	return "text|" + key + "|" + strconv.Itoa(from) + "|" + strconv.Itoa(to)
}
