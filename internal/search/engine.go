// Package search walks the upstream library in pages and ranks records
// against bibliographic queries.
package search

import (
	"context"
	"sort"
	"strconv"

	"github.com/hyperjump/refproxy/internal/cache"
	"github.com/hyperjump/refproxy/internal/config"
	"github.com/hyperjump/refproxy/internal/models"
	"github.com/hyperjump/refproxy/internal/ranking"
	"github.com/hyperjump/refproxy/internal/zotero"
	"go.uber.org/zap"
)

// Library is the subset of the upstream client the engine needs.
type Library interface {
	Items(ctx context.Context, opts zotero.ItemsOptions) ([]zotero.Item, error)
	Children(ctx context.Context, itemKey string) ([]zotero.Item, error)
}

// Engine runs paginated scans with local scoring. The result cache sits in
// front of the scan path only.
type Engine struct {
	lib     Library
	results *cache.Cache
	cfg     *config.ScanConfig
	logger  *zap.Logger
}

// NewEngine creates an engine. results may be nil to disable caching.
func NewEngine(lib Library, results *cache.Cache, cfg *config.ScanConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{lib: lib, results: results, cfg: cfg, logger: logger}
}

// candidate is a scored record, transient to one scan.
type candidate struct {
	item   zotero.Item
	score  int
	reason string
}

type scanOptions struct {
	collectionKey string
	q             string
	itemType      string
	tag           string
	maxFetch      int
}

// scan pages through the upstream listing, scoring each record and keeping
// those with a positive score. It stops on an empty page, on a short page,
// or once maxFetch records have been fetched. Returns the kept candidates
// and the number of records fetched.
func (e *Engine) scan(ctx context.Context, opts scanOptions, score func(*zotero.Item) (int, string)) ([]candidate, int, error) {
	pageSize := e.cfg.PageSize
	fetched := 0
	var cands []candidate

	for offset := 0; fetched < opts.maxFetch; offset += pageSize {
		items, err := e.lib.Items(ctx, zotero.ItemsOptions{
			Start:              offset,
			Limit:              pageSize,
			Q:                  opts.q,
			Tag:                opts.tag,
			ItemType:           opts.itemType,
			CollectionKey:      opts.collectionKey,
			ExcludeAttachments: opts.itemType == "",
		})
		if err != nil {
			return nil, fetched, err
		}
		if len(items) == 0 {
			break
		}
		fetched += len(items)

		for i := range items {
			it := &items[i]
			if it.IsAttachment() {
				continue
			}
			if s, reason := score(it); s > 0 {
				cands = append(cands, candidate{item: *it, score: s, reason: reason})
			}
		}

		if len(items) < pageSize {
			break
		}
	}

	e.logger.Debug("scan complete",
		zap.Int("fetched", fetched),
		zap.Int("candidates", len(cands)))
	return cands, fetched, nil
}

// orderCandidates sorts descending by score. The sort is stable: records
// seen earlier in the scan keep their relative order on ties.
func orderCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
}

// Resolve answers a structured title/creator/year lookup.
func (e *Engine) Resolve(ctx context.Context, q *models.ResolveQuery) (*models.ResolveResponse, error) {
	if q.Limit <= 0 {
		q.Limit = e.cfg.DefaultLimit
	}
	if q.Limit > e.cfg.MaxLimit {
		q.Limit = e.cfg.MaxLimit
	}
	if q.MaxFetch <= 0 {
		q.MaxFetch = e.cfg.DefaultMaxFetch
	}
	if q.MaxFetch > e.cfg.MaxFetchCeiling {
		q.MaxFetch = e.cfg.MaxFetchCeiling
	}
	if q.PDFCheckTopN <= 0 {
		q.PDFCheckTopN = e.cfg.DefaultPDFCheckTopN
	}

	key := cache.Key(map[string]string{
		"op":              "resolve",
		"title":           q.Title,
		"creator":         q.Creator,
		"year":            q.Year,
		"collection_key":  q.CollectionKey,
		"limit":           strconv.Itoa(q.Limit),
		"max_fetch":       strconv.Itoa(q.MaxFetch),
		"require_pdf":     strconv.FormatBool(q.RequirePDF),
		"pdf_check_top_n": strconv.Itoa(q.PDFCheckTopN),
	})
	if resp, ok := e.cached(key); ok {
		return resp.(*models.ResolveResponse), nil
	}

	rq := ranking.FromResolve(q)
	cands, fetched, err := e.scan(ctx, scanOptions{
		collectionKey: q.CollectionKey,
		maxFetch:      q.MaxFetch,
	}, func(it *zotero.Item) (int, string) { return ranking.Score(rq, it) })
	if err != nil {
		return nil, err
	}
	orderCandidates(cands)

	var results []models.CompactRecord
	pdfChecked := 0
	if q.RequirePDF {
		results, pdfChecked, err = e.filterWithPDF(ctx, cands, q.Limit, q.PDFCheckTopN)
		if err != nil {
			return nil, err
		}
	} else {
		results = topRecords(cands, q.Limit)
	}

	resp := &models.ResolveResponse{
		Query:         *q,
		ServerFetched: fetched,
		PDFChecked:    pdfChecked,
		Results:       results,
	}
	e.store(key, resp)
	return resp, nil
}

// Search answers a free-text or faceted library search.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	if q.Limit <= 0 {
		q.Limit = e.cfg.DefaultLimit
	}
	if q.Limit > e.cfg.MaxLimit {
		q.Limit = e.cfg.MaxLimit
	}
	if q.MaxScan <= 0 {
		q.MaxScan = e.cfg.DefaultMaxFetch
	}
	if q.MaxScan > e.cfg.MaxFetchCeiling {
		q.MaxScan = e.cfg.MaxFetchCeiling
	}

	key := cache.Key(map[string]string{
		"op":             "search",
		"q":              q.Text,
		"title":          q.Title,
		"creator":        q.Creator,
		"tag":            q.Tag,
		"year":           q.Year,
		"collection_key": q.CollectionKey,
		"item_type":      q.ItemType,
		"has_pdf":        strconv.FormatBool(q.HasPDF),
		"limit":          strconv.Itoa(q.Limit),
		"max_scan":       strconv.Itoa(q.MaxScan),
	})
	if resp, ok := e.cached(key); ok {
		return resp.(*models.SearchResponse), nil
	}

	rq := ranking.FromSearch(q)
	cands, fetched, err := e.scan(ctx, scanOptions{
		collectionKey: q.CollectionKey,
		q:             q.Text,
		tag:           q.Tag,
		itemType:      q.ItemType,
		maxFetch:      q.MaxScan,
	}, func(it *zotero.Item) (int, string) { return ranking.Score(rq, it) })
	if err != nil {
		return nil, err
	}
	orderCandidates(cands)

	var results []models.CompactRecord
	if q.HasPDF {
		results, _, err = e.filterWithPDF(ctx, cands, q.Limit, e.cfg.DefaultPDFCheckTopN)
		if err != nil {
			return nil, err
		}
	} else {
		results = topRecords(cands, q.Limit)
	}

	resp := &models.SearchResponse{
		Query:                *q,
		ScannedTopLevelItems: fetched,
		Results:              results,
	}
	e.store(key, resp)
	return resp, nil
}

// filterWithPDF runs the bounded sub-scan that checks top candidates for a
// PDF child. At most topN candidates get a children lookup; the rest are
// dropped even if they would qualify. Returns the kept records and how
// many candidates were checked.
func (e *Engine) filterWithPDF(ctx context.Context, cands []candidate, limit, topN int) ([]models.CompactRecord, int, error) {
	results := []models.CompactRecord{}
	checked := 0
	for i := range cands {
		if len(results) >= limit || checked >= topN {
			break
		}
		c := &cands[i]
		checked++
		children, err := e.lib.Children(ctx, c.item.Key)
		if err != nil {
			return nil, checked, err
		}
		keys := pdfAttachmentKeys(children)
		if len(keys) == 0 {
			continue
		}
		results = append(results, models.Compact(&c.item, true, keys, c.score, c.reason))
	}
	return results, checked, nil
}

func topRecords(cands []candidate, limit int) []models.CompactRecord {
	if len(cands) > limit {
		cands = cands[:limit]
	}
	results := make([]models.CompactRecord, 0, len(cands))
	for i := range cands {
		c := &cands[i]
		results = append(results, models.Compact(&c.item, false, nil, c.score, c.reason))
	}
	return results
}

func pdfAttachmentKeys(children []zotero.Item) []string {
	var keys []string
	for i := range children {
		if children[i].IsPDFAttachment() {
			keys = append(keys, children[i].Key)
		}
	}
	return keys
}

func (e *Engine) cached(key string) (interface{}, bool) {
	if e.results == nil {
		return nil, false
	}
	v, ok := e.results.Get(key)
	if ok {
		e.logger.Debug("result cache hit", zap.String("key", key))
	}
	return v, ok
}

func (e *Engine) store(key string, resp interface{}) {
	if e.results != nil {
		e.results.Set(key, resp)
	}
}
