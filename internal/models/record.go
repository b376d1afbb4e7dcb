// Package models defines the compact record shape and query/response types
// for the proxy API.
package models

import (
	"strings"

	"github.com/hyperjump/refproxy/internal/normalize"
	"github.com/hyperjump/refproxy/internal/zotero"
)

// CompactRecord is the flat, response-friendly projection of one library
// item. Built fresh per response, never stored.
type CompactRecord struct {
	Key         string   `json:"key"`
	ItemType    string   `json:"item_type"`
	Title       string   `json:"title"`
	Creators    string   `json:"creators"`
	Year        string   `json:"year"`
	Publication string   `json:"publication"`
	Collections []string `json:"collections"`
	Tags        []string `json:"tags"`
	HasPDF      bool     `json:"has_pdf"`
	PDFKeys     []string `json:"pdf_keys"`
	Score       int      `json:"score"`
	Reason      string   `json:"reason"`
}

// Compact flattens an upstream item into a CompactRecord. Total: missing
// fields map to empty strings or empty slices. All text passes through
// mojibake repair.
func Compact(item *zotero.Item, hasPDF bool, pdfKeys []string, score int, reason string) CompactRecord {
	rec := CompactRecord{
		Key:         item.Key,
		ItemType:    item.Data.ItemType,
		Title:       normalize.Repair(item.Data.Title),
		Creators:    CreatorString(item),
		Year:        normalize.ExtractYear(item.Data.Date),
		Publication: normalize.Repair(item.Data.PublicationTitle),
		Collections: append([]string{}, item.Data.Collections...),
		Tags:        make([]string, 0, len(item.Data.Tags)),
		HasPDF:      hasPDF,
		PDFKeys:     pdfKeys,
		Score:       score,
		Reason:      reason,
	}
	if rec.Key == "" {
		rec.Key = item.Data.Key
	}
	if rec.PDFKeys == nil {
		rec.PDFKeys = []string{}
	}
	for _, t := range item.Data.Tags {
		if t.Tag != "" {
			rec.Tags = append(rec.Tags, normalize.Repair(t.Tag))
		}
	}
	return rec
}

// CreatorString joins the non-empty last names of an item's creators in
// original order. Creators without a structured name fall back to the
// combined name field.
func CreatorString(item *zotero.Item) string {
	var names []string
	for _, c := range item.Data.Creators {
		name := c.LastName
		if name == "" {
			name = c.Name
		}
		if name != "" {
			names = append(names, normalize.Repair(name))
		}
	}
	return strings.Join(names, ", ")
}
