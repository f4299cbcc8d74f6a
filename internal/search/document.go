// Package search provides full-text search over the local book collection
// using Bleve. The index is a derived view: the record store stays the
// source of truth and the index can be rebuilt from it at any time.
package search

import (
	"strconv"
	"strings"

	"github.com/shelfmark/shelfmark/internal/domain"
)

// Document is the shape of a book inside the Bleve index.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Authors   string `json:"authors,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Tags   []string `json:"tags,omitempty"`
	Status string   `json:"status,omitempty"`

	PageCount   int `json:"page_count,omitempty"`
	PublishYear int `json:"publish_year,omitempty"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping; Bleve would otherwise index Go field names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Subtitle != "" {
		m["subtitle"] = d.Subtitle
	}
	if d.Authors != "" {
		m["authors"] = d.Authors
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if d.Notes != "" {
		m["notes"] = d.Notes
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Status != "" {
		m["status"] = d.Status
	}
	if d.PageCount > 0 {
		m["page_count"] = d.PageCount
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}

	return m
}

// FromBook converts a domain book to its index document.
func FromBook(book *domain.Book) *Document {
	doc := &Document{
		ID:        book.ID,
		Title:     book.Title,
		Subtitle:  book.Subtitle,
		Authors:   strings.Join(book.Authors, ", "),
		Publisher: book.Publisher,
		ISBN:      book.ISBN,
		Notes:     book.Notes,
		Tags:      book.Tags,
		Status:    string(book.Status),
		PageCount: book.PageCount,
		CreatedAt: book.CreatedAt.UnixMilli(),
		UpdatedAt: book.UpdatedAt.UnixMilli(),
	}

	// Published dates come from metadata providers in mixed granularity;
	// only a leading year is reliable enough to range-query on.
	if len(book.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(book.PublishedDate[:4]); err == nil {
			doc.PublishYear = year
		}
	}

	return doc
}
