// Package domain contains the core business entities and domain logic for the Shelfmark book tracker.
package domain

import "time"

// ReadingStatus tracks where a book sits in the owner's reading life.
type ReadingStatus string

// Reading status values.
const (
	ReadingStatusWishlist  ReadingStatus = "wishlist"
	ReadingStatusToRead    ReadingStatus = "to_read"
	ReadingStatusReading   ReadingStatus = "reading"
	ReadingStatusFinished  ReadingStatus = "finished"
	ReadingStatusAbandoned ReadingStatus = "abandoned"
)

// Priority is how urgently the owner wants to get to a book.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Condition describes the physical state of a copy.
type Condition string

// Condition values.
const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Book represents a single book in the collection. It is the unit of sync:
// conflict resolution is whole-record, so there is no per-field versioning here.
type Book struct {
	Syncable
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle,omitempty"`
	Authors       []string      `json:"authors,omitempty"`
	Publisher     string        `json:"publisher,omitempty"`
	PublishedDate string        `json:"published_date,omitempty"`
	ISBN          string        `json:"isbn,omitempty"`
	CoverURL      string        `json:"cover_url,omitempty"`
	PageCount     int           `json:"page_count,omitempty"`
	Price         float64       `json:"price,omitempty"`
	PurchasedAt   *time.Time    `json:"purchased_at,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Status        ReadingStatus `json:"status,omitempty"`
	Priority      Priority      `json:"priority,omitempty"`
	Condition     Condition     `json:"condition,omitempty"`
}

// Valid reports whether the status is one of the known values.
func (r ReadingStatus) Valid() bool {
	switch r {
	case ReadingStatusWishlist, ReadingStatusToRead, ReadingStatusReading,
		ReadingStatusFinished, ReadingStatusAbandoned:
		return true
	}
	return false
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Valid reports whether the condition is one of the known values.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// HasTag reports whether the book carries the given tag.
func (b *Book) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag if not already present. Returns true if it was added.
func (b *Book) AddTag(tag string) bool {
	if b.HasTag(tag) {
		return false
	}
	b.Tags = append(b.Tags, tag)
	return true
}

// RemoveTag removes a tag. Returns true if a tag was removed.
func (b *Book) RemoveTag(tag string) bool {
	for i, t := range b.Tags {
		if t == tag {
			b.Tags = append(b.Tags[:i], b.Tags[i+1:]...)
			return true
		}
	}
	return false
}
