package remote

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
)

// remoteBook is the wire shape of a record in the cloud backend. The backend
// uses flat snake_case columns and nullable fields where the domain model
// uses zero values, so mapping is a straight rename plus nil coercion.
type remoteBook struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id,omitempty"`
	Title         string   `json:"title"`
	Subtitle      *string  `json:"subtitle"`
	Authors       []string `json:"authors"`
	Publisher     *string  `json:"publisher"`
	PublishedDate *string  `json:"published_date"`
	ISBN          *string  `json:"isbn"`
	CoverURL      *string  `json:"cover_url"`
	PageCount     *int     `json:"page_count"`
	Price         *float64 `json:"price"`
	PurchasedAt   *string  `json:"purchased_at"`
	Tags          []string `json:"tags"`
	Notes         *string  `json:"notes"`
	Status        *string  `json:"status"`
	Priority      *string  `json:"priority"`
	Condition     *string  `json:"condition"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// fromDomain maps a local record to the remote shape. Sync status never
// leaves the device; it describes this device's relationship to the remote
// copy, not the record itself.
func fromDomain(book *domain.Book, ownerUserID string) remoteBook {
	rb := remoteBook{
		ID:            book.ID,
		UserID:        ownerUserID,
		Title:         book.Title,
		Subtitle:      optString(book.Subtitle),
		Authors:       book.Authors,
		Publisher:     optString(book.Publisher),
		PublishedDate: optString(book.PublishedDate),
		ISBN:          optString(book.ISBN),
		CoverURL:      optString(book.CoverURL),
		Tags:          book.Tags,
		Notes:         optString(book.Notes),
		Status:        optString(string(book.Status)),
		Priority:      optString(string(book.Priority)),
		Condition:     optString(string(book.Condition)),
		CreatedAt:     book.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     book.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if book.PageCount != 0 {
		rb.PageCount = &book.PageCount
	}
	if book.Price != 0 {
		rb.Price = &book.Price
	}
	if book.PurchasedAt != nil {
		purchased := book.PurchasedAt.UTC().Format(time.RFC3339Nano)
		rb.PurchasedAt = &purchased
	}
	return rb
}

// toDomain maps a remote record back to the domain shape. Records arriving
// from the remote store are by definition synced.
func (rb remoteBook) toDomain() *domain.Book {
	book := &domain.Book{
		Syncable: domain.Syncable{
			ID:          rb.ID,
			OwnerUserID: rb.UserID,
			CreatedAt:   parseTime(rb.CreatedAt),
			UpdatedAt:   parseTime(rb.UpdatedAt),
			SyncStatus:  domain.SyncStatusSynced,
		},
		Title:         rb.Title,
		Subtitle:      derefString(rb.Subtitle),
		Authors:       rb.Authors,
		Publisher:     derefString(rb.Publisher),
		PublishedDate: derefString(rb.PublishedDate),
		ISBN:          derefString(rb.ISBN),
		CoverURL:      derefString(rb.CoverURL),
		Tags:          rb.Tags,
		Notes:         derefString(rb.Notes),
		Status:        domain.ReadingStatus(derefString(rb.Status)),
		Priority:      domain.Priority(derefString(rb.Priority)),
		Condition:     domain.Condition(derefString(rb.Condition)),
	}
	if rb.PageCount != nil {
		book.PageCount = *rb.PageCount
	}
	if rb.Price != nil {
		book.Price = *rb.Price
	}
	if rb.PurchasedAt != nil {
		if t := parseTime(*rb.PurchasedAt); !t.IsZero() {
			book.PurchasedAt = &t
		}
	}
	return book
}

// parseTime parses an RFC3339 timestamp, degrading to the zero time on
// malformed input. A zero UpdatedAt always loses conflict resolution, which
// is the safe direction for a corrupt remote timestamp.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
