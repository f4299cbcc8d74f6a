package sync

import (
	"sort"

	"github.com/shelfmark/shelfmark/internal/domain"
)

// FreeTierLimit is the number of records a free account may hold remotely.
const FreeTierLimit = 50

// CapacityUsage is a read-only projection of remote capacity, derived live
// from the current record set and the account tier.
type CapacityUsage struct {
	Eligible  int  `json:"eligible"`
	Limit     int  `json:"limit,omitempty"`
	Unlimited bool `json:"unlimited"`
	CanAdd    bool `json:"can_add"`
}

// EligibleForUpload returns the IDs of records permitted to occupy remote
// storage slots, given the full local set and the account tier.
//
// Records awaiting deletion are excluded outright. The rest are admitted
// oldest-created first until the tier limit: earliest-registered books get
// sync priority, which keeps admission deterministic and lets a user free
// capacity for a specific book by deleting older ones. A record that misses
// the cut is not deleted, it just stays local-only.
func EligibleForUpload(books []*domain.Book, premium bool) []string {
	candidates := make([]*domain.Book, 0, len(books))
	for _, book := range books {
		if book.SyncStatus == domain.SyncStatusPendingDelete {
			continue
		}
		candidates = append(candidates, book)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	limit := len(candidates)
	if !premium && limit > FreeTierLimit {
		limit = FreeTierLimit
	}

	ids := make([]string, 0, limit)
	for _, book := range candidates[:limit] {
		ids = append(ids, book.ID)
	}
	return ids
}

// Usage computes the capacity projection for the given record set and tier.
func Usage(books []*domain.Book, premium bool) CapacityUsage {
	eligible := EligibleForUpload(books, premium)

	usage := CapacityUsage{
		Eligible:  len(eligible),
		Unlimited: premium,
		CanAdd:    true,
	}
	if !premium {
		usage.Limit = FreeTierLimit
		usage.CanAdd = len(eligible) < FreeTierLimit
	}
	return usage
}
