package sync

import (
	"fmt"
	"testing"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// booksCreatedMinutesApart returns n books whose CreatedAt increases by one
// minute per index, so book-0 is the oldest.
func booksCreatedMinutesApart(n int) []*domain.Book {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	books := make([]*domain.Book, 0, n)
	for i := 0; i < n; i++ {
		books = append(books, &domain.Book{
			Syncable: domain.Syncable{
				ID:        fmt.Sprintf("book-%03d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
				UpdatedAt: base.Add(time.Duration(i) * time.Minute),
			},
			Title: fmt.Sprintf("Book %d", i),
		})
	}
	return books
}

func TestEligibleForUpload_UnderLimitTakesAll(t *testing.T) {
	books := booksCreatedMinutesApart(10)

	ids := EligibleForUpload(books, false)

	assert.Len(t, ids, 10)
}

func TestEligibleForUpload_FreeTierCapsAtLimit(t *testing.T) {
	books := booksCreatedMinutesApart(60)

	ids := EligibleForUpload(books, false)

	require.Len(t, ids, FreeTierLimit)
	// Oldest-created first: the 50 earliest registrations hold the slots.
	assert.Equal(t, "book-000", ids[0])
	assert.Equal(t, "book-049", ids[len(ids)-1])
	assert.NotContains(t, ids, "book-050")
	assert.NotContains(t, ids, "book-059")
}

func TestEligibleForUpload_PremiumIsUncapped(t *testing.T) {
	books := booksCreatedMinutesApart(60)

	assert.Len(t, EligibleForUpload(books, true), 60)
}

func TestEligibleForUpload_ExcludesPendingDelete(t *testing.T) {
	books := booksCreatedMinutesApart(3)
	books[1].SyncStatus = domain.SyncStatusPendingDelete

	ids := EligibleForUpload(books, false)

	assert.Equal(t, []string{"book-000", "book-002"}, ids)
}

// Deleting an old record frees a slot for the next-oldest excluded one.
func TestEligibleForUpload_DeletionFreesSlot(t *testing.T) {
	books := booksCreatedMinutesApart(FreeTierLimit + 1)

	before := EligibleForUpload(books, false)
	require.NotContains(t, before, "book-050")

	books[0].SyncStatus = domain.SyncStatusPendingDelete
	after := EligibleForUpload(books, false)

	assert.Len(t, after, FreeTierLimit)
	assert.Contains(t, after, "book-050")
	assert.NotContains(t, after, "book-000")
}

func TestUsage_FreeTier(t *testing.T) {
	usage := Usage(booksCreatedMinutesApart(48), false)

	assert.Equal(t, 48, usage.Eligible)
	assert.Equal(t, FreeTierLimit, usage.Limit)
	assert.False(t, usage.Unlimited)
	assert.True(t, usage.CanAdd)
}

func TestUsage_FreeTierFull(t *testing.T) {
	usage := Usage(booksCreatedMinutesApart(50), false)

	assert.Equal(t, 50, usage.Eligible)
	assert.False(t, usage.CanAdd)
}

func TestUsage_Premium(t *testing.T) {
	usage := Usage(booksCreatedMinutesApart(120), true)

	assert.Equal(t, 120, usage.Eligible)
	assert.True(t, usage.Unlimited)
	assert.True(t, usage.CanAdd)
	assert.Zero(t, usage.Limit)
}
