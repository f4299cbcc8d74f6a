package sync

import (
	"testing"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/stretchr/testify/assert"
)

func bookUpdatedAt(ts time.Time) *domain.Book {
	return &domain.Book{
		Syncable: domain.Syncable{
			ID:        "book-1",
			CreatedAt: ts.Add(-time.Hour),
			UpdatedAt: ts,
		},
		Title: "Dune",
	}
}

func TestResolveConflict_RemoteNewerWins(t *testing.T) {
	local := bookUpdatedAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	remote := bookUpdatedAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, WinnerRemote, ResolveConflict(local, remote))
}

func TestResolveConflict_LocalNewerWins(t *testing.T) {
	local := bookUpdatedAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	remote := bookUpdatedAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, WinnerLocal, ResolveConflict(local, remote))
}

func TestResolveConflict_TieGoesLocal(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, WinnerLocal, ResolveConflict(bookUpdatedAt(ts), bookUpdatedAt(ts)))
}

// A malformed remote timestamp decodes to the zero time, which must always
// lose to any real local edit.
func TestResolveConflict_ZeroRemoteTimestampLoses(t *testing.T) {
	local := bookUpdatedAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	remote := bookUpdatedAt(time.Time{})

	assert.Equal(t, WinnerLocal, ResolveConflict(local, remote))
}
