package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/errors"
	"github.com/shelfmark/shelfmark/internal/remote"
	"github.com/shelfmark/shelfmark/internal/store"
	"github.com/shelfmark/shelfmark/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store *store.Store
	fake  *remote.FakeClient
	bus   *sync.EventBus
	svc   *BookService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fake := remote.NewFakeClient()
	bus := sync.NewEventBus()
	logger := slog.New(slog.DiscardHandler)
	orch := sync.NewOrchestrator(st, fake, bus, false, logger)
	session := sync.NewSessionController(orch, st, bus, false, 0, logger)
	t.Cleanup(session.Close)

	return &serviceFixture{
		store: st,
		fake:  fake,
		bus:   bus,
		svc:   NewBookService(st, session, orch, logger),
	}
}

func TestCreateBook_WithoutSessionLeavesSyncUnset(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	book, err := f.svc.CreateBook(ctx, CreateBookInput{
		Title:   "The Fifth Season",
		Authors: []string{"N.K. Jemisin"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, domain.SyncStatusNone, book.SyncStatus)
	assert.Equal(t, domain.ReadingStatusToRead, book.Status)
	assert.False(t, book.CreatedAt.IsZero())
	assert.True(t, book.CreatedAt.Equal(book.UpdatedAt))

	// Unset records are not dirty; the initial sync after sign-in picks
	// them up from the full collection scan instead.
	dirty, err := f.store.GetBooksNeedingSync(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestCreateBook_WithSessionIsPending(t *testing.T) {
	f := newServiceFixture(t)
	f.bus.PublishAuthChange("user-1")

	book, err := f.svc.CreateBook(context.Background(), CreateBookInput{Title: "Piranesi"})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusPending, book.SyncStatus)
}

func TestCreateBook_RequiresTitle(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateBook(context.Background(), CreateBookInput{Title: "   "})

	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCreateBook_RejectsUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateBook(context.Background(), CreateBookInput{
		Title:  "Piranesi",
		Status: domain.ReadingStatus("shelved"),
	})

	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestUpdateBook_PartialUpdateMarksDirty(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.bus.PublishAuthChange("user-1")

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Piranesi"})
	require.NoError(t, err)

	// Simulate the record having been synced in the meantime.
	require.NoError(t, f.store.SetSyncStatus(ctx, book.ID, domain.SyncStatusSynced, "user-1"))

	notes := "reread in winter"
	updated, err := f.svc.UpdateBook(ctx, book.ID, UpdateBookInput{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, "reread in winter", updated.Notes)
	assert.Equal(t, "Piranesi", updated.Title)
	assert.Equal(t, domain.SyncStatusPending, updated.SyncStatus)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestUpdateBook_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	title := "Whatever"

	_, err := f.svc.UpdateBook(context.Background(), "book-missing", UpdateBookInput{Title: &title})

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListBooks_SortedByTitle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, title := range []string{"Zeno's Conscience", "Annihilation", "Middlemarch"} {
		_, err := f.svc.CreateBook(ctx, CreateBookInput{Title: title})
		require.NoError(t, err)
	}

	books, err := f.svc.ListBooks(ctx)
	require.NoError(t, err)

	require.Len(t, books, 3)
	assert.Equal(t, "Annihilation", books[0].Title)
	assert.Equal(t, "Middlemarch", books[1].Title)
	assert.Equal(t, "Zeno's Conscience", books[2].Title)
}

func TestDeleteBook_WithSessionRemovesRemote(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.bus.PublishAuthChange("user-1")

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Piranesi"})
	require.NoError(t, err)
	f.fake.Seed(book)

	require.NoError(t, f.svc.DeleteBook(ctx, book.ID))

	_, err = f.svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Nil(t, f.fake.Get(book.ID))
}

func TestDeleteBook_WithoutSessionStaysLocal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Piranesi"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBook(ctx, book.ID))

	_, err = f.svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 0, f.fake.DeleteCalls)
}

func TestAddTag_NormalizesAndDeduplicates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Dune"})
	require.NoError(t, err)

	book, err = f.svc.AddTag(ctx, book.ID, "  SF ")
	require.NoError(t, err)
	assert.Equal(t, []string{"sf"}, book.Tags)

	book, err = f.svc.AddTag(ctx, book.ID, "sf")
	require.NoError(t, err)
	assert.Equal(t, []string{"sf"}, book.Tags)
}

func TestRemoveTag(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Dune", Tags: []string{"sf", "classic"}})
	require.NoError(t, err)

	book, err = f.svc.RemoveTag(ctx, book.ID, "sf")
	require.NoError(t, err)
	assert.Equal(t, []string{"classic"}, book.Tags)
}

func TestSetReadingStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	book, err := f.svc.CreateBook(ctx, CreateBookInput{Title: "Dune"})
	require.NoError(t, err)

	book, err = f.svc.SetReadingStatus(ctx, book.ID, domain.ReadingStatusReading)
	require.NoError(t, err)
	assert.Equal(t, domain.ReadingStatusReading, book.Status)

	_, err = f.svc.SetReadingStatus(ctx, book.ID, domain.ReadingStatus("paused"))
	assert.ErrorIs(t, err, errors.ErrValidation)
}
