package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/remote"
	"github.com/shelfmark/shelfmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// syncFixture bundles the pieces every orchestrator test needs.
type syncFixture struct {
	store *store.Store
	fake  *remote.FakeClient
	bus   *EventBus
	orch  *Orchestrator
}

func newSyncFixture(t *testing.T, premium bool) *syncFixture {
	t.Helper()
	st := newTestStore(t)
	fake := remote.NewFakeClient()
	bus := NewEventBus()
	return &syncFixture{
		store: st,
		fake:  fake,
		bus:   bus,
		orch:  NewOrchestrator(st, fake, bus, premium, nil),
	}
}

func localBook(id string, updated time.Time, status domain.SyncStatus) *domain.Book {
	return &domain.Book{
		Syncable: domain.Syncable{
			ID:         id,
			CreatedAt:  updated.Add(-time.Hour),
			UpdatedAt:  updated,
			SyncStatus: status,
		},
		Title: "Book " + id,
	}
}

func TestFullSync_UploadsLocalRecords(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", now, domain.SyncStatusPending)))
	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-2", now, domain.SyncStatusLocalOnly)))

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 0, result.Downloaded)
	assert.Equal(t, 0, result.Conflicts)
	assert.Equal(t, 2, f.fake.Len())
	assert.Equal(t, StateIdle, f.orch.State())

	got, err := f.store.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSynced, got.SyncStatus)
	assert.Equal(t, "user-1", got.OwnerUserID)
}

func TestFullSync_DownloadsRemoteRecords(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC()

	f.fake.Seed(localBook("book-1", now, ""), localBook("book-2", now, ""))

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Downloaded)
	assert.Equal(t, 0, result.Uploaded)

	books, err := f.store.ListAllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, b := range books {
		assert.Equal(t, domain.SyncStatusSynced, b.SyncStatus)
	}
}

func TestFullSync_RemoteNewerOverwritesLocal(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	local := localBook("book-1", older, domain.SyncStatusPending)
	local.Notes = "stale local edit"
	require.NoError(t, f.store.UpsertBook(ctx, local))

	remoteCopy := localBook("book-1", newer, "")
	remoteCopy.Notes = "fresh remote edit"
	f.fake.Seed(remoteCopy)

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 0, result.Uploaded)

	got, err := f.store.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh remote edit", got.Notes)
	assert.True(t, got.UpdatedAt.Equal(newer))
}

func TestFullSync_LocalNewerUploadsOverRemote(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	local := localBook("book-1", newer, domain.SyncStatusPending)
	local.Notes = "fresh local edit"
	require.NoError(t, f.store.UpsertBook(ctx, local))

	remoteCopy := localBook("book-1", older, "")
	remoteCopy.Notes = "stale remote copy"
	f.fake.Seed(remoteCopy)

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 0, result.Downloaded)
	assert.Equal(t, "fresh local edit", f.fake.Get("book-1").Notes)
}

// A second full sync right after a clean one must not move anything.
func TestFullSync_Idempotent(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", now, domain.SyncStatusPending)))
	f.fake.Seed(localBook("book-2", now.Add(time.Minute), ""))

	first, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Equal(t, 1, first.Uploaded)
	require.Equal(t, 1, first.Downloaded)

	second, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Uploaded)
	assert.Equal(t, 0, second.Downloaded)
	assert.Equal(t, 0, second.Conflicts)
}

func TestFullSync_FetchFailureStillUploads(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", time.Now().UTC(), domain.SyncStatusPending)))
	f.fake.FetchErr = remote.ErrServer

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, f.fake.UpsertCalls)
	assert.Equal(t, 1, f.fake.Len())
	assert.Equal(t, StateError, f.orch.State())
}

func TestFullSync_UploadFailureMarksBatchError(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", now, domain.SyncStatusPending)))
	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-2", now, domain.SyncStatusPending)))
	f.fake.UpsertErr = remote.ErrServer

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Uploaded)
	assert.Equal(t, StateError, f.orch.State())

	for _, id := range []string{"book-1", "book-2"} {
		got, gerr := f.store.GetBook(ctx, id)
		require.NoError(t, gerr)
		assert.Equal(t, domain.SyncStatusError, got.SyncStatus)
	}
}

func TestFullSync_OverflowStaysLocalOnly(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	books := booksCreatedMinutesApart(FreeTierLimit + 5)
	for _, b := range books {
		b.SyncStatus = domain.SyncStatusPending
		require.NoError(t, f.store.UpsertBook(ctx, b))
	}

	result, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, FreeTierLimit, result.Uploaded)
	assert.Equal(t, FreeTierLimit, f.fake.Len())

	// The five newest registrations missed the cut but were not lost.
	for i := FreeTierLimit; i < FreeTierLimit+5; i++ {
		got, gerr := f.store.GetBook(ctx, fmt.Sprintf("book-%03d", i))
		require.NoError(t, gerr)
		assert.Equal(t, domain.SyncStatusLocalOnly, got.SyncStatus)
	}
}

func TestFullSync_OfflineShortCircuits(t *testing.T) {
	f := newSyncFixture(t, false)
	f.bus.PublishNetworkChange(false)

	result, err := f.orch.PerformFullSync(context.Background(), "user-1")

	assert.ErrorIs(t, err, ErrOffline)
	assert.Nil(t, result)
	assert.Equal(t, StateOffline, f.orch.State())
	assert.Equal(t, 0, f.fake.FetchCalls)
}

func TestIncrementalSync_NoDirtyMeansNoNetwork(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", time.Now().UTC(), domain.SyncStatusSynced)))

	result, err := f.orch.PerformIncrementalSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Uploaded)
	assert.Equal(t, 0, f.fake.FetchCalls)
	assert.Equal(t, 0, f.fake.UpsertCalls)
}

func TestIncrementalSync_PushesOnlyDirtyRecords(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-1", now, domain.SyncStatusSynced)))
	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-2", now, domain.SyncStatusPending)))
	require.NoError(t, f.store.UpsertBook(ctx, localBook("book-3", now, domain.SyncStatusError)))

	result, err := f.orch.PerformIncrementalSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 2, f.fake.Len())
	assert.Nil(t, f.fake.Get("book-1"))

	got, gerr := f.store.GetBook(ctx, "book-3")
	require.NoError(t, gerr)
	assert.Equal(t, domain.SyncStatusSynced, got.SyncStatus)
}

// Records parked over the free-tier cap must stay local through every
// upload path: a full sync flips them to local_only, which keeps them in
// the dirty set, and the next incremental pass must not push them.
func TestIncrementalSync_OverflowNeverUploads(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	books := booksCreatedMinutesApart(FreeTierLimit + 5)
	for _, b := range books {
		b.SyncStatus = domain.SyncStatusPending
		require.NoError(t, f.store.UpsertBook(ctx, b))
	}

	full, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, FreeTierLimit, full.Uploaded)

	incr, err := f.orch.PerformIncrementalSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, incr.Success)
	assert.Equal(t, 0, incr.Uploaded)
	assert.LessOrEqual(t, f.fake.Len(), FreeTierLimit)

	for i := FreeTierLimit; i < FreeTierLimit+5; i++ {
		got, gerr := f.store.GetBook(ctx, fmt.Sprintf("book-%03d", i))
		require.NoError(t, gerr)
		assert.Equal(t, domain.SyncStatusLocalOnly, got.SyncStatus)
	}
}

func TestIncrementalSync_CapsFreshOverflow(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	books := booksCreatedMinutesApart(FreeTierLimit + 5)
	for _, b := range books {
		b.SyncStatus = domain.SyncStatusPending
		require.NoError(t, f.store.UpsertBook(ctx, b))
	}

	result, err := f.orch.PerformIncrementalSync(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, FreeTierLimit, result.Uploaded)
	assert.Equal(t, FreeTierLimit, f.fake.Len())
}

// Deleting an admitted record frees a slot; the next incremental pass
// re-admits the oldest parked record without waiting for a full sync.
func TestIncrementalSync_FreedCapacityReadmitsLocalOnly(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	books := booksCreatedMinutesApart(FreeTierLimit + 1)
	for _, b := range books {
		b.SyncStatus = domain.SyncStatusPending
		require.NoError(t, f.store.UpsertBook(ctx, b))
	}

	_, err := f.orch.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	parked, err := f.store.GetBook(ctx, fmt.Sprintf("book-%03d", FreeTierLimit))
	require.NoError(t, err)
	require.Equal(t, domain.SyncStatusLocalOnly, parked.SyncStatus)

	require.NoError(t, f.store.DeleteBook(ctx, "book-000"))

	result, err := f.orch.PerformIncrementalSync(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Uploaded)
	got, err := f.store.GetBook(ctx, parked.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSynced, got.SyncStatus)
}

func TestDeleteWithSync_RemovesBothSides(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()
	now := time.Now().UTC()

	book := localBook("book-1", now, domain.SyncStatusSynced)
	require.NoError(t, f.store.UpsertBook(ctx, book))
	f.fake.Seed(book)

	require.NoError(t, f.orch.DeleteWithSync(ctx, "book-1"))

	_, err := f.store.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	assert.Nil(t, f.fake.Get("book-1"))
}

func TestDeleteWithSync_RemoteFailureIsSwallowed(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	book := localBook("book-1", time.Now().UTC(), domain.SyncStatusSynced)
	require.NoError(t, f.store.UpsertBook(ctx, book))
	f.fake.Seed(book)
	f.fake.DeleteErr = remote.ErrServer

	require.NoError(t, f.orch.DeleteWithSync(ctx, "book-1"))

	// Local delete is authoritative; the remote ghost waits for a later pass.
	_, err := f.store.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	assert.Equal(t, 1, f.fake.Len())
}

func TestDeleteWithSync_OfflineSkipsRemoteCall(t *testing.T) {
	f := newSyncFixture(t, false)
	ctx := context.Background()

	book := localBook("book-1", time.Now().UTC(), domain.SyncStatusSynced)
	require.NoError(t, f.store.UpsertBook(ctx, book))
	f.bus.PublishNetworkChange(false)

	require.NoError(t, f.orch.DeleteWithSync(ctx, "book-1"))

	_, err := f.store.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	assert.Equal(t, 0, f.fake.DeleteCalls)
}

func TestDeleteWithSync_MissingRecordIsNoop(t *testing.T) {
	f := newSyncFixture(t, false)

	require.NoError(t, f.orch.DeleteWithSync(context.Background(), "book-missing"))
	assert.Equal(t, 0, f.fake.DeleteCalls)
}

// Two devices sharing one account converge through the remote store: an edit
// made on one shows up on the other after each runs a full sync.
func TestFullSync_TwoDeviceConvergence(t *testing.T) {
	ctx := context.Background()
	fake := remote.NewFakeClient()
	bus := NewEventBus()

	storeA := newTestStore(t)
	storeB := newTestStore(t)
	orchA := NewOrchestrator(storeA, fake, bus, false, nil)
	orchB := NewOrchestrator(storeB, fake, bus, false, nil)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	book := localBook("book-1", created, domain.SyncStatusPending)
	book.Notes = "written on device A"
	require.NoError(t, storeA.UpsertBook(ctx, book))

	_, err := orchA.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	_, err = orchB.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	onB, err := storeB.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "written on device A", onB.Notes)

	onB.Notes = "edited on device B"
	onB.UpdatedAt = created.Add(2 * time.Hour)
	onB.SyncStatus = domain.SyncStatusPending
	require.NoError(t, storeB.UpdateBook(ctx, onB))

	_, err = orchB.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)

	resultA, err := orchA.PerformFullSync(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, resultA.Downloaded)
	assert.Equal(t, 1, resultA.Conflicts)

	onA, err := storeA.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "edited on device B", onA.Notes)
}
