package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
)

// FakeClient is an in-memory stand-in for the cloud record store, used by
// sync engine tests. It mimics the backend's semantics: idempotent upserts
// keyed by ID, identity-scoped storage, and configurable failures.
type FakeClient struct {
	mu      sync.Mutex
	records map[string]*domain.Book

	// Error injection. When set, the corresponding operation fails.
	FetchErr  error
	UpsertErr error
	DeleteErr error

	// Call counters for asserting that guards short-circuit before the network.
	FetchCalls  int
	UpsertCalls int
	DeleteCalls int
}

// NewFakeClient creates an empty fake remote store.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		records: make(map[string]*domain.Book),
	}
}

// Seed inserts records directly, bypassing counters. Use to set up remote state.
func (f *FakeClient) Seed(books ...*domain.Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, book := range books {
		clone := *book
		f.records[book.ID] = &clone
	}
}

// Get returns the stored copy of a record, or nil.
func (f *FakeClient) Get(id string) *domain.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.records[id]
	if !ok {
		return nil
	}
	clone := *book
	return &clone
}

// Len returns the number of stored records.
func (f *FakeClient) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// FetchAll implements the remote store contract.
func (f *FakeClient) FetchAll(ctx context.Context) ([]*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchCalls++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}

	books := make([]*domain.Book, 0, len(f.records))
	for _, book := range f.records {
		clone := *book
		clone.SyncStatus = domain.SyncStatusSynced
		books = append(books, &clone)
	}
	// Newest creation first, like the backend.
	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
	return books, nil
}

// FetchUpdatedSince implements the remote store contract.
func (f *FakeClient) FetchUpdatedSince(ctx context.Context, ts time.Time) ([]*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchCalls++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}

	var books []*domain.Book
	for _, book := range f.records {
		if !book.UpdatedAt.Before(ts) {
			clone := *book
			clone.SyncStatus = domain.SyncStatusSynced
			books = append(books, &clone)
		}
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].UpdatedAt.Before(books[j].UpdatedAt)
	})
	return books, nil
}

// UpsertMany implements the remote store contract.
func (f *FakeClient) UpsertMany(ctx context.Context, books []*domain.Book, ownerUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.UpsertCalls++
	if f.UpsertErr != nil {
		return f.UpsertErr
	}

	for _, book := range books {
		clone := *book
		clone.OwnerUserID = ownerUserID
		f.records[book.ID] = &clone
	}
	return nil
}

// DeleteOne implements the remote store contract.
func (f *FakeClient) DeleteOne(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	delete(f.records, id)
	return nil
}

// DeleteAll implements the remote store contract.
func (f *FakeClient) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.records = make(map[string]*domain.Book)
	return nil
}
