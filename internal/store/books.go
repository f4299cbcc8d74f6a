package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/shelfmark/shelfmark/internal/domain"
)

var (
	ErrBookNotFound = errors.New("book not found")
)

// Book Operations

// UpsertBook inserts or replaces a book by ID. Idempotent: calling it twice
// with the same record is a no-op the second time.
func (s *Store) UpsertBook(ctx context.Context, book *domain.Book) error {
	if err := s.set(bookKey(book.ID), book); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}

	s.indexAsync(ctx, book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "book upserted",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("sync_status", string(book.SyncStatus)),
		)
	}
	return nil
}

// UpdateBook updates an existing book. Unlike UpsertBook it refuses to
// create a record that isn't already present.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	exists, err := s.exists(bookKey(book.ID))
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return ErrBookNotFound
	}

	if err := s.set(bookKey(book.ID), book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	s.indexAsync(ctx, book)

	if s.logger != nil {
		s.logger.Debug("book updated", "id", book.ID, "title", book.Title)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book domain.Book
	err := s.get(bookKey(id), &book)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// DeleteBook removes a book from the local store. Missing records are not an
// error; deletion is idempotent.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if err := s.delete(bookKey(id)); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if s.searchIndexer != nil {
		indexer := s.searchIndexer
		go func() {
			if err := indexer.DeleteBook(context.WithoutCancel(ctx), id); err != nil && s.logger != nil {
				s.logger.Warn("failed to remove book from search index", "id", id, "error", err)
			}
		}()
	}

	if s.logger != nil {
		s.logger.Debug("book deleted", "id", id)
	}
	return nil
}

// ListAllBooks returns every book in the store (non-paginated). Sync passes
// operate on the full collection, so this is the workhorse read.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book

	prefix := []byte(bookPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var book domain.Book
				if err := json.Unmarshal(val, &book); err != nil {
					return err
				}
				books = append(books, &book)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all books: %w", err)
	}

	return books, nil
}

// GetBooksNeedingSync returns books whose local state the remote side hasn't
// confirmed (sync status pending, error, or local_only).
func (s *Store) GetBooksNeedingSync(ctx context.Context) ([]*domain.Book, error) {
	all, err := s.ListAllBooks(ctx)
	if err != nil {
		return nil, err
	}

	var dirty []*domain.Book
	for _, book := range all {
		if book.NeedsSync() {
			dirty = append(dirty, book)
		}
	}
	return dirty, nil
}

// SetSyncStatus updates a book's sync status in place. An empty ownerUserID
// leaves the current owner untouched.
func (s *Store) SetSyncStatus(ctx context.Context, id string, status domain.SyncStatus, ownerUserID string) error {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}

	book.SyncStatus = status
	if ownerUserID != "" {
		book.OwnerUserID = ownerUserID
	}

	if err := s.set(bookKey(id), book); err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("sync status set", "id", id, "status", string(status))
	}
	return nil
}

// indexAsync pushes a book into the search index without blocking the write path.
func (s *Store) indexAsync(ctx context.Context, book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	indexer := s.searchIndexer
	snapshot := *book
	go func() {
		if err := indexer.IndexBook(context.WithoutCancel(ctx), &snapshot); err != nil && s.logger != nil {
			s.logger.Warn("failed to index book", "id", snapshot.ID, "error", err)
		}
	}()
}
