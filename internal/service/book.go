// Package service contains the application services that sit between the
// HTTP layer and the record store.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/errors"
	"github.com/shelfmark/shelfmark/internal/id"
	"github.com/shelfmark/shelfmark/internal/store"
	"github.com/shelfmark/shelfmark/internal/sync"
)

// RemoteDeleter removes a record from the remote store alongside the local
// delete. Implemented by the sync orchestrator.
type RemoteDeleter interface {
	DeleteWithSync(ctx context.Context, id string) error
}

// BookService orchestrates collection operations: CRUD on books, tagging,
// and marking records dirty so the sync engine picks them up.
type BookService struct {
	store   *store.Store
	session *sync.SessionController
	deleter RemoteDeleter
	logger  *slog.Logger
}

// NewBookService creates a book service.
func NewBookService(st *store.Store, session *sync.SessionController, deleter RemoteDeleter, logger *slog.Logger) *BookService {
	return &BookService{
		store:   st,
		session: session,
		deleter: deleter,
		logger:  logger,
	}
}

// CreateBookInput carries the fields for a new book. Title is the only
// required field; everything else is optional cataloging detail.
type CreateBookInput struct {
	Title         string
	Subtitle      string
	Authors       []string
	Publisher     string
	PublishedDate string
	ISBN          string
	CoverURL      string
	PageCount     int
	Price         float64
	PurchasedAt   *time.Time
	Tags          []string
	Notes         string
	Status        domain.ReadingStatus
	Priority      domain.Priority
	Condition     domain.Condition
}

// UpdateBookInput carries a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title         *string
	Subtitle      *string
	Authors       []string
	Publisher     *string
	PublishedDate *string
	ISBN          *string
	CoverURL      *string
	PageCount     *int
	Price         *float64
	PurchasedAt   *time.Time
	Tags          []string
	Notes         *string
	Status        *domain.ReadingStatus
	Priority      *domain.Priority
	Condition     *domain.Condition
}

// writeStatus is the sync status stamped on locally written records: dirty
// when a session is active so the next pass uploads them, unset when the
// app is running unauthenticated. Local-only is reserved for records parked
// by the capacity allocator; the initial sync after sign-in picks up unset
// records on its own.
func (s *BookService) writeStatus() domain.SyncStatus {
	if s.session.HasSession() {
		return domain.SyncStatusPending
	}
	return domain.SyncStatusNone
}

// CreateBook registers a new book in the collection.
func (s *BookService) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.Validation("title is required")
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, errors.Validationf("invalid reading status %q", input.Status)
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, errors.Validationf("invalid priority %q", input.Priority)
	}
	if input.Condition != "" && !input.Condition.Valid() {
		return nil, errors.Validationf("invalid condition %q", input.Condition)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate book id")
	}

	book := &domain.Book{
		Title:         strings.TrimSpace(input.Title),
		Subtitle:      input.Subtitle,
		Authors:       input.Authors,
		Publisher:     input.Publisher,
		PublishedDate: input.PublishedDate,
		ISBN:          input.ISBN,
		CoverURL:      input.CoverURL,
		PageCount:     input.PageCount,
		Price:         input.Price,
		PurchasedAt:   input.PurchasedAt,
		Tags:          input.Tags,
		Notes:         input.Notes,
		Status:        input.Status,
		Priority:      input.Priority,
		Condition:     input.Condition,
	}
	if book.Status == "" {
		book.Status = domain.ReadingStatusToRead
	}
	book.ID = bookID
	book.InitTimestamps()
	book.SyncStatus = s.writeStatus()

	if err := s.store.UpsertBook(ctx, book); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "store book")
	}

	s.refreshSnapshot(ctx)
	s.logger.Info("book created", "id", book.ID, "title", book.Title, "sync_status", string(book.SyncStatus))

	return book, nil
}

// GetBook returns a single book.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, errors.NotFoundf("book %s not found", bookID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get book")
	}
	return book, nil
}

// ListBooks returns the whole collection sorted by title.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.session.Books(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list books")
	}

	sorted := make([]*domain.Book, len(books))
	copy(sorted, books)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})
	return sorted, nil
}

// UpdateBook applies a partial update and marks the record dirty.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, input UpdateBookInput) (*domain.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, errors.Validation("title cannot be empty")
		}
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Subtitle != nil {
		book.Subtitle = *input.Subtitle
	}
	if input.Authors != nil {
		book.Authors = input.Authors
	}
	if input.Publisher != nil {
		book.Publisher = *input.Publisher
	}
	if input.PublishedDate != nil {
		book.PublishedDate = *input.PublishedDate
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.CoverURL != nil {
		book.CoverURL = *input.CoverURL
	}
	if input.PageCount != nil {
		book.PageCount = *input.PageCount
	}
	if input.Price != nil {
		book.Price = *input.Price
	}
	if input.PurchasedAt != nil {
		book.PurchasedAt = input.PurchasedAt
	}
	if input.Tags != nil {
		book.Tags = input.Tags
	}
	if input.Notes != nil {
		book.Notes = *input.Notes
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errors.Validationf("invalid reading status %q", *input.Status)
		}
		book.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, errors.Validationf("invalid priority %q", *input.Priority)
		}
		book.Priority = *input.Priority
	}
	if input.Condition != nil {
		if !input.Condition.Valid() {
			return nil, errors.Validationf("invalid condition %q", *input.Condition)
		}
		book.Condition = *input.Condition
	}

	book.Touch()
	book.SyncStatus = s.writeStatus()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update book")
	}

	s.refreshSnapshot(ctx)
	s.logger.Info("book updated", "id", book.ID, "title", book.Title)

	return book, nil
}

// DeleteBook removes a book. With an active session the remote copy is
// deleted too (best-effort); without one the delete is purely local.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	var err error
	if s.session.HasSession() {
		err = s.deleter.DeleteWithSync(ctx, bookID)
	} else {
		err = s.store.DeleteBook(ctx, bookID)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete book")
	}

	s.refreshSnapshot(ctx)
	s.logger.Info("book deleted", "id", bookID)
	return nil
}

// AddTag adds a tag to a book. Adding a tag the book already carries is a
// no-op and does not mark the record dirty.
func (s *BookService) AddTag(ctx context.Context, bookID, tag string) (*domain.Book, error) {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "" {
		return nil, errors.Validation("tag is empty")
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !book.AddTag(tag) {
		return book, nil
	}

	book.Touch()
	book.SyncStatus = s.writeStatus()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update book tags")
	}

	s.refreshSnapshot(ctx)
	return book, nil
}

// RemoveTag removes a tag from a book.
func (s *BookService) RemoveTag(ctx context.Context, bookID, tag string) (*domain.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !book.RemoveTag(strings.TrimSpace(strings.ToLower(tag))) {
		return book, nil
	}

	book.Touch()
	book.SyncStatus = s.writeStatus()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update book tags")
	}

	s.refreshSnapshot(ctx)
	return book, nil
}

// SetReadingStatus moves a book through the reading lifecycle.
func (s *BookService) SetReadingStatus(ctx context.Context, bookID string, status domain.ReadingStatus) (*domain.Book, error) {
	if !status.Valid() {
		return nil, errors.Validationf("invalid reading status %q", status)
	}
	return s.UpdateBook(ctx, bookID, UpdateBookInput{Status: &status})
}

func (s *BookService) refreshSnapshot(ctx context.Context) {
	if err := s.session.RefreshBooks(ctx); err != nil {
		s.logger.Warn("failed to refresh collection snapshot", "error", err)
	}
}
