package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the whole collection sorted by title",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Adds a book to the collection",
		Tags:        []string{"Books"},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Applies a partial update to a book",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book locally and, with an active session, remotely",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/tags",
		Summary:     "Add tag",
		Description: "Adds a tag to a book",
		Tags:        []string{"Books"},
	}, s.handleAddBookTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/tags/{tag}",
		Summary:     "Remove tag",
		Description: "Removes a tag from a book",
		Tags:        []string{"Books"},
	}, s.handleRemoveBookTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "setReadingStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/status",
		Summary:     "Set reading status",
		Description: "Moves a book through the reading lifecycle",
		Tags:        []string{"Books"},
	}, s.handleSetReadingStatus)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID            string     `json:"id" doc:"Book ID"`
	Title         string     `json:"title" doc:"Title"`
	Subtitle      string     `json:"subtitle,omitempty" doc:"Subtitle"`
	Authors       []string   `json:"authors,omitempty" doc:"Authors"`
	Publisher     string     `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string     `json:"published_date,omitempty" doc:"Publication date"`
	ISBN          string     `json:"isbn,omitempty" doc:"ISBN"`
	CoverURL      string     `json:"cover_url,omitempty" doc:"Cover image URL"`
	PageCount     int        `json:"page_count,omitempty" doc:"Page count"`
	Price         float64    `json:"price,omitempty" doc:"Purchase price"`
	PurchasedAt   *time.Time `json:"purchased_at,omitempty" doc:"Purchase time"`
	Tags          []string   `json:"tags,omitempty" doc:"Tags"`
	Notes         string     `json:"notes,omitempty" doc:"Free-form notes"`
	Status        string     `json:"status" doc:"Reading status"`
	Priority      string     `json:"priority,omitempty" doc:"Acquisition priority"`
	Condition     string     `json:"condition,omitempty" doc:"Physical condition"`
	SyncStatus    string     `json:"sync_status,omitempty" doc:"Sync state of this record"`
	CreatedAt     time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time  `json:"updated_at" doc:"Last update time"`
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Subtitle:      b.Subtitle,
		Authors:       b.Authors,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		ISBN:          b.ISBN,
		CoverURL:      b.CoverURL,
		PageCount:     b.PageCount,
		Price:         b.Price,
		PurchasedAt:   b.PurchasedAt,
		Tags:          b.Tags,
		Notes:         b.Notes,
		Status:        string(b.Status),
		Priority:      string(b.Priority),
		Condition:     string(b.Condition),
		SyncStatus:    string(b.SyncStatus),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// ListBooksResponse contains the collection listing.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Books sorted by title"`
	Total int            `json:"total" doc:"Number of books"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=500" doc:"Title"`
	Subtitle      string     `json:"subtitle,omitempty" validate:"omitempty,max=500" doc:"Subtitle"`
	Authors       []string   `json:"authors,omitempty" validate:"omitempty,dive,min=1,max=200" doc:"Authors"`
	Publisher     string     `json:"publisher,omitempty" validate:"omitempty,max=200" doc:"Publisher"`
	PublishedDate string     `json:"published_date,omitempty" validate:"omitempty,max=20" doc:"Publication date"`
	ISBN          string     `json:"isbn,omitempty" validate:"omitempty,max=20" doc:"ISBN"`
	CoverURL      string     `json:"cover_url,omitempty" validate:"omitempty,url,max=1000" doc:"Cover image URL"`
	PageCount     int        `json:"page_count,omitempty" validate:"omitempty,gte=0" doc:"Page count"`
	Price         float64    `json:"price,omitempty" validate:"omitempty,gte=0" doc:"Purchase price"`
	PurchasedAt   *time.Time `json:"purchased_at,omitempty" doc:"Purchase time"`
	Tags          []string   `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50" doc:"Tags"`
	Notes         string     `json:"notes,omitempty" validate:"omitempty,max=10000" doc:"Free-form notes"`
	Status        string     `json:"status,omitempty" validate:"omitempty,oneof=wishlist to_read reading finished abandoned" doc:"Reading status"`
	Priority      string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"Acquisition priority"`
	Condition     string     `json:"condition,omitempty" validate:"omitempty,oneof=new like_new good fair poor" doc:"Physical condition"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is the request body for updating a book. Omitted fields
// are left untouched.
type UpdateBookRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500" doc:"Title"`
	Subtitle      *string    `json:"subtitle,omitempty" validate:"omitempty,max=500" doc:"Subtitle"`
	Authors       []string   `json:"authors,omitempty" validate:"omitempty,dive,min=1,max=200" doc:"Authors"`
	Publisher     *string    `json:"publisher,omitempty" validate:"omitempty,max=200" doc:"Publisher"`
	PublishedDate *string    `json:"published_date,omitempty" validate:"omitempty,max=20" doc:"Publication date"`
	ISBN          *string    `json:"isbn,omitempty" validate:"omitempty,max=20" doc:"ISBN"`
	CoverURL      *string    `json:"cover_url,omitempty" validate:"omitempty,max=1000" doc:"Cover image URL"`
	PageCount     *int       `json:"page_count,omitempty" validate:"omitempty,gte=0" doc:"Page count"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gte=0" doc:"Purchase price"`
	PurchasedAt   *time.Time `json:"purchased_at,omitempty" doc:"Purchase time"`
	Tags          []string   `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50" doc:"Tags"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=10000" doc:"Free-form notes"`
	Status        *string    `json:"status,omitempty" validate:"omitempty,oneof=wishlist to_read reading finished abandoned" doc:"Reading status"`
	Priority      *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"Acquisition priority"`
	Condition     *string    `json:"condition,omitempty" validate:"omitempty,oneof=new like_new good fair poor" doc:"Physical condition"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// MessageResponse contains a simple success message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// AddTagRequest is the request body for tagging a book.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required,min=1,max=50" doc:"Tag to add"`
}

// AddTagInput wraps the add tag request for Huma.
type AddTagInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body AddTagRequest
}

// RemoveTagInput contains parameters for removing a tag.
type RemoveTagInput struct {
	ID  string `path:"id" doc:"Book ID"`
	Tag string `path:"tag" doc:"Tag to remove"`
}

// SetStatusRequest is the request body for setting a reading status.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=wishlist to_read reading finished abandoned" doc:"New reading status"`
}

// SetStatusInput wraps the set status request for Huma.
type SetStatusInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body SetStatusRequest
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = toBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: resp, Total: len(resp)}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, service.CreateBookInput{
		Title:         input.Body.Title,
		Subtitle:      input.Body.Subtitle,
		Authors:       input.Body.Authors,
		Publisher:     input.Body.Publisher,
		PublishedDate: input.Body.PublishedDate,
		ISBN:          input.Body.ISBN,
		CoverURL:      input.Body.CoverURL,
		PageCount:     input.Body.PageCount,
		Price:         input.Body.Price,
		PurchasedAt:   input.Body.PurchasedAt,
		Tags:          input.Body.Tags,
		Notes:         input.Body.Notes,
		Status:        domain.ReadingStatus(input.Body.Status),
		Priority:      domain.Priority(input.Body.Priority),
		Condition:     domain.Condition(input.Body.Condition),
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	update := service.UpdateBookInput{
		Title:         input.Body.Title,
		Subtitle:      input.Body.Subtitle,
		Authors:       input.Body.Authors,
		Publisher:     input.Body.Publisher,
		PublishedDate: input.Body.PublishedDate,
		ISBN:          input.Body.ISBN,
		CoverURL:      input.Body.CoverURL,
		PageCount:     input.Body.PageCount,
		Price:         input.Body.Price,
		PurchasedAt:   input.Body.PurchasedAt,
		Tags:          input.Body.Tags,
		Notes:         input.Body.Notes,
	}
	if input.Body.Status != nil {
		status := domain.ReadingStatus(*input.Body.Status)
		update.Status = &status
	}
	if input.Body.Priority != nil {
		priority := domain.Priority(*input.Body.Priority)
		update.Priority = &priority
	}
	if input.Body.Condition != nil {
		condition := domain.Condition(*input.Body.Condition)
		update.Condition = &condition
	}

	book, err := s.services.Book.UpdateBook(ctx, input.ID, update)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*MessageOutput, error) {
	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleAddBookTag(ctx context.Context, input *AddTagInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Book.AddTag(ctx, input.ID, input.Body.Tag)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleRemoveBookTag(ctx context.Context, input *RemoveTagInput) (*BookOutput, error) {
	book, err := s.services.Book.RemoveTag(ctx, input.ID, input.Tag)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleSetReadingStatus(ctx context.Context, input *SetStatusInput) (*BookOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Book.SetReadingStatus(ctx, input.ID, domain.ReadingStatus(input.Body.Status))
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}
