package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelfmark/shelfmark/internal/errors"
	"github.com/shelfmark/shelfmark/internal/metadata/openlibrary"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchMetadata",
		Method:      http.MethodGet,
		Path:        "/api/v1/metadata/search",
		Summary:     "Search book metadata",
		Description: "Searches Open Library to prefill a new entry",
		Tags:        []string{"Metadata"},
	}, s.handleMetadataSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupISBN",
		Method:      http.MethodGet,
		Path:        "/api/v1/metadata/isbn/{isbn}",
		Summary:     "Look up ISBN",
		Description: "Finds the book for a scanned ISBN",
		Tags:        []string{"Metadata"},
	}, s.handleISBNLookup)
}

// === DTOs ===

// MetadataSearchInput contains parameters for a metadata search.
type MetadataSearchInput struct {
	Query string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
}

// MetadataResultResponse is one candidate match from the metadata provider.
type MetadataResultResponse struct {
	Title         string   `json:"title" doc:"Title"`
	Subtitle      string   `json:"subtitle,omitempty" doc:"Subtitle"`
	Authors       []string `json:"authors,omitempty" doc:"Authors"`
	Publisher     string   `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string   `json:"published_date,omitempty" doc:"Publication date"`
	ISBN          string   `json:"isbn,omitempty" doc:"ISBN"`
	CoverURL      string   `json:"cover_url,omitempty" doc:"Cover image URL"`
	PageCount     int      `json:"page_count,omitempty" doc:"Page count"`
}

// MetadataSearchResponse contains metadata search results.
type MetadataSearchResponse struct {
	Results []MetadataResultResponse `json:"results" doc:"Candidate matches"`
}

// MetadataSearchOutput wraps the metadata search response for Huma.
type MetadataSearchOutput struct {
	Body MetadataSearchResponse
}

// ISBNLookupInput contains parameters for an ISBN lookup.
type ISBNLookupInput struct {
	ISBN string `path:"isbn" doc:"ISBN-10 or ISBN-13"`
}

// MetadataResultOutput wraps a single metadata result for Huma.
type MetadataResultOutput struct {
	Body MetadataResultResponse
}

func toMetadataResponse(r *openlibrary.BookResult) MetadataResultResponse {
	return MetadataResultResponse{
		Title:         r.Title,
		Subtitle:      r.Subtitle,
		Authors:       r.Authors,
		Publisher:     r.Publisher,
		PublishedDate: r.PublishedDate,
		ISBN:          r.ISBN,
		CoverURL:      r.CoverURL,
		PageCount:     r.PageCount,
	}
}

// === Handlers ===

func (s *Server) handleMetadataSearch(ctx context.Context, input *MetadataSearchInput) (*MetadataSearchOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	results, err := s.services.Metadata.SearchBooks(ctx, input.Query)
	if err != nil {
		s.logger.Error("metadata search failed", "error", err, "query", input.Query)
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "metadata provider unavailable")
	}

	resp := make([]MetadataResultResponse, len(results))
	for i := range results {
		resp[i] = toMetadataResponse(&results[i])
	}

	return &MetadataSearchOutput{Body: MetadataSearchResponse{Results: resp}}, nil
}

func (s *Server) handleISBNLookup(ctx context.Context, input *ISBNLookupInput) (*MetadataResultOutput, error) {
	result, err := s.services.Metadata.LookupISBN(ctx, input.ISBN)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNoMatch) {
			return nil, domainerrors.NotFoundf("no book found for ISBN %s", input.ISBN)
		}
		s.logger.Error("ISBN lookup failed", "error", err, "isbn", input.ISBN)
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "metadata provider unavailable")
	}

	return &MetadataResultOutput{Body: toMetadataResponse(result)}, nil
}
