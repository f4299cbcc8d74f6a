package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search collection",
		Description: "Full-text search over the collection with tag, status, and year filters",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the collection.
type SearchInput struct {
	Query     string `query:"q" validate:"omitempty,max=200" doc:"Free-text query. Omit to browse with filters only."`
	Tags      string `query:"tags" validate:"omitempty,max=200" doc:"Comma-separated tags to filter by (OR across values)"`
	Status    string `query:"status" validate:"omitempty,oneof=wishlist to_read reading finished abandoned" doc:"Reading status filter"`
	MinYear   int    `query:"min_year" validate:"omitempty,gte=0" doc:"Earliest publication year"`
	MaxYear   int    `query:"max_year" validate:"omitempty,gte=0" doc:"Latest publication year"`
	Limit     int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	SortBy    string `query:"sort" validate:"omitempty,oneof=relevance title recent" doc:"Sort order (default relevance)"`
	SortOrder string `query:"order" validate:"omitempty,oneof=asc desc" doc:"Sort direction"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID         string            `json:"id" doc:"Book ID"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Title      string            `json:"title" doc:"Title"`
	Subtitle   string            `json:"subtitle,omitempty" doc:"Subtitle"`
	Authors    string            `json:"authors,omitempty" doc:"Authors"`
	Publisher  string            `json:"publisher,omitempty" doc:"Publisher"`
	Status     string            `json:"status,omitempty" doc:"Reading status"`
	Tags       []string          `json:"tags,omitempty" doc:"Tags"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.Status = input.Status
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.Offset = input.Offset
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}
	if input.SortOrder != "" {
		params.SortOrder = input.SortOrder
	}

	if input.Tags != "" {
		for tag := range strings.SplitSeq(input.Tags, ",") {
			tag = strings.TrimSpace(strings.ToLower(tag))
			if tag != "" {
				params.Tags = append(params.Tags, tag)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}
	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:         hit.ID,
			Score:      hit.Score,
			Title:      hit.Title,
			Subtitle:   hit.Subtitle,
			Authors:    hit.Authors,
			Publisher:  hit.Publisher,
			Status:     hit.Status,
			Tags:       hit.Tags,
			Highlights: hit.Highlights,
		})
	}

	return &SearchOutput{Body: resp}, nil
}
