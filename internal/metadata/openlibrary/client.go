package openlibrary

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	defaultLimit   = 10

	searchFields = "key,title,subtitle,author_name,publisher,first_publish_year,isbn,cover_i,number_of_pages_median"
)

// ErrNoMatch is returned when a lookup finds no book.
var ErrNoMatch = errors.New("openlibrary: no matching book")

// Client provides access to the Open Library search API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates an Open Library client. Open Library asks clients to
// stay under 100 requests per 5 minutes; one request every 4 seconds with a
// small burst keeps well inside that.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(4*time.Second), 5),
		logger:      logger,
	}
}

// Close releases resources. Currently a no-op, kept for interface symmetry
// with the other network clients.
func (c *Client) Close() {
}

// SearchBooks searches Open Library for works matching the query.
func (c *Client) SearchBooks(ctx context.Context, query string) ([]BookResult, error) {
	params := url.Values{}
	params.Set("q", query)
	return c.search(ctx, params, "")
}

// LookupISBN finds the work for a specific ISBN, typically from a barcode
// scan. Returns ErrNoMatch when Open Library doesn't know the ISBN.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*BookResult, error) {
	params := url.Values{}
	params.Set("isbn", isbn)

	results, err := c.search(ctx, params, isbn)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return &results[0], nil
}

func (c *Client) search(ctx context.Context, params url.Values, preferredISBN string) ([]BookResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params.Set("limit", fmt.Sprintf("%d", defaultLimit))
	params.Set("fields", searchFields)
	searchURL := c.baseURL + "/search.json?" + params.Encode()

	c.logger.Debug("searching Open Library", "url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.UnmarshalRead(resp.Body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	c.logger.Debug("Open Library search results", "count", searchResp.NumFound)

	results := make([]BookResult, 0, len(searchResp.Docs))
	for i := range searchResp.Docs {
		results = append(results, searchResp.Docs[i].toResult(preferredISBN))
	}
	return results, nil
}
