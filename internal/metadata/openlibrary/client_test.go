package openlibrary

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &Client{
		baseURL:     srv.URL,
		httpClient:  srv.Client(),
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		logger:      slog.New(slog.DiscardHandler),
	}
}

func TestSearchBooks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "left hand of darkness", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.URL.Query().Get("fields"))

		_ = json.MarshalWrite(w, searchResponse{
			NumFound: 1,
			Docs: []searchDoc{{
				Key:                 "/works/OL59807W",
				Title:               "The Left Hand of Darkness",
				AuthorName:          []string{"Ursula K. Le Guin"},
				Publisher:           []string{"Ace Books", "Orbit"},
				FirstPublishYear:    1969,
				ISBN:                []string{"9780441478125"},
				CoverI:              12345,
				NumberOfPagesMedian: 304,
			}},
		})
	})

	results, err := client.SearchBooks(context.Background(), "left hand of darkness")
	require.NoError(t, err)

	require.Len(t, results, 1)
	got := results[0]
	assert.Equal(t, "The Left Hand of Darkness", got.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, got.Authors)
	assert.Equal(t, "Ace Books", got.Publisher)
	assert.Equal(t, "1969", got.PublishedDate)
	assert.Equal(t, "9780441478125", got.ISBN)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/12345-L.jpg", got.CoverURL)
	assert.Equal(t, 304, got.PageCount)
}

func TestLookupISBN_PrefersQueriedISBN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9780441478125", r.URL.Query().Get("isbn"))
		_ = json.MarshalWrite(w, searchResponse{
			NumFound: 1,
			Docs: []searchDoc{{
				Title: "The Left Hand of Darkness",
				ISBN:  []string{"0441478123", "9780441478125"},
			}},
		})
	})

	result, err := client.LookupISBN(context.Background(), "9780441478125")
	require.NoError(t, err)

	assert.Equal(t, "9780441478125", result.ISBN)
}

func TestLookupISBN_NoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.MarshalWrite(w, searchResponse{NumFound: 0})
	})

	_, err := client.LookupISBN(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSearchBooks_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchBooks(context.Background(), "dune")
	assert.Error(t, err)
}

func TestSearchBooks_RateLimiterHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.MarshalWrite(w, searchResponse{})
	})
	client.rateLimiter = rate.NewLimiter(rate.Every(time.Hour), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.SearchBooks(ctx, "dune")
	assert.Error(t, err)
}
