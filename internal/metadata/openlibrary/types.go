// Package openlibrary provides a client for the Open Library search API,
// used to prefill book details from a title query or an ISBN scan.
package openlibrary

import "fmt"

// BookResult is a candidate match from Open Library, shaped to prefill a
// new collection entry.
type BookResult struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
}

// searchResponse is the raw Open Library search API response.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

// searchDoc is a single work from the search API. Open Library aggregates
// editions into works, so most fields are lists.
type searchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle,omitempty"`
	AuthorName          []string `json:"author_name,omitempty"`
	Publisher           []string `json:"publisher,omitempty"`
	FirstPublishYear    int      `json:"first_publish_year,omitempty"`
	ISBN                []string `json:"isbn,omitempty"`
	CoverI              int64    `json:"cover_i,omitempty"`
	NumberOfPagesMedian int      `json:"number_of_pages_median,omitempty"`
}

// toResult converts a search doc to a BookResult, preferring the queried
// ISBN when one was supplied.
func (d *searchDoc) toResult(preferredISBN string) BookResult {
	result := BookResult{
		Title:     d.Title,
		Subtitle:  d.Subtitle,
		Authors:   d.AuthorName,
		PageCount: d.NumberOfPagesMedian,
	}

	if len(d.Publisher) > 0 {
		result.Publisher = d.Publisher[0]
	}
	if d.FirstPublishYear > 0 {
		result.PublishedDate = fmt.Sprintf("%d", d.FirstPublishYear)
	}
	if preferredISBN != "" {
		result.ISBN = preferredISBN
	} else if len(d.ISBN) > 0 {
		result.ISBN = d.ISBN[0]
	}
	if d.CoverI > 0 {
		result.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", d.CoverI)
	}

	return result
}
