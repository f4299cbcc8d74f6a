// Package remote provides the network client for the Shelfmark cloud backend.
//
// The client translates between the local record shape and the remote schema
// and performs bulk upserts, deletes, and full/incremental fetches. It does
// not retry: every operation either completes or fails with a transport or
// server error, and the sync orchestrator decides what happens next.
package remote

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/ratelimit"
)

const (
	// Rate limit: the backend allows 5 requests per second per device, burst of 10.
	defaultRPS   = 5.0
	defaultBurst = 10

	defaultTimeout = 30 * time.Second
)

// TokenProvider supplies the current access token for authenticated requests.
// Returns an empty string when no session is active.
type TokenProvider interface {
	AccessToken() string
}

// Client is a rate-limited client for the cloud record store. Access control
// is the backend's job: every request carries the caller's token, and the
// backend scopes reads and deletes to that identity.
type Client struct {
	http     *http.Client
	baseURL  string
	limiter  *ratelimit.KeyedRateLimiter
	tokens   TokenProvider
	deviceID string
	logger   *slog.Logger
}

// New creates a new remote store client.
func New(baseURL string, tokens TokenProvider, logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		tokens:  tokens,
		logger:  logger,
	}
}

// SetDeviceID sets the installation identifier sent with every request. The
// backend uses it for per-device rate limiting and sync diagnostics.
func (c *Client) SetDeviceID(id string) {
	c.deviceID = id
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// FetchAll returns all records belonging to the current identity, newest
// creation first.
func (c *Client) FetchAll(ctx context.Context) ([]*domain.Book, error) {
	query := url.Values{}
	query.Set("order", "created_at.desc")

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/records", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooks(body)
}

// FetchUpdatedSince returns records with updated_at >= ts, oldest first.
func (c *Client) FetchUpdatedSince(ctx context.Context, ts time.Time) ([]*domain.Book, error) {
	query := url.Values{}
	query.Set("updated_since", ts.UTC().Format(time.RFC3339Nano))
	query.Set("order", "updated_at.asc")

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/records", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooks(body)
}

// UpsertMany uploads records in one bulk call, keyed by ID. The backend
// treats it as an idempotent merge, so re-sending the same batch is safe.
func (c *Client) UpsertMany(ctx context.Context, books []*domain.Book, ownerUserID string) error {
	if len(books) == 0 {
		return nil
	}

	payload := make([]remoteBook, 0, len(books))
	for _, book := range books {
		payload = append(payload, fromDomain(book, ownerUserID))
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	_, err = c.doRequest(ctx, http.MethodPost, "/v1/records/batch", nil, data)
	return err
}

// DeleteOne deletes a single record by ID.
func (c *Client) DeleteOne(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/v1/records/"+url.PathEscape(id), nil, nil)
	return err
}

// DeleteAll deletes every record belonging to the current identity. The
// backend scopes this to the token's identity; the client cannot reach
// anyone else's records.
func (c *Client) DeleteAll(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/v1/records", nil, nil)
	return err
}

// doRequest executes an HTTP request with rate limiting and maps status
// codes to sentinel errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelfmark/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	if c.logger != nil {
		c.logger.Debug("remote request", "method", method, "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusCreated, resp.StatusCode == http.StatusNoContent:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// decodeBooks unmarshals a remote record list and maps it to domain records.
func decodeBooks(body []byte) ([]*domain.Book, error) {
	var raw []remoteBook
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	books := make([]*domain.Book, 0, len(raw))
	for _, rb := range raw {
		books = append(books, rb.toDomain())
	}
	return books, nil
}
