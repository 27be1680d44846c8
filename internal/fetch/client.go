// Package fetch provides the HTTP layer of the crawler: a client wrapper
// with conditional request support and a robots.txt policy checker.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodyBytes caps how much of a page body is read.
const DefaultMaxBodyBytes = 5 * 1024 * 1024

// defaultTimeout bounds a single request when the caller supplies no client.
const defaultTimeout = 30 * time.Second

// Response is the outcome of a single page fetch.
type Response struct {
	StatusCode   int
	Body         string
	ETag         *string
	LastModified *string
	Elapsed      time.Duration
}

// Client wraps an http.Client with the request shaping every page fetch
// needs: the crawler's User-Agent, conditional headers, and a body size cap.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewClient creates a fetch client. A nil httpClient gets a default with
// a request timeout; maxBodyBytes of zero or less gets the default cap.
func NewClient(httpClient *http.Client, userAgent string, maxBodyBytes int64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	return &Client{
		httpClient:   httpClient,
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// Get fetches a page, sending If-None-Match and If-Modified-Since when the
// caller has stored validators. A 304 response carries no body.
func (c *Client) Get(ctx context.Context, url string, etag, lastModified *string) (*Response, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("fetch: create request: %w", reqErr)
	}

	c.setHeaders(req, etag, lastModified)

	start := time.Now()

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, doErr)
	}
	defer resp.Body.Close()

	result := &Response{StatusCode: resp.StatusCode}

	if resp.StatusCode != http.StatusNotModified {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("fetch %s: read body: %w", url, readErr)
		}

		result.Body = string(raw)
	}

	result.Elapsed = time.Since(start)
	setValidators(result, resp)

	return result, nil
}

// Head probes a page without transferring its body, sending the same
// conditional headers as Get. Used for freshness checks before a full fetch.
func (c *Client) Head(ctx context.Context, url string, etag, lastModified *string) (*Response, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("fetch: create request: %w", reqErr)
	}

	c.setHeaders(req, etag, lastModified)

	start := time.Now()

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("probe %s: %w", url, doErr)
	}
	resp.Body.Close()

	result := &Response{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
	setValidators(result, resp)

	return result, nil
}

func (c *Client) setHeaders(req *http.Request, etag, lastModified *string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	if etag != nil {
		req.Header.Set("If-None-Match", *etag)
	}
	if lastModified != nil {
		req.Header.Set("If-Modified-Since", *lastModified)
	}
}

func setValidators(result *Response, resp *http.Response) {
	if v := resp.Header.Get("ETag"); v != "" {
		result.ETag = &v
	}
	if v := resp.Header.Get("Last-Modified"); v != "" {
		result.LastModified = &v
	}
}
