// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads release archives over HTTP with bounded body sizes
// and context-aware cancellation. The provisioning steps only ever need "get
// this URL into a local temp file", so the surface is deliberately small.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// defaultMaxBytes is the upper bound on a downloaded archive (500 MB).
	// Prevents unbounded disk consumption from a misconfigured source URL.
	defaultMaxBytes = 500 << 20

	// defaultTimeout bounds a single download end to end. The archives served
	// by wordpress.org and phpmyadmin.net are tens of megabytes, so ten
	// minutes covers even slow links.
	defaultTimeout = 10 * time.Minute
)

// ErrTooLarge is returned when a response body exceeds the configured size limit.
var ErrTooLarge = errors.New("download exceeds size limit")

type (
	// Client downloads files over HTTP. The zero value is not usable;
	// construct with NewClient.
	Client struct {
		httpClient *http.Client
		userAgent  string
		maxBytes   int64
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBytes overrides the response body size limit.
func WithMaxBytes(n int64) ClientOption {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// NewClient creates a Client with sensible defaults: a 10-minute request
// timeout, a 500 MB body limit, and a "wpstack/dev" User-Agent.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "wpstack/dev",
		maxBytes:   defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL and returns the response body as a streaming reader.
// The caller is responsible for closing the returned ReadCloser.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(rawURL), resp.StatusCode)
	}

	return resp.Body, nil
}

// DownloadToTemp downloads rawURL into a temporary file in dir and returns
// the path to the temp file. An empty dir falls back to the system temp
// directory. The caller is responsible for removing the file when done.
func (c *Client) DownloadToTemp(ctx context.Context, rawURL, dir string) (_ string, err error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	tmp, err := os.CreateTemp(dir, "wpstack-download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Copy one byte past the limit so an oversized body is detected rather
	// than silently truncated into a corrupt archive.
	n, err := io.Copy(tmp, io.LimitReader(body, c.maxBytes+1))
	if err != nil {
		// Best-effort removal of partially written temp file.
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing to temp file: %w", err)
	}
	if n > c.maxBytes {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, redactURL(rawURL), c.maxBytes)
	}

	return tmp.Name(), nil
}

// doRequest creates and executes a GET request with common headers.
func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of tokens or sensitive data.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
