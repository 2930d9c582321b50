// Package fetcher defines the interface for retrieving feeds and article
// pages. Implement the Fetcher interface to plug in custom transports.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves content from a URL. The returned body is UTF-8.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "cached").
	Type() string
}

// Options controls fetching behavior. Zero values fall back to the
// fetcher's own configuration.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	Headers     map[string]string
}

// Content represents fetched data.
type Content struct {
	URL         string
	Body        string
	StatusCode  int
	ContentType string
	Charset     string // charset the body was decoded from
	FetchedAt   time.Time
}

// ErrHTTPStatus is wrapped when the server answers with a 4xx or 5xx status.
// Check with errors.Is(err, fetcher.ErrHTTPStatus).
var ErrHTTPStatus = errors.New("unexpected HTTP status")
