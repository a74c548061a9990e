// Package fetcher downloads web pages for the contact crawler.
package fetcher

import "context"

// Page is a successfully fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       string
}

// Fetcher defines the interface for downloading a single page.
type Fetcher interface {
	// Fetch performs exactly one GET. Network failures and error-class
	// statuses are returned as transient fetch errors.
	Fetch(ctx context.Context, url string) (*Page, error)
}
