// Package maps drives a maps search page: it collects place detail URLs for a
// query and reads business records from each detail page.
package maps

import (
	"context"
	"time"
)

// Browser is the page-automation capability the collector and extractor
// need. Read methods return empty results, not errors, when a selector
// matches nothing.
type Browser interface {
	// Navigate loads url and waits for the document body.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// ClickButtonWithText clicks the first visible button whose text
	// contains text. It reports whether a button was clicked.
	ClickButtonWithText(ctx context.Context, text string) (bool, error)
	// Search clears the input at selector, types query and presses Enter.
	Search(ctx context.Context, selector, query string) error
	// Text returns the trimmed text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)
	// Attr returns an attribute of the first element matching selector.
	Attr(ctx context.Context, selector, attr string) (string, error)
	// Hrefs returns the absolute hrefs of every element matching selector.
	Hrefs(ctx context.Context, selector string) ([]string, error)
	// ScrollToBottom scrolls the element at selector to its end. It reports
	// false when no such element exists.
	ScrollToBottom(ctx context.Context, selector string) (bool, error)
	// ScrollBy scrolls the window down by px pixels.
	ScrollBy(ctx context.Context, px int) error
	// Location returns the current page URL and title.
	Location(ctx context.Context) (url, title string, err error)
	// Screenshot writes a full-page PNG to path.
	Screenshot(ctx context.Context, path string) error
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
