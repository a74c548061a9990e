package maps

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeBrowser is an in-memory Browser. Hrefs serves hrefRounds one call at a
// time and repeats the last entry once exhausted.
type fakeBrowser struct {
	mu sync.Mutex

	navErr     map[string]error
	visible    map[string]bool
	consent    map[string]bool
	texts      map[string]string
	attrs      map[string]string // "selector@attr"
	hrefRounds [][]string
	hrefErr    error
	hasFeed    bool
	pageURL    string
	pageTitle  string

	navigated   []string
	waited      []string
	clicked     []string
	searched    []string
	hrefCalls   int
	feedScrolls int
	pageScrolls []int
	screenshots []string
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	if err, ok := f.navErr[url]; ok {
		return err
	}
	return nil
}

func (f *fakeBrowser) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, selector)
	if f.visible[selector] {
		return nil
	}
	return errors.New("timeout waiting for " + selector)
}

func (f *fakeBrowser) ClickButtonWithText(_ context.Context, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicked = append(f.clicked, text)
	return f.consent[text], nil
}

func (f *fakeBrowser) Search(_ context.Context, selector, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, selector+"="+query)
	return nil
}

func (f *fakeBrowser) Text(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[selector], nil
}

func (f *fakeBrowser) Attr(_ context.Context, selector, attr string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs[selector+"@"+attr], nil
}

func (f *fakeBrowser) Hrefs(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hrefCalls++
	if f.hrefErr != nil {
		return nil, f.hrefErr
	}
	if len(f.hrefRounds) == 0 {
		return nil, nil
	}
	i := f.hrefCalls - 1
	if i >= len(f.hrefRounds) {
		i = len(f.hrefRounds) - 1
	}
	return f.hrefRounds[i], nil
}

func (f *fakeBrowser) ScrollToBottom(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasFeed {
		return false, nil
	}
	f.feedScrolls++
	return true, nil
}

func (f *fakeBrowser) ScrollBy(_ context.Context, px int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageScrolls = append(f.pageScrolls, px)
	return nil
}

func (f *fakeBrowser) Location(_ context.Context) (string, string, error) {
	return f.pageURL, f.pageTitle, nil
}

func (f *fakeBrowser) Screenshot(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, path)
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }
