// Package crawl finds a contact email by walking a business website.
package crawl

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/fetcher"
	"github.com/sells-group/lead-cli/internal/validate"
)

// DefaultMaxPages is the per-site budget of successfully fetched pages.
const DefaultMaxPages = 6

// DefaultKeywords mark links that likely lead to contact details.
var DefaultKeywords = []string{"contact", "impressum", "about", "support"}

// Options configures a Finder.
type Options struct {
	MaxPages int
	Keywords []string
}

// Finder performs a breadth-first, same-origin crawl for one email address.
// A Finder holds no per-crawl state and may be shared by goroutines.
type Finder struct {
	fetch    fetcher.Fetcher
	maxPages int
	keywords []string
}

// NewFinder creates a Finder backed by f.
func NewFinder(f fetcher.Fetcher, opts Options) *Finder {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	keywords := opts.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &Finder{fetch: f, maxPages: opts.MaxPages, keywords: lower}
}

// FindEmail returns the first validated email found on siteURL or on the
// same-origin contact-like pages it links to.
func (f *Finder) FindEmail(ctx context.Context, siteURL string) (string, bool) {
	base, ok := normalizeSiteURL(siteURL)
	if !ok {
		return "", false
	}
	return f.crawl(ctx, base)
}

func (f *Finder) crawl(ctx context.Context, base *url.URL) (string, bool) {
	log := zap.L().With(zap.String("site", base.String()))

	start := canonical(base)
	queue := []string{start}
	queued := map[string]bool{start: true}
	visited := make(map[string]bool)
	pages := 0

	for len(queue) > 0 && pages < f.maxPages {
		if ctx.Err() != nil {
			return "", false
		}

		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		page, err := f.fetch.Fetch(ctx, pageURL)
		if err != nil {
			log.Debug("crawl: skipping page", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		pages++

		if email, ok := validate.ExtractFirstEmail(page.Body); ok && validate.IsValidEmail(email) {
			log.Debug("crawl: email in page body", zap.String("url", pageURL), zap.Int("pages", pages))
			return email, true
		}

		current, err := url.Parse(pageURL)
		if err != nil {
			continue
		}
		email, links := f.scanAnchors(page.Body, current, base.Host)
		if email != "" {
			log.Debug("crawl: email in mailto link", zap.String("url", pageURL), zap.Int("pages", pages))
			return email, true
		}
		for _, link := range links {
			if visited[link] || queued[link] {
				continue
			}
			queued[link] = true
			queue = append(queue, link)
		}
	}

	log.Debug("crawl: no email found", zap.Int("pages", pages))
	return "", false
}

// scanAnchors walks every a[href] on the page. A valid mailto address ends
// the scan; otherwise it returns the same-origin links whose path or anchor
// text mentions a contact keyword.
func (f *Finder) scanAnchors(body string, current *url.URL, host string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", nil
	}

	var (
		email string
		links []string
	)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}

		if addr, ok := mailtoAddress(href); ok {
			if validate.IsValidEmail(addr) {
				email = addr
				return false
			}
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		next := current.ResolveReference(ref)
		if next.Host != host {
			return true
		}
		if next.Scheme != "http" && next.Scheme != "https" {
			return true
		}

		text := strings.ToLower(next.Path + " " + strings.Join(strings.Fields(s.Text()), " "))
		if f.matchesKeyword(text) {
			links = append(links, canonical(next))
		}
		return true
	})

	return email, links
}

func (f *Finder) matchesKeyword(s string) bool {
	for _, k := range f.keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// mailtoAddress extracts the lower-cased address from a mailto: href, up to
// any query suffix.
func mailtoAddress(href string) (string, bool) {
	if len(href) < len("mailto:") || !strings.EqualFold(href[:len("mailto:")], "mailto:") {
		return "", false
	}
	addr := href[len("mailto:"):]
	if i := strings.Index(addr, "?"); i >= 0 {
		addr = addr[:i]
	}
	if unescaped, err := url.PathUnescape(addr); err == nil {
		addr = unescaped
	}
	return strings.ToLower(strings.TrimSpace(addr)), true
}

// normalizeSiteURL trims the input and defaults to https when no scheme is
// given.
func normalizeSiteURL(raw string) (*url.URL, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, false
	}
	lower := strings.ToLower(candidate)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// canonical is the visited-set key for a URL: fragment dropped.
func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
