package maps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/resilience"
)

const (
	// DefaultHomeURL is the maps landing page every search starts from.
	DefaultHomeURL = "https://www.google.com/maps"

	resultLinkSelector = `a.hfpxzc`
	resultFeedSelector = `div[role="feed"]`
	placePathMarker    = "/maps/place/"
	debugScreenshot    = "searchbox_missing.png"
)

// SearchInputSelectors locate the search box, tried in order.
var SearchInputSelectors = []string{
	`input#searchboxinput`,
	`input[aria-label*="Search"]`,
	`input[aria-label*="search"]`,
	`input[name="q"]`,
}

// ConsentButtonTexts are the consent dialog buttons, tried in order.
var ConsentButtonTexts = []string{"Accept all", "I agree", "Reject all", "Accept"}

// CollectOptions tunes the result collection loop.
type CollectOptions struct {
	HomeURL          string
	SearchTimeout    time.Duration // per search-input selector
	SearchSettle     time.Duration
	ConsentSettle    time.Duration
	ScrollSettle     time.Duration
	MaxRounds        int
	StagnationRounds int
	FallbackScrollPx int
	// DebugDir receives a screenshot when the search box is missing. Empty
	// disables screenshots.
	DebugDir string
}

func (o CollectOptions) withDefaults() CollectOptions {
	if o.HomeURL == "" {
		o.HomeURL = DefaultHomeURL
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 15 * time.Second
	}
	if o.SearchSettle <= 0 {
		o.SearchSettle = 3 * time.Second
	}
	if o.ConsentSettle <= 0 {
		o.ConsentSettle = time.Second
	}
	if o.ScrollSettle <= 0 {
		o.ScrollSettle = 1500 * time.Millisecond
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = 120
	}
	if o.StagnationRounds <= 0 {
		o.StagnationRounds = 7
	}
	if o.FallbackScrollPx <= 0 {
		o.FallbackScrollPx = 4500
	}
	return o
}

// Collector gathers candidate place URLs for a query by scrolling the result
// feed until it has enough, stops growing, or runs out of rounds.
type Collector struct {
	browser Browser
	opts    CollectOptions
	sleep   func(context.Context, time.Duration) error
}

// NewCollector creates a Collector on b. Zero options take their defaults.
func NewCollector(b Browser, opts CollectOptions) *Collector {
	return &Collector{browser: b, opts: opts.withDefaults(), sleep: sleep}
}

// NormalizePlaceURL drops everything from the first '&' so the same place
// reached through different result lists compares equal.
func NormalizePlaceURL(href string) string {
	if i := strings.IndexByte(href, '&'); i >= 0 {
		return href[:i]
	}
	return href
}

// Collect returns up to maxItems distinct place URLs for query, in the order
// they first appeared. A missing search box yields no URLs and a
// KindElementNotFound error; the caller moves on to its next query.
func (c *Collector) Collect(ctx context.Context, query string, maxItems int) ([]string, error) {
	if maxItems <= 0 {
		return nil, nil
	}
	log := zap.L().With(zap.String("query", query))

	if err := c.browser.Navigate(ctx, c.opts.HomeURL); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "maps: open home"), 0)
	}
	c.dismissConsent(ctx)

	input, ok := c.findSearchInput(ctx)
	if !ok {
		c.reportMissingSearchInput(ctx, log)
		return nil, resilience.NewElementNotFound(eris.Errorf("maps: search input not found for %q", query))
	}

	if err := c.browser.Search(ctx, input, query); err != nil {
		return nil, resilience.NewElementNotFound(eris.Wrapf(err, "maps: submit search %q", query))
	}
	if err := c.sleep(ctx, c.opts.SearchSettle); err != nil {
		return nil, eris.Wrap(err, "maps: search settle")
	}

	var (
		seen      = make(map[string]struct{})
		locations []string
		stagnant  int
		rounds    int
	)
	for rounds < c.opts.MaxRounds {
		rounds++
		before := len(locations)

		hrefs, err := c.browser.Hrefs(ctx, resultLinkSelector)
		if err != nil {
			log.Debug("maps: reading result links failed", zap.Int("round", rounds), zap.Error(err))
		}
		for _, href := range hrefs {
			if !strings.Contains(href, placePathMarker) {
				continue
			}
			loc := NormalizePlaceURL(href)
			if _, dup := seen[loc]; dup {
				continue
			}
			seen[loc] = struct{}{}
			locations = append(locations, loc)
		}

		if len(locations) >= maxItems {
			break
		}
		if len(locations) == before {
			stagnant++
		} else {
			stagnant = 0
		}
		if stagnant >= c.opts.StagnationRounds {
			log.Debug("maps: result feed stopped growing", zap.Int("round", rounds))
			break
		}

		c.scroll(ctx, log)
		if err := c.sleep(ctx, c.opts.ScrollSettle); err != nil {
			return truncate(locations, maxItems), eris.Wrap(err, "maps: scroll settle")
		}
	}

	log.Info("maps: collected candidates",
		zap.Int("candidates", min(len(locations), maxItems)),
		zap.Int("rounds", rounds),
	)
	return truncate(locations, maxItems), nil
}

func (c *Collector) dismissConsent(ctx context.Context) {
	for _, text := range ConsentButtonTexts {
		clicked, err := c.browser.ClickButtonWithText(ctx, text)
		if err != nil {
			zap.L().Debug("maps: consent button click failed", zap.String("text", text), zap.Error(err))
			continue
		}
		if clicked {
			_ = c.sleep(ctx, c.opts.ConsentSettle)
			return
		}
	}
}

func (c *Collector) findSearchInput(ctx context.Context) (string, bool) {
	for _, sel := range SearchInputSelectors {
		if err := c.browser.WaitVisible(ctx, sel, c.opts.SearchTimeout); err == nil {
			return sel, true
		}
	}
	return "", false
}

func (c *Collector) reportMissingSearchInput(ctx context.Context, log *zap.Logger) {
	pageURL, title, err := c.browser.Location(ctx)
	if err != nil {
		log.Debug("maps: reading page location failed", zap.Error(err))
	}
	log.Error("maps: search input not found",
		zap.String("url", pageURL),
		zap.String("title", title),
	)

	if c.opts.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(c.opts.DebugDir, 0o755); err != nil {
		log.Warn("maps: create debug dir failed", zap.Error(err))
		return
	}
	path := filepath.Join(c.opts.DebugDir, debugScreenshot)
	if err := c.browser.Screenshot(ctx, path); err != nil {
		log.Warn("maps: debug screenshot failed", zap.Error(err))
		return
	}
	log.Info("maps: saved debug screenshot", zap.String("path", path))
}

func (c *Collector) scroll(ctx context.Context, log *zap.Logger) {
	ok, err := c.browser.ScrollToBottom(ctx, resultFeedSelector)
	if err == nil && ok {
		return
	}
	if err := c.browser.ScrollBy(ctx, c.opts.FallbackScrollPx); err != nil {
		log.Debug("maps: page scroll failed", zap.Error(err))
	}
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
