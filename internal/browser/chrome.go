// Package browser implements maps.Browser on a headless Chrome driven over
// the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/maps"
	"github.com/sells-group/lead-cli/internal/resilience"
)

var _ maps.Browser = (*Chrome)(nil)

// DefaultUserAgent is sent by the browser instead of HeadlessChrome.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Options configures the Chrome session.
type Options struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides Chrome discovery.
	ExecPath        string
	WindowWidth     int
	WindowHeight    int
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
}

// Chrome is one browser tab shared by the collector and extractor of a run.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
}

// Launch starts Chrome and opens a tab. Failure to start is a
// KindInfrastructure error.
func Launch(parent context.Context, opts Options) (*Chrome, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = 1366, 900
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 20 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// An empty Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, resilience.NewInfrastructure(eris.Wrap(err, "browser: launch chrome"))
	}
	zap.L().Info("browser: chrome started", zap.Bool("headless", opts.Headless))

	return &Chrome{ctx: tabCtx, cancel: cancel, opts: opts}, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	c.cancel()
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) eval(ctx context.Context, script string, res any) error {
	return c.run(ctx, c.opts.ActionTimeout, chromedp.Evaluate(script, res))
}

// Navigate loads url and waits for the body.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, c.opts.NavigateTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

// WaitVisible blocks until selector is visible or timeout elapses.
func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := c.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: wait visible %s", selector)
	}
	return nil
}

// ClickButtonWithText clicks the first visible button containing text.
func (c *Chrome) ClickButtonWithText(ctx context.Context, text string) (bool, error) {
	var clicked bool
	if err := c.eval(ctx, clickButtonScript(text), &clicked); err != nil {
		return false, eris.Wrapf(err, "browser: click button %q", text)
	}
	return clicked, nil
}

// Search focuses the input, replaces its value with query and presses Enter.
func (c *Chrome) Search(ctx context.Context, selector, query string) error {
	if err := c.run(ctx, c.opts.ActionTimeout,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, query+kb.Enter, chromedp.ByQuery),
	); err != nil {
		return eris.Wrapf(err, "browser: search %q", query)
	}
	return nil
}

// Text returns the trimmed inner text of the first match, or "".
func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := c.eval(ctx, textScript(selector), &text); err != nil {
		return "", eris.Wrapf(err, "browser: text %s", selector)
	}
	return text, nil
}

// Attr returns attribute attr of the first match, or "".
func (c *Chrome) Attr(ctx context.Context, selector, attr string) (string, error) {
	var val string
	if err := c.eval(ctx, attrScript(selector, attr), &val); err != nil {
		return "", eris.Wrapf(err, "browser: attr %s@%s", selector, attr)
	}
	return val, nil
}

// Hrefs returns the resolved hrefs of every match.
func (c *Chrome) Hrefs(ctx context.Context, selector string) ([]string, error) {
	var hrefs []string
	if err := c.eval(ctx, hrefsScript(selector), &hrefs); err != nil {
		return nil, eris.Wrapf(err, "browser: hrefs %s", selector)
	}
	return hrefs, nil
}

// ScrollToBottom scrolls the matched element to its end.
func (c *Chrome) ScrollToBottom(ctx context.Context, selector string) (bool, error) {
	var ok bool
	if err := c.eval(ctx, scrollElementScript(selector), &ok); err != nil {
		return false, eris.Wrapf(err, "browser: scroll %s", selector)
	}
	return ok, nil
}

// ScrollBy scrolls the window down by px.
func (c *Chrome) ScrollBy(ctx context.Context, px int) error {
	var ok bool
	if err := c.eval(ctx, fmt.Sprintf(`window.scrollBy(0, %d); true`, px), &ok); err != nil {
		return eris.Wrap(err, "browser: scroll window")
	}
	return nil
}

// Location returns the current URL and title.
func (c *Chrome) Location(ctx context.Context) (string, string, error) {
	var url, title string
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Location(&url), chromedp.Title(&title)); err != nil {
		return "", "", eris.Wrap(err, "browser: location")
	}
	return url, title, nil
}

// Screenshot saves a full-page PNG.
func (c *Chrome) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return eris.Wrap(err, "browser: screenshot")
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return eris.Wrapf(err, "browser: write screenshot %s", path)
	}
	return nil
}

func textScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return "";
	return (el.innerText || el.textContent || "").trim();
})()`, selector)
}

func attrScript(selector, attr string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return "";
	return (el.getAttribute(%q) || "").trim();
})()`, selector, attr)
}

func hrefsScript(selector string) string {
	return fmt.Sprintf(`(() => Array.from(document.querySelectorAll(%q))
	.map(el => el.href || el.getAttribute("href") || "")
	.filter(h => h !== ""))()`, selector)
}

func scrollElementScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	el.scrollBy(0, el.scrollHeight);
	return true;
})()`, selector)
}

func clickButtonScript(text string) string {
	return fmt.Sprintf(`(() => {
	for (const b of document.querySelectorAll("button")) {
		if (b.offsetParent === null) continue;
		if ((b.innerText || b.textContent || "").includes(%q)) {
			b.click();
			return true;
		}
	}
	return false;
})()`, text)
}
