package maps

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Strategy is one way of reading a field from the page: the text of an
// element, or one of its attributes, with an optional prefix to strip.
type Strategy struct {
	Selector string
	Attr     string
	strip    *regexp.Regexp
}

// TextOf reads the text of the first element matching selector.
func TextOf(selector string) Strategy {
	return Strategy{Selector: selector}
}

// AttrOf reads attribute attr of the first element matching selector.
func AttrOf(selector, attr string) Strategy {
	return Strategy{Selector: selector, Attr: attr}
}

// Stripping returns a copy of s that removes matches of re from the value.
func (s Strategy) Stripping(re *regexp.Regexp) Strategy {
	s.strip = re
	return s
}

func (s Strategy) read(ctx context.Context, b Browser) string {
	var (
		v   string
		err error
	)
	if s.Attr == "" {
		v, err = b.Text(ctx, s.Selector)
	} else {
		v, err = b.Attr(ctx, s.Selector, s.Attr)
	}
	if err != nil {
		zap.L().Debug("maps: strategy read failed",
			zap.String("selector", s.Selector),
			zap.Error(err),
		)
		return ""
	}
	if s.strip != nil {
		v = s.strip.ReplaceAllString(v, "")
	}
	return strings.TrimSpace(v)
}

// firstOf returns the first non-empty value produced by strategies, in order.
func firstOf(ctx context.Context, b Browser, strategies []Strategy) string {
	for _, s := range strategies {
		if v := s.read(ctx, b); v != "" {
			return v
		}
	}
	return ""
}

// firstMatching is firstOf restricted to values accepted by ok.
func firstMatching(ctx context.Context, b Browser, strategies []Strategy, ok func(string) bool) string {
	for _, s := range strategies {
		if v := s.read(ctx, b); v != "" && ok(v) {
			return v
		}
	}
	return ""
}

var (
	addressPrefix = regexp.MustCompile(`^Address:\s*`)
	phonePrefix   = regexp.MustCompile(`^(Phone:|Call)\s*`)
)

// Field strategies for a place detail page.
var (
	NameStrategies = []Strategy{
		TextOf(`h1.DUwDvf`),
		TextOf(`h1.fontHeadlineLarge`),
	}
	AddressStrategies = []Strategy{
		TextOf(`button[data-item-id="address"]`).Stripping(addressPrefix),
		TextOf(`button[data-tooltip="Copy address"]`).Stripping(addressPrefix),
		TextOf(`div[aria-label^="Address:"]`).Stripping(addressPrefix),
	}
	PhoneStrategies = []Strategy{
		TextOf(`button[data-item-id^="phone:"]`).Stripping(phonePrefix),
		TextOf(`button[data-tooltip="Copy phone number"]`).Stripping(phonePrefix),
		TextOf(`div[aria-label^="Phone:"]`).Stripping(phonePrefix),
	}
	WebsiteStrategies = []Strategy{
		AttrOf(`a[data-item-id="authority"]`, "href"),
		AttrOf(`a[data-tooltip="Open website"]`, "href"),
	}
)
