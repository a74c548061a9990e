package maps

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/lead"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/validate"
)

// DefaultRegion is the state every accepted lead must be in.
const DefaultRegion = "CA"

// Discard reasons reported with KindIncompleteRecord errors.
const (
	ReasonMissingName    = "missing_name"
	ReasonMissingAddress = "missing_address"
	ReasonInvalidPhone   = "invalid_phone"
	ReasonOutOfRegion    = "out_of_region"
	ReasonMissingEmail   = "missing_email"
)

// EmailFinder resolves a contact email for a business website.
type EmailFinder interface {
	FindEmail(ctx context.Context, siteURL string) (string, bool)
}

// ExtractOptions tunes record extraction.
type ExtractOptions struct {
	PageSettle time.Duration
	Region     string
}

// Extractor reads a place detail page and turns it into a Lead when every
// mandatory field is present and valid.
type Extractor struct {
	browser Browser
	emails  EmailFinder
	opts    ExtractOptions
	sleep   func(context.Context, time.Duration) error
}

// NewExtractor creates an Extractor reading pages through b and resolving
// emails through emails.
func NewExtractor(b Browser, emails EmailFinder, opts ExtractOptions) *Extractor {
	if opts.PageSettle <= 0 {
		opts.PageSettle = 2500 * time.Millisecond
	}
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	return &Extractor{browser: b, emails: emails, opts: opts, sleep: sleep}
}

// Region returns the state accepted leads must be in.
func (e *Extractor) Region() string { return e.opts.Region }

// Extract reads location and returns the resulting lead. A record that fails
// any gate yields a KindIncompleteRecord error; a page that cannot be loaded
// yields KindTransientFetch.
func (e *Extractor) Extract(ctx context.Context, location, orgType string) (*model.Lead, error) {
	raw, err := e.ReadRecord(ctx, location)
	if err != nil {
		return nil, err
	}
	l, err := e.Qualify(raw, orgType)
	if err != nil {
		return nil, err
	}
	email := e.ResolveEmail(ctx, raw.Website)
	accepted, err := Accept(l, email)
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// ReadRecord loads location and reads its raw fields.
func (e *Extractor) ReadRecord(ctx context.Context, location string) (model.RawRecord, error) {
	if err := e.browser.Navigate(ctx, location); err != nil {
		return model.RawRecord{}, resilience.NewTransientError(eris.Wrapf(err, "maps: open place %s", location), 0)
	}
	if err := e.sleep(ctx, e.opts.PageSettle); err != nil {
		return model.RawRecord{}, eris.Wrap(err, "maps: page settle")
	}

	return model.RawRecord{
		Location: location,
		Name:     firstOf(ctx, e.browser, NameStrategies),
		Address:  firstOf(ctx, e.browser, AddressStrategies),
		RawPhone: firstOf(ctx, e.browser, PhoneStrategies),
		Website:  firstMatching(ctx, e.browser, WebsiteStrategies, isWebURL),
	}, nil
}

// Qualify applies every gate that does not need the network: name, address,
// phone and region. The returned lead has no email yet.
func (e *Extractor) Qualify(raw model.RawRecord, orgType string) (model.Lead, error) {
	if raw.Name == "" {
		return model.Lead{}, resilience.NewIncompleteRecord(ReasonMissingName)
	}
	if raw.Address == "" {
		return model.Lead{}, resilience.NewIncompleteRecord(ReasonMissingAddress)
	}
	phone, ok := validate.NormalizeUSPhone(raw.RawPhone)
	if !ok {
		return model.Lead{}, resilience.NewIncompleteRecord(ReasonInvalidPhone)
	}
	city, state := lead.ParseCityState(raw.Address)
	if !lead.InRegion(city, state, e.opts.Region) {
		return model.Lead{}, resilience.NewIncompleteRecord(ReasonOutOfRegion)
	}

	return model.Lead{
		Name:    raw.Name,
		OrgType: orgType,
		Phone:   phone,
		Address: raw.Address,
		City:    city,
		State:   state,
	}, nil
}

// ResolveEmail returns the contact email for website, or "" when there is
// none.
func (e *Extractor) ResolveEmail(ctx context.Context, website string) string {
	if website == "" || e.emails == nil {
		return ""
	}
	email, ok := e.emails.FindEmail(ctx, website)
	if !ok {
		zap.L().Debug("maps: no email on website", zap.String("website", website))
		return ""
	}
	return email
}

// Accept attaches email to a qualified lead, rejecting it when the email is
// missing or malformed.
func Accept(l model.Lead, email string) (model.Lead, error) {
	if !validate.IsValidEmail(email) {
		return model.Lead{}, resilience.NewIncompleteRecord(ReasonMissingEmail)
	}
	l.Email = strings.TrimSpace(email)
	return l, nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
