package maps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

type fakeEmailFinder struct {
	emails map[string]string
	calls  []string
}

func (f *fakeEmailFinder) FindEmail(_ context.Context, siteURL string) (string, bool) {
	f.calls = append(f.calls, siteURL)
	email, ok := f.emails[siteURL]
	return email, ok
}

const placeURL = "https://www.google.com/maps/place/Grace+Church"

func placePage() *fakeBrowser {
	return &fakeBrowser{
		texts: map[string]string{
			`h1.DUwDvf`:                      "Grace Church",
			`button[data-item-id="address"]`: "Address: 123 Main St, Los Angeles, CA 90001",
			`button[data-tooltip="Copy phone number"]`: "Call (213) 555-0100",
		},
		attrs: map[string]string{
			`a[data-item-id="authority"]@href`: "https://grace.test/",
		},
	}
}

func newTestExtractor(b *fakeBrowser, f EmailFinder, opts ExtractOptions) *Extractor {
	e := NewExtractor(b, f, opts)
	e.sleep = noSleep
	return e
}

func TestExtract_AcceptsCompleteRecord(t *testing.T) {
	finder := &fakeEmailFinder{emails: map[string]string{"https://grace.test/": "office@grace.test"}}
	e := newTestExtractor(placePage(), finder, ExtractOptions{})

	got, err := e.Extract(context.Background(), placeURL, "Church")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.Lead{
		Name:    "Grace Church",
		OrgType: "Church",
		Phone:   "+12135550100",
		Email:   "office@grace.test",
		Address: "123 Main St, Los Angeles, CA 90001",
		City:    "Los Angeles",
		State:   "CA",
	}, *got)
	assert.Equal(t, []string{"https://grace.test/"}, finder.calls)
}

func TestReadRecord_FallbackStrategies(t *testing.T) {
	b := &fakeBrowser{
		texts: map[string]string{
			`h1.fontHeadlineLarge`:          "St. Mary Hospital",
			`div[aria-label^="Address:"]`:   "Address:  9 Elm Rd, Fresno, CA 93701",
			`button[data-item-id^="phone:"]`: "Phone: 559-555-0199",
		},
		attrs: map[string]string{
			`a[data-item-id="authority"]@href`:  "javascript:void(0)",
			`a[data-tooltip="Open website"]@href`: "http://stmary.test",
		},
	}
	raw, err := newTestExtractor(b, nil, ExtractOptions{}).ReadRecord(context.Background(), placeURL)
	require.NoError(t, err)
	assert.Equal(t, model.RawRecord{
		Location: placeURL,
		Name:     "St. Mary Hospital",
		Address:  "9 Elm Rd, Fresno, CA 93701",
		RawPhone: "559-555-0199",
		Website:  "http://stmary.test",
	}, raw)
	assert.Equal(t, []string{placeURL}, b.navigated)
}

func TestReadRecord_NavigationFailure(t *testing.T) {
	b := &fakeBrowser{navErr: map[string]error{placeURL: errors.New("net::ERR_TIMED_OUT")}}
	_, err := newTestExtractor(b, nil, ExtractOptions{}).ReadRecord(context.Background(), placeURL)
	require.Error(t, err)
	assert.True(t, resilience.IsKind(err, resilience.KindTransientFetch))
}

func TestExtract_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(b *fakeBrowser)
		region     string
		wantReason string
		wantCrawl  bool
	}{
		{
			name:       "missing name",
			mutate:     func(b *fakeBrowser) { delete(b.texts, `h1.DUwDvf`) },
			wantReason: ReasonMissingName,
		},
		{
			name:       "missing address",
			mutate:     func(b *fakeBrowser) { delete(b.texts, `button[data-item-id="address"]`) },
			wantReason: ReasonMissingAddress,
		},
		{
			name: "short phone",
			mutate: func(b *fakeBrowser) {
				b.texts[`button[data-tooltip="Copy phone number"]`] = "555-0100"
			},
			wantReason: ReasonInvalidPhone,
		},
		{
			name:       "other state",
			region:     "NY",
			wantReason: ReasonOutOfRegion,
		},
		{
			name: "address without city",
			mutate: func(b *fakeBrowser) {
				b.texts[`button[data-item-id="address"]`] = "Los Angeles CA 90001"
			},
			wantReason: ReasonOutOfRegion,
		},
		{
			name:       "no website",
			mutate:     func(b *fakeBrowser) { b.attrs = nil },
			wantReason: ReasonMissingEmail,
		},
		{
			name: "website without email",
			mutate: func(b *fakeBrowser) {
				b.attrs[`a[data-item-id="authority"]@href`] = "https://quiet.test/"
			},
			wantReason: ReasonMissingEmail,
			wantCrawl:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := placePage()
			if tt.mutate != nil {
				tt.mutate(b)
			}
			finder := &fakeEmailFinder{emails: map[string]string{"https://grace.test/": "office@grace.test"}}

			got, err := newTestExtractor(b, finder, ExtractOptions{Region: tt.region}).
				Extract(context.Background(), placeURL, "Church")
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, resilience.IsKind(err, resilience.KindIncompleteRecord))
			assert.Equal(t, tt.wantReason, resilience.ReasonOf(err))
			assert.Equal(t, tt.wantCrawl, len(finder.calls) > 0)
		})
	}
}

func TestQualify_NoEmailYet(t *testing.T) {
	e := newTestExtractor(&fakeBrowser{}, nil, ExtractOptions{})
	l, err := e.Qualify(model.RawRecord{
		Name:     "Hope Chapel",
		Address:  "PO Box 5, CA",
		RawPhone: "+1 310 555 0111",
	}, "Church")
	require.NoError(t, err)
	assert.Equal(t, "PO Box", l.City)
	assert.Equal(t, "CA", l.State)
	assert.Equal(t, "+13105550111", l.Phone)
	assert.Empty(t, l.Email)
}

func TestAccept(t *testing.T) {
	l := model.Lead{Name: "A"}

	got, err := Accept(l, "info@a.test")
	require.NoError(t, err)
	assert.Equal(t, "info@a.test", got.Email)

	for _, bad := range []string{"", "not-an-email", "write info@a.test"} {
		_, err := Accept(l, bad)
		assert.True(t, resilience.IsKind(err, resilience.KindIncompleteRecord), bad)
	}
}

func TestExtractor_DefaultRegion(t *testing.T) {
	e := NewExtractor(&fakeBrowser{}, nil, ExtractOptions{})
	assert.Equal(t, "CA", e.Region())
}
