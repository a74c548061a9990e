package maps

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/resilience"
)

func place(n int) string {
	return fmt.Sprintf("https://www.google.com/maps/place/Place+%d/data=!4m7", n)
}

// growingRounds returns rounds where round i shows the first (i+1)*step places.
func growingRounds(rounds, step int) [][]string {
	out := make([][]string, rounds)
	for i := range out {
		for n := 0; n < (i+1)*step; n++ {
			out[i] = append(out[i], place(n))
		}
	}
	return out
}

func newTestCollector(b *fakeBrowser, opts CollectOptions) *Collector {
	c := NewCollector(b, opts)
	c.sleep = noSleep
	return c
}

func searchableBrowser() *fakeBrowser {
	return &fakeBrowser{
		visible: map[string]bool{`input#searchboxinput`: true},
		hasFeed: true,
	}
}

func TestNormalizePlaceURL(t *testing.T) {
	assert.Equal(t, "https://maps.test/maps/place/A?x=1",
		NormalizePlaceURL("https://maps.test/maps/place/A?x=1&authuser=0&hl=en"))
	assert.Equal(t, "https://maps.test/maps/place/B", NormalizePlaceURL("https://maps.test/maps/place/B"))
	assert.Equal(t, "", NormalizePlaceURL("&only"))
}

func TestCollect_StopsAtMaxItems(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = growingRounds(10, 2)

	got, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "Churches in California", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{place(0), place(1), place(2), place(3), place(4)}, got)
	assert.Equal(t, 3, b.hrefCalls)
	assert.Equal(t, []string{DefaultHomeURL}, b.navigated)
	assert.Equal(t, []string{`input#searchboxinput=Churches in California`}, b.searched)
}

func TestCollect_FiltersAndNormalizesLinks(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = [][]string{{
		"https://www.google.com/maps/place/A?x=1&authuser=0",
		"https://www.google.com/maps/search/churches",
		"https://www.google.com/maps/place/A?x=1&hl=en",
		"https://www.google.com/maps/place/B",
	}}

	got, err := newTestCollector(b, CollectOptions{StagnationRounds: 2}).Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.google.com/maps/place/A?x=1",
		"https://www.google.com/maps/place/B",
	}, got)
}

func TestCollect_StagnationEndsBeforeRoundCap(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = [][]string{{place(1), place(2), place(3)}}

	got, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "q", 50)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	// One productive round, then seven rounds without growth.
	assert.Equal(t, 8, b.hrefCalls)
	assert.Less(t, b.hrefCalls, 120)
	assert.Equal(t, 7, b.feedScrolls)
}

func TestCollect_StagnationResetsOnGrowth(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = [][]string{
		{place(1)},
		{place(1)},
		{place(1), place(2)},
		{place(1), place(2)},
	}

	got, err := newTestCollector(b, CollectOptions{StagnationRounds: 2}).Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// Rounds 1 and 3 grow; rounds 4 and 5 are stagnant.
	assert.Equal(t, 5, b.hrefCalls)
}

func TestCollect_RoundCap(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = growingRounds(50, 1)

	got, err := newTestCollector(b, CollectOptions{MaxRounds: 10}).Collect(context.Background(), "q", 100)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, 10, b.hrefCalls)
}

func TestCollect_FallbackPageScroll(t *testing.T) {
	b := searchableBrowser()
	b.hasFeed = false
	b.hrefRounds = [][]string{{place(1)}}

	_, err := newTestCollector(b, CollectOptions{StagnationRounds: 2}).Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{4500, 4500}, b.pageScrolls)
}

func TestCollect_LinkReadErrorCountsAsStagnant(t *testing.T) {
	b := searchableBrowser()
	b.hrefErr = errors.New("execution context destroyed")

	got, err := newTestCollector(b, CollectOptions{StagnationRounds: 3}).Collect(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 3, b.hrefCalls)
}

func TestCollect_SearchInputMissing(t *testing.T) {
	dir := t.TempDir()
	b := &fakeBrowser{pageURL: "https://consent.test/", pageTitle: "Before you continue"}

	got, err := newTestCollector(b, CollectOptions{DebugDir: dir}).Collect(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, resilience.IsKind(err, resilience.KindElementNotFound))
	assert.False(t, resilience.IsFatal(err))
	assert.Equal(t, SearchInputSelectors, b.waited)
	assert.Equal(t, []string{filepath.Join(dir, "searchbox_missing.png")}, b.screenshots)
	assert.Empty(t, b.searched)
	assert.Zero(t, b.hrefCalls)
}

func TestCollect_SearchInputMissingWithoutDebugDir(t *testing.T) {
	b := &fakeBrowser{}
	_, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Empty(t, b.screenshots)
}

func TestCollect_UsesFirstVisibleSearchInput(t *testing.T) {
	b := &fakeBrowser{visible: map[string]bool{`input[name="q"]`: true}, hasFeed: true}
	b.hrefRounds = [][]string{{place(1)}}

	_, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "Hospitals", 1)
	require.NoError(t, err)
	assert.Equal(t, SearchInputSelectors, b.waited)
	assert.Equal(t, []string{`input[name="q"]=Hospitals`}, b.searched)
}

func TestCollect_HomeNavigationFailure(t *testing.T) {
	b := searchableBrowser()
	b.navErr = map[string]error{DefaultHomeURL: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	got, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, resilience.IsKind(err, resilience.KindTransientFetch))
}

func TestCollect_DismissesConsent(t *testing.T) {
	b := searchableBrowser()
	b.consent = map[string]bool{"I agree": true, "Accept": true}
	b.hrefRounds = [][]string{{place(1)}}

	_, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accept all", "I agree"}, b.clicked)
}

func TestCollect_NonPositiveMax(t *testing.T) {
	b := searchableBrowser()
	got, err := newTestCollector(b, CollectOptions{}).Collect(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, b.navigated)
}

func TestCollect_CustomHome(t *testing.T) {
	b := searchableBrowser()
	b.hrefRounds = [][]string{{place(1)}}
	_, err := newTestCollector(b, CollectOptions{HomeURL: "https://maps.test/"}).Collect(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://maps.test/"}, b.navigated)
}
