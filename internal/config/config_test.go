package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in the temp dir.
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 20, cfg.Browser.NavigateTimeoutSecs)
	assert.Equal(t, "https://www.google.com/maps", cfg.Collect.HomeURL)
	assert.Equal(t, 15, cfg.Collect.SearchTimeoutSecs)
	assert.Equal(t, 3000, cfg.Collect.SearchSettleMS)
	assert.Equal(t, 1500, cfg.Collect.ScrollSettleMS)
	assert.Equal(t, 120, cfg.Collect.MaxRounds)
	assert.Equal(t, 7, cfg.Collect.StagnationRounds)
	assert.Equal(t, 4500, cfg.Collect.FallbackScrollPx)
	assert.Equal(t, "output/debug", cfg.Collect.DebugDir)
	assert.Equal(t, 2500, cfg.Extract.PageSettleMS)
	assert.Equal(t, "CA", cfg.Extract.Region)
	assert.Equal(t, 6, cfg.Crawl.MaxPages)
	assert.Equal(t, 10, cfg.Crawl.TimeoutSecs)
	assert.Equal(t, []string{"contact", "impressum", "about", "support"}, cfg.Crawl.Keywords)
	assert.Equal(t, int64(2*1024*1024), cfg.Crawl.MaxBodyBytes)
	assert.InDelta(t, 5.0, cfg.Crawl.HostRate, 0.001)
	assert.Equal(t, 1, cfg.Crawl.Concurrency)
	assert.Equal(t, 100, cfg.Run.TotalLeads)
	assert.Equal(t, []CategoryConfig{
		{Name: "Church", Query: "Churches in California"},
		{Name: "Hospital", Query: "Hospitals in California"},
	}, cfg.Run.Categories)
	assert.Equal(t, "output/leads.csv", cfg.Output.CSV)
	assert.Equal(t, "output/leads.xlsx", cfg.Output.XLSX)
	assert.Empty(t, cfg.Output.SQLite)
	assert.Empty(t, cfg.Output.PostgresDSN)
	assert.Equal(t, "leads", cfg.Output.PostgresTable)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
extract:
  region: NV
crawl:
  max_pages: 3
  concurrency: 4
run:
  total_leads: 40
  categories:
    - name: Clinic
      query: Clinics in Nevada
output:
  sqlite: output/leads.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "NV", cfg.Extract.Region)
	assert.Equal(t, 3, cfg.Crawl.MaxPages)
	assert.Equal(t, 4, cfg.Crawl.Concurrency)
	assert.Equal(t, 40, cfg.Run.TotalLeads)
	assert.Equal(t, []CategoryConfig{{Name: "Clinic", Query: "Clinics in Nevada"}}, cfg.Run.Categories)
	assert.Equal(t, "output/leads.db", cfg.Output.SQLite)
	// Defaults still apply for unset values
	assert.Equal(t, 120, cfg.Collect.MaxRounds)
	assert.Equal(t, "output/leads.csv", cfg.Output.CSV)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
extract:
  region: NV
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADS_EXTRACT_REGION", "TX")
	t.Setenv("LEADS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "TX", cfg.Extract.Region)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADS_CRAWL_MAX_PAGES", "12")
	t.Setenv("LEADS_BROWSER_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Crawl.MaxPages)
	assert.False(t, cfg.Browser.Headless)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [\n"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the scrape defaults populated.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Extract.Region = "CA"
	cfg.Crawl.MaxPages = 6
	cfg.Crawl.Concurrency = 1
	cfg.Run.TotalLeads = 100
	cfg.Run.Categories = []CategoryConfig{{Name: "Church", Query: "Churches in California"}}
	return cfg
}

func TestValidateScrape(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("scrape"))
}

func TestValidateScrape_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"lowercase region", func(c *Config) { c.Extract.Region = "ca" }, "extract.region"},
		{"long region", func(c *Config) { c.Extract.Region = "CAL" }, "extract.region"},
		{"no leads", func(c *Config) { c.Run.TotalLeads = 0 }, "run.total_leads must be > 0"},
		{"no categories", func(c *Config) { c.Run.Categories = nil }, "run.categories must not be empty"},
		{"blank category", func(c *Config) { c.Run.Categories[0].Query = "" }, "run.categories[0] needs name and query"},
		{"zero concurrency", func(c *Config) { c.Crawl.Concurrency = 0 }, "crawl.concurrency must be between 1 and 32"},
		{"huge concurrency", func(c *Config) { c.Crawl.Concurrency = 33 }, "crawl.concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("scrape")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateScrape_TargetsFileSkipsCategories(t *testing.T) {
	cfg := validDefaults()
	cfg.Run.TargetsFile = "targets.yaml"
	cfg.Run.TotalLeads = 0
	cfg.Run.Categories = nil
	assert.NoError(t, cfg.Validate("scrape"))
}

func TestValidateEmail(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("email"))

	cfg.Crawl.MaxPages = 0
	err := cfg.Validate("email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.max_pages")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
