package main

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/browser"
	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/crawl"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/fetcher"
	"github.com/sells-group/lead-cli/internal/maps"
	"github.com/sells-group/lead-cli/internal/pipeline"
)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func browserOptions(c *config.Config) browser.Options {
	return browser.Options{
		Headless:        c.Browser.Headless,
		UserAgent:       c.Browser.UserAgent,
		ExecPath:        c.Browser.ExecPath,
		WindowWidth:     c.Browser.WindowWidth,
		WindowHeight:    c.Browser.WindowHeight,
		NavigateTimeout: secs(c.Browser.NavigateTimeoutSecs),
		ActionTimeout:   secs(c.Browser.ActionTimeoutSecs),
	}
}

func collectOptions(c *config.Config) maps.CollectOptions {
	return maps.CollectOptions{
		HomeURL:          c.Collect.HomeURL,
		SearchTimeout:    secs(c.Collect.SearchTimeoutSecs),
		SearchSettle:     millis(c.Collect.SearchSettleMS),
		ConsentSettle:    millis(c.Collect.ConsentSettleMS),
		ScrollSettle:     millis(c.Collect.ScrollSettleMS),
		MaxRounds:        c.Collect.MaxRounds,
		StagnationRounds: c.Collect.StagnationRounds,
		FallbackScrollPx: c.Collect.FallbackScrollPx,
		DebugDir:         c.Collect.DebugDir,
	}
}

func extractOptions(c *config.Config) maps.ExtractOptions {
	return maps.ExtractOptions{
		PageSettle: millis(c.Extract.PageSettleMS),
		Region:     c.Extract.Region,
	}
}

func httpOptions(c *config.Config) fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:    c.Crawl.UserAgent,
		Timeout:      secs(c.Crawl.TimeoutSecs),
		MaxBodyBytes: c.Crawl.MaxBodyBytes,
		HostRate:     rate.Limit(c.Crawl.HostRate),
		HostBurst:    c.Crawl.HostBurst,
	}
}

func finderOptions(c *config.Config) crawl.Options {
	return crawl.Options{MaxPages: c.Crawl.MaxPages, Keywords: c.Crawl.Keywords}
}

func exportOptions(c *config.Config, runID string) export.Options {
	return export.Options{
		CSVPath:       c.Output.CSV,
		XLSXPath:      c.Output.XLSX,
		SQLitePath:    c.Output.SQLite,
		PostgresDSN:   c.Output.PostgresDSN,
		PostgresTable: c.Output.PostgresTable,
		RunID:         runID,
	}
}

func categories(c *config.Config) []pipeline.Category {
	out := make([]pipeline.Category, len(c.Run.Categories))
	for i, cat := range c.Run.Categories {
		out[i] = pipeline.Category{Name: cat.Name, Query: cat.Query}
	}
	return out
}
