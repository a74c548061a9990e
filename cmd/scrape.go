package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/browser"
	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/crawl"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/fetcher"
	"github.com/sells-group/lead-cli/internal/maps"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/pipeline"
)

// scrapeFlags holds the scrape command flags. Flags override config only
// when set on the command line.
type scrapeFlags struct {
	totalLeads  int
	headful     bool
	csvOutput   string
	excelOutput string
	sqlite      string
	targets     string
	region      string
	concurrency int
}

var scrapeOpts scrapeFlags

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape leads from the maps site and export them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyScrapeFlags(cmd, &scrapeOpts, cfg)
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		targets, err := resolveTargets(cfg)
		if err != nil {
			return err
		}
		return runScrape(ctx, cmd, cfg, targets)
	},
}

func addScrapeFlags(cmd *cobra.Command, f *scrapeFlags) {
	cmd.Flags().IntVar(&f.totalLeads, "total-leads", 100, "total number of leads requested, split across categories")
	cmd.Flags().BoolVar(&f.headful, "headful", false, "run the browser with a visible window")
	cmd.Flags().StringVar(&f.csvOutput, "csv-output", "output/leads.csv", "CSV export path (empty disables)")
	cmd.Flags().StringVar(&f.excelOutput, "excel-output", "output/leads.xlsx", "Excel export path (empty disables)")
	cmd.Flags().StringVar(&f.sqlite, "sqlite-output", "", "SQLite database path (empty disables)")
	cmd.Flags().StringVar(&f.targets, "targets", "", "YAML file of search targets; replaces --total-leads split")
	cmd.Flags().StringVar(&f.region, "region", "", "two-letter state every lead must be in (default from config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel website crawls per target (default from config)")
}

// applyScrapeFlags copies explicitly set flags onto c.
func applyScrapeFlags(cmd *cobra.Command, f *scrapeFlags, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("total-leads") {
		c.Run.TotalLeads = f.totalLeads
	}
	if flags.Changed("headful") {
		c.Browser.Headless = !f.headful
	}
	if flags.Changed("csv-output") {
		c.Output.CSV = f.csvOutput
	}
	if flags.Changed("excel-output") {
		c.Output.XLSX = f.excelOutput
	}
	if flags.Changed("sqlite-output") {
		c.Output.SQLite = f.sqlite
	}
	if flags.Changed("targets") {
		c.Run.TargetsFile = f.targets
	}
	if flags.Changed("region") {
		c.Extract.Region = f.region
	}
	if flags.Changed("concurrency") {
		c.Crawl.Concurrency = f.concurrency
	}
}

func resolveTargets(c *config.Config) ([]model.SearchTarget, error) {
	if c.Run.TargetsFile != "" {
		return pipeline.LoadTargets(c.Run.TargetsFile)
	}
	targets := pipeline.BuildTargets(c.Run.TotalLeads, categories(c))
	if len(targets) == 0 {
		return nil, eris.New("scrape: no search targets")
	}
	return targets, nil
}

func runScrape(ctx context.Context, cmd *cobra.Command, c *config.Config, targets []model.SearchTarget) error {
	log := zap.L()

	chrome, err := browser.Launch(ctx, browserOptions(c))
	if err != nil {
		return err
	}
	defer chrome.Close()

	finder := crawl.NewFinder(fetcher.NewHTTPFetcher(httpOptions(c)), finderOptions(c))
	runner := pipeline.NewRunner(
		maps.NewCollector(chrome, collectOptions(c)),
		maps.NewExtractor(chrome, finder, extractOptions(c)),
		pipeline.Options{Concurrency: c.Crawl.Concurrency},
	)

	log.Info("scrape: starting",
		zap.String("run_id", runner.RunID()),
		zap.Int("targets", len(targets)),
		zap.String("region", c.Extract.Region),
		zap.Bool("headless", c.Browser.Headless),
	)

	report, runErr := runner.Run(ctx, targets)

	// Export whatever was gathered, even when the run stopped early.
	sinks := export.FromOptions(exportOptions(c, runner.RunID()))
	writeErr := export.WriteAll(context.WithoutCancel(ctx), sinks, report.Leads)

	fmt.Fprint(cmd.OutOrStdout(), pipeline.FormatReport(report))
	log.Info("scrape: saved leads",
		zap.Int("leads", len(report.Leads)),
		zap.String("csv", c.Output.CSV),
		zap.String("excel", c.Output.XLSX),
		zap.String("sqlite", c.Output.SQLite),
	)

	if runErr != nil {
		return eris.Wrap(runErr, "scrape: run")
	}
	return writeErr
}

func init() {
	addScrapeFlags(scrapeCmd, &scrapeOpts)
	rootCmd.AddCommand(scrapeCmd)
}
