package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Collect CollectConfig `yaml:"collect" mapstructure:"collect"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Crawl   CrawlConfig   `yaml:"crawl" mapstructure:"crawl"`
	Run     RunConfig     `yaml:"run" mapstructure:"run"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BrowserConfig configures the Chrome session.
type BrowserConfig struct {
	Headless            bool   `yaml:"headless" mapstructure:"headless"`
	ExecPath            string `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent           string `yaml:"user_agent" mapstructure:"user_agent"`
	WindowWidth         int    `yaml:"window_width" mapstructure:"window_width"`
	WindowHeight        int    `yaml:"window_height" mapstructure:"window_height"`
	NavigateTimeoutSecs int    `yaml:"navigate_timeout_secs" mapstructure:"navigate_timeout_secs"`
	ActionTimeoutSecs   int    `yaml:"action_timeout_secs" mapstructure:"action_timeout_secs"`
}

// CollectConfig configures result collection on the maps search page.
type CollectConfig struct {
	HomeURL           string `yaml:"home_url" mapstructure:"home_url"`
	SearchTimeoutSecs int    `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
	SearchSettleMS    int    `yaml:"search_settle_ms" mapstructure:"search_settle_ms"`
	ConsentSettleMS   int    `yaml:"consent_settle_ms" mapstructure:"consent_settle_ms"`
	ScrollSettleMS    int    `yaml:"scroll_settle_ms" mapstructure:"scroll_settle_ms"`
	MaxRounds         int    `yaml:"max_rounds" mapstructure:"max_rounds"`
	StagnationRounds  int    `yaml:"stagnation_rounds" mapstructure:"stagnation_rounds"`
	FallbackScrollPx  int    `yaml:"fallback_scroll_px" mapstructure:"fallback_scroll_px"`
	DebugDir          string `yaml:"debug_dir" mapstructure:"debug_dir"`
}

// ExtractConfig configures place record extraction.
type ExtractConfig struct {
	PageSettleMS int    `yaml:"page_settle_ms" mapstructure:"page_settle_ms"`
	Region       string `yaml:"region" mapstructure:"region"`
}

// CrawlConfig configures the website email crawl.
type CrawlConfig struct {
	MaxPages     int      `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string   `yaml:"user_agent" mapstructure:"user_agent"`
	Keywords     []string `yaml:"keywords" mapstructure:"keywords"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HostRate     float64  `yaml:"host_rate" mapstructure:"host_rate"`
	HostBurst    int      `yaml:"host_burst" mapstructure:"host_burst"`
	Concurrency  int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// CategoryConfig is an organization type and its search query.
type CategoryConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Query string `yaml:"query" mapstructure:"query"`
}

// RunConfig configures which targets a scrape run searches.
type RunConfig struct {
	TotalLeads  int              `yaml:"total_leads" mapstructure:"total_leads"`
	TargetsFile string           `yaml:"targets_file" mapstructure:"targets_file"`
	Categories  []CategoryConfig `yaml:"categories" mapstructure:"categories"`
}

// OutputConfig selects export destinations. Empty values disable a sink.
type OutputConfig struct {
	CSV           string `yaml:"csv" mapstructure:"csv"`
	XLSX          string `yaml:"xlsx" mapstructure:"xlsx"`
	SQLite        string `yaml:"sqlite" mapstructure:"sqlite"`
	PostgresDSN   string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	PostgresTable string `yaml:"postgres_table" mapstructure:"postgres_table"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigate_timeout_secs", 20)
	v.SetDefault("browser.action_timeout_secs", 10)
	v.SetDefault("collect.home_url", "https://www.google.com/maps")
	v.SetDefault("collect.search_timeout_secs", 15)
	v.SetDefault("collect.search_settle_ms", 3000)
	v.SetDefault("collect.consent_settle_ms", 1000)
	v.SetDefault("collect.scroll_settle_ms", 1500)
	v.SetDefault("collect.max_rounds", 120)
	v.SetDefault("collect.stagnation_rounds", 7)
	v.SetDefault("collect.fallback_scroll_px", 4500)
	v.SetDefault("collect.debug_dir", "output/debug")
	v.SetDefault("extract.page_settle_ms", 2500)
	v.SetDefault("extract.region", "CA")
	v.SetDefault("crawl.max_pages", 6)
	v.SetDefault("crawl.timeout_secs", 10)
	v.SetDefault("crawl.keywords", []string{"contact", "impressum", "about", "support"})
	v.SetDefault("crawl.max_body_bytes", 2*1024*1024)
	v.SetDefault("crawl.host_rate", 5.0)
	v.SetDefault("crawl.host_burst", 5)
	v.SetDefault("crawl.concurrency", 1)
	v.SetDefault("run.total_leads", 100)
	v.SetDefault("run.categories", []map[string]string{
		{"name": "Church", "query": "Churches in California"},
		{"name": "Hospital", "query": "Hospitals in California"},
	})
	v.SetDefault("output.csv", "output/leads.csv")
	v.SetDefault("output.xlsx", "output/leads.xlsx")
	v.SetDefault("output.postgres_table", "leads")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var regionRe = regexp.MustCompile(`^[A-Z]{2}$`)

// Validate checks the settings a command depends on. mode is the command
// name: "scrape" or "email".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scrape":
		if !regionRe.MatchString(c.Extract.Region) {
			errs = append(errs, "extract.region must be a two-letter uppercase state code")
		}
		if c.Run.TargetsFile == "" {
			if c.Run.TotalLeads <= 0 {
				errs = append(errs, "run.total_leads must be > 0")
			}
			if len(c.Run.Categories) == 0 {
				errs = append(errs, "run.categories must not be empty")
			}
			for i, cat := range c.Run.Categories {
				if cat.Name == "" || cat.Query == "" {
					errs = append(errs, fmt.Sprintf("run.categories[%d] needs name and query", i))
				}
			}
		}
		if c.Crawl.Concurrency < 1 || c.Crawl.Concurrency > 32 {
			errs = append(errs, "crawl.concurrency must be between 1 and 32")
		}
	case "email":
		if c.Crawl.MaxPages < 1 {
			errs = append(errs, "crawl.max_pages must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
