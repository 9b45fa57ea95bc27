package config

import (
	"log"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Australia/Perth"

	configPathEnv   = "BEARWATCH_CONFIG"
	databasePathEnv = "BEARWATCH_DB"
	viewerAddrEnv   = "BEARWATCH_VIEWER_ADDR"
	logLevelEnv     = "BEARWATCH_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Keywords  KeywordConfig   `yaml:"keywords"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScraperConfig tunes outbound HTTP behaviour shared by all sources.
type ScraperConfig struct {
	MinDelay   time.Duration `yaml:"minDelay"`
	MaxDelay   time.Duration `yaml:"maxDelay"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
	UserAgents []string      `yaml:"userAgents"`
}

// KeywordConfig carries the two relevance tiers.
type KeywordConfig struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
}

// SchedulerConfig defines when daemon mode runs a cycle.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ViewerConfig configures the HTTP viewer server.
type ViewerConfig struct {
	Addr     string `yaml:"addr"`
	PageSize int    `yaml:"pageSize"`
}

// SourceConfig describes a single site with its scraper strategy.
// FeedURL switches the source to the RSS scraper; ExtraPages adds
// additional listing pages (topic feeds etc.) to the main one.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Scraper    string   `yaml:"scraper"`
	BaseURL    string   `yaml:"baseUrl"`
	ListingURL string   `yaml:"listingUrl"`
	FeedURL    string   `yaml:"feedUrl"`
	ExtraPages []string `yaml:"extraPages"`
	Enabled    bool     `yaml:"enabled"`
	Priority   int      `yaml:"priority"`
}

// EnabledSources returns enabled sources ordered by priority (lowest first),
// keeping config order inside a tier.
func (c Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	return enabled
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(viewerAddrEnv); v != "" {
		c.Viewer.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scraper.MinDelay > 0 {
		base.Scraper.MinDelay = override.Scraper.MinDelay
	}
	if override.Scraper.MaxDelay > 0 {
		base.Scraper.MaxDelay = override.Scraper.MaxDelay
	}
	if override.Scraper.Timeout > 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.MaxRetries > 0 {
		base.Scraper.MaxRetries = override.Scraper.MaxRetries
	}
	if len(override.Scraper.UserAgents) > 0 {
		base.Scraper.UserAgents = override.Scraper.UserAgents
	}

	if len(override.Keywords.Primary) > 0 || len(override.Keywords.Secondary) > 0 {
		base.Keywords = override.Keywords
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Viewer.Addr != "" {
		base.Viewer.Addr = override.Viewer.Addr
	}
	if override.Viewer.PageSize > 0 {
		base.Viewer.PageSize = override.Viewer.PageSize
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "data/articles.db"},
		Scraper: ScraperConfig{
			MinDelay:   3 * time.Second,
			MaxDelay:   5 * time.Second,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgents: []string{
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			},
		},
		Keywords: KeywordConfig{
			Primary: []string{
				"Perth Bears",
				"Mal Meninga",
			},
			Secondary: []string{
				"NRL expansion",
				"Western Australia NRL",
				"WA NRL",
				"North Sydney Bears",
				"Perth NRL",
			},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 */4 * * *", Timezone: defaultTimezone, location: tz},
		Viewer:    ViewerConfig{Addr: ":5050", PageSize: 20},
		Sources: []SourceConfig{
			{
				Name:       "The West Australian",
				Scraper:    "sevenwest",
				BaseURL:    "https://thewest.com.au",
				ListingURL: "https://thewest.com.au/sport/rugby-league",
				Enabled:    true,
				Priority:   1,
			},
			{
				Name:       "PerthNow",
				Scraper:    "sevenwest",
				BaseURL:    "https://www.perthnow.com.au",
				ListingURL: "https://www.perthnow.com.au/sport/rugby-league",
				Enabled:    true,
				Priority:   1,
			},
			{
				Name:       "NRL.com",
				Scraper:    "nrl",
				BaseURL:    "https://www.nrl.com",
				ListingURL: "https://www.nrl.com/news/",
				Enabled:    true,
				Priority:   2,
			},
			{
				Name:       "The Roar",
				Scraper:    "theroar",
				BaseURL:    "https://www.theroar.com.au",
				ListingURL: "https://www.theroar.com.au/rugby-league/",
				Enabled:    true,
				Priority:   2,
			},
			{
				Name:       "Fox Sports",
				Scraper:    "foxsports",
				BaseURL:    "https://www.foxsports.com.au",
				ListingURL: "https://www.foxsports.com.au/nrl",
				Enabled:    true,
				Priority:   2,
			},
			{
				Name:       "CODE Sports",
				Scraper:    "codesports",
				BaseURL:    "https://www.codesports.com.au",
				ListingURL: "https://www.codesports.com.au/nrl",
				Enabled:    true,
				Priority:   2,
			},
			{
				Name:       "Nine",
				Scraper:    "nine",
				BaseURL:    "https://www.nine.com.au",
				ListingURL: "https://www.nine.com.au/sport/nrl",
				ExtraPages: []string{
					"https://www.nine.com.au/topic/perth-bears-6hjh",
				},
				Enabled:  true,
				Priority: 2,
			},
			{
				Name:       "Sydney Morning Herald",
				Scraper:    "nine",
				BaseURL:    "https://www.smh.com.au",
				ListingURL: "https://www.smh.com.au/sport/nrl",
				Enabled:    true,
				Priority:   3,
			},
			{
				Name:       "The Age",
				Scraper:    "nine",
				BaseURL:    "https://www.theage.com.au",
				ListingURL: "https://www.theage.com.au/sport/nrl",
				Enabled:    true,
				Priority:   3,
			},
			{
				Name:       "NewsNow",
				Scraper:    "newsnow",
				BaseURL:    "https://www.newsnow.com",
				ListingURL: "https://www.newsnow.com/au/Sport/NRL",
				Enabled:    true,
				Priority:   3,
			},
		},
	}
}
