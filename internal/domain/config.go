package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Popular   PopularConfig   `mapstructure:"popular"`
	Recent    RecentConfig    `mapstructure:"recent"`
	Picks     PicksConfig     `mapstructure:"picks"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StoreConfig contains storage configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// CatalogConfig points at the pre-parsed appstream dumps (stable.yaml, beta.yaml)
type CatalogConfig struct {
	AppstreamDir string `mapstructure:"appstream_dir"`
}

// StatsConfig contains download statistics configuration
type StatsConfig struct {
	BaseURL     string        `mapstructure:"base_url"` // http(s):// or file://
	Timeout     time.Duration `mapstructure:"timeout"`
	TodayTTL    time.Duration `mapstructure:"today_ttl"`
	PastTTL     time.Duration `mapstructure:"past_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MonthlyDays int           `mapstructure:"monthly_days"`
}

// PopularConfig contains popularity ranking configuration
type PopularConfig struct {
	Days    int           `mapstructure:"days"`
	MaxDays int           `mapstructure:"max_days"`
	Items   int           `mapstructure:"items"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RecentConfig configures the in-process recently-updated query cache
type RecentConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// PicksConfig contains curated picks configuration
type PicksConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	RemoteURL string `mapstructure:"remote_url"`
}

// FeedsConfig contains RSS feed configuration
type FeedsConfig struct {
	SiteURL string `mapstructure:"site_url"`
}

// SchedulerConfig controls the periodic update trigger
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorized event logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/.appcatalog/catalog.db",
		},
		Catalog: CatalogConfig{
			AppstreamDir: "$HOME/.appcatalog/appstream",
		},
		Stats: StatsConfig{
			BaseURL:     "https://flathub.org/stats",
			Timeout:     30 * time.Second,
			TodayTTL:    time.Hour,
			PastTTL:     24 * time.Hour,
			MaxRetries:  2,
			RetryDelay:  2 * time.Second,
			MonthlyDays: 30,
		},
		Popular: PopularConfig{
			Days:    7,
			MaxDays: 90,
			Items:   30,
			TTL:     time.Hour,
		},
		Recent: RecentConfig{
			CacheSize: 64,
			CacheTTL:  time.Hour,
		},
		Picks: PicksConfig{
			DataDir:   "$HOME/.appcatalog/picks",
			RemoteURL: "https://raw.githubusercontent.com/flathub/backend/master/data/picks",
		},
		Feeds: FeedsConfig{
			SiteURL: "https://flathub.org",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.appcatalog/logs",
		},
	}
}
