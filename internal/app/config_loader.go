package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/appcatalog/internal/domain"
)

// envKeys are bound explicitly so APPCATALOG_* variables apply even
// when the key is absent from the config file
var envKeys = []string{
	"server.host", "server.port",
	"store.database_path",
	"catalog.appstream_dir",
	"stats.base_url", "stats.timeout", "stats.today_ttl", "stats.past_ttl",
	"stats.max_retries", "stats.retry_delay", "stats.monthly_days",
	"popular.days", "popular.max_days", "popular.items", "popular.ttl",
	"recent.cache_size", "recent.cache_ttl",
	"picks.data_dir", "picks.remote_url",
	"feeds.site_url",
	"scheduler.enabled", "scheduler.interval",
	"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.appcatalog")
		v.AddConfigPath("/etc/appcatalog")
	}

	v.SetEnvPrefix("APPCATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)
	config.Catalog.AppstreamDir = expandPath(config.Catalog.AppstreamDir)
	config.Picks.DataDir = expandPath(config.Picks.DataDir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if strings.HasPrefix(config.Stats.BaseURL, "file://") {
		config.Stats.BaseURL = "file://" + expandPath(strings.TrimPrefix(config.Stats.BaseURL, "file://"))
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("store database path not configured")
	}

	if config.Catalog.AppstreamDir == "" {
		return fmt.Errorf("appstream directory not configured")
	}

	if config.Stats.BaseURL == "" {
		return fmt.Errorf("stats base url not configured")
	}

	if config.Stats.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if config.Stats.MonthlyDays < 1 {
		return fmt.Errorf("monthly window must be at least 1 day")
	}

	if config.Popular.Days < 1 || config.Popular.Items < 1 {
		return fmt.Errorf("popular days and items must be positive")
	}

	if config.Popular.MaxDays < config.Popular.Days {
		return fmt.Errorf("popular max_days cannot be below days")
	}

	if config.Recent.CacheSize < 1 {
		return fmt.Errorf("recent cache size must be at least 1")
	}

	if config.Scheduler.Enabled && config.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configValues flattens config into the keys LoadConfig reads.
// Durations are written in their string form.
func configValues(c *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":           c.Server.Host,
		"server.port":           c.Server.Port,
		"store.database_path":   c.Store.DatabasePath,
		"catalog.appstream_dir": c.Catalog.AppstreamDir,
		"stats.base_url":        c.Stats.BaseURL,
		"stats.timeout":         c.Stats.Timeout.String(),
		"stats.today_ttl":       c.Stats.TodayTTL.String(),
		"stats.past_ttl":        c.Stats.PastTTL.String(),
		"stats.max_retries":     c.Stats.MaxRetries,
		"stats.retry_delay":     c.Stats.RetryDelay.String(),
		"stats.monthly_days":    c.Stats.MonthlyDays,
		"popular.days":          c.Popular.Days,
		"popular.max_days":      c.Popular.MaxDays,
		"popular.items":         c.Popular.Items,
		"popular.ttl":           c.Popular.TTL.String(),
		"recent.cache_size":     c.Recent.CacheSize,
		"recent.cache_ttl":      c.Recent.CacheTTL.String(),
		"picks.data_dir":        c.Picks.DataDir,
		"picks.remote_url":      c.Picks.RemoteURL,
		"feeds.site_url":        c.Feeds.SiteURL,
		"scheduler.enabled":     c.Scheduler.Enabled,
		"scheduler.interval":    c.Scheduler.Interval.String(),
		"logging.level":         c.Logging.Level,
		"logging.format":        c.Logging.Format,
		"logging.output_path":   c.Logging.OutputPath,
		"logging.logs_dir":      c.Logging.LogsDir,
	}
}
