package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	TRMNL     TRMNLConfig     `mapstructure:"trmnl"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Trend     TrendConfig     `mapstructure:"trend"`
	Retention RetentionConfig `mapstructure:"retention"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	Host           string  `mapstructure:"host"`
	CacheSize      int     `mapstructure:"cache_size"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Name              string `mapstructure:"name"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"`
}

// TRMNLConfig points at the TRMNL cloud API.
type TRMNLConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type FeedConfig struct {
	URL string `mapstructure:"url"`
}

// ScheduleConfig holds cron expressions for the background jobs.
type ScheduleConfig struct {
	RecordCron string `mapstructure:"record_cron"`
	FeedCron   string `mapstructure:"feed_cron"`
	PruneCron  string `mapstructure:"prune_cron"`
}

// TrendConfig carries the analyzer policy values. The defaults mirror the
// companion app's behavior; they are configurable because the original
// rationale for the exact numbers is not documented.
type TrendConfig struct {
	ChargeJumpThreshold float64 `mapstructure:"charge_jump_threshold"`
	StalenessDays       int     `mapstructure:"staleness_days"`
}

// StalenessWindow converts the configured day count to a duration.
func (t TrendConfig) StalenessWindow() time.Duration {
	return time.Duration(t.StalenessDays) * 24 * time.Hour
}

type RetentionConfig struct {
	MaxAgeDays int `mapstructure:"max_age_days"`
	MaxSamples int `mapstructure:"max_samples"`
}

// MaxAge converts the configured day count to a duration.
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeDays) * 24 * time.Hour
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConnectionString renders the lib/pq DSN for the configured database.
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Load reads configuration from the given YAML file, applying defaults and
// INKWATCH_-prefixed environment overrides (INKWATCH_DATABASE_HOST and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.cache_size", 1000)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "inkwatch")
	v.SetDefault("database.user", "inkwatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connection_timeout", 5)

	v.SetDefault("trmnl.base_url", "https://usetrmnl.com/api")
	v.SetDefault("trmnl.api_key", "")

	v.SetDefault("feed.url", "https://usetrmnl.com/blog/rss")

	// Weekly battery recording, hourly feed refresh, nightly pruning.
	v.SetDefault("schedule.record_cron", "0 9 * * 1")
	v.SetDefault("schedule.feed_cron", "0 * * * *")
	v.SetDefault("schedule.prune_cron", "30 3 * * *")

	v.SetDefault("trend.charge_jump_threshold", 2.0)
	v.SetDefault("trend.staleness_days", 21)

	v.SetDefault("retention.max_age_days", 365)
	v.SetDefault("retention.max_samples", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
