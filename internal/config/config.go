// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Health     HealthConfig     `mapstructure:"health"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PolymarketConfig holds Gamma API configuration.
type PolymarketConfig struct {
	GammaAPIURL       string        `mapstructure:"gamma_api_url"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageSize          int           `mapstructure:"page_size"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RetryDelayMax     time.Duration `mapstructure:"retry_delay_max"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// TrackerConfig holds the alert detection thresholds.
type TrackerConfig struct {
	LiquidityThreshold     float64       `mapstructure:"liquidity_threshold"`
	PriceChangeThreshold   float64       `mapstructure:"price_change_threshold"`
	VolumeSpikeRatio       float64       `mapstructure:"volume_spike_ratio"`
	MinLiquidityForAlerts  float64       `mapstructure:"min_liquidity_for_alerts"`
	MinVolumeForAlerts     float64       `mapstructure:"min_volume_for_alerts"`
	MinPriorVolumeForSpike float64       `mapstructure:"min_prior_volume_for_spike"`
	GroupCooldown          time.Duration `mapstructure:"group_cooldown"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds alert-history persistence configuration.
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// HealthConfig holds the health/metrics endpoint configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("EDGEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Polymarket defaults
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.poll_interval", "3m")
	v.SetDefault("polymarket.timeout", "30s")
	v.SetDefault("polymarket.page_size", 500)
	v.SetDefault("polymarket.max_retries", 3)
	v.SetDefault("polymarket.retry_delay_base", "2s")
	v.SetDefault("polymarket.retry_delay_max", "30s")
	v.SetDefault("polymarket.requests_per_second", 4.0)

	// Tracker defaults
	v.SetDefault("tracker.liquidity_threshold", 1000.0)
	v.SetDefault("tracker.price_change_threshold", 0.10)
	v.SetDefault("tracker.volume_spike_ratio", 0.50)
	v.SetDefault("tracker.min_liquidity_for_alerts", 1000.0)
	v.SetDefault("tracker.min_volume_for_alerts", 100.0)
	v.SetDefault("tracker.min_prior_volume_for_spike", 500.0)
	v.SetDefault("tracker.group_cooldown", "60m")

	// Telegram defaults
	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/edgewatch.db")
	v.SetDefault("storage.max_alerts", 5000)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8080)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.PollInterval < 30*time.Second {
		return fmt.Errorf("polymarket.poll_interval must be at least 30 seconds")
	}
	if c.Polymarket.PageSize < 1 || c.Polymarket.PageSize > 1000 {
		return fmt.Errorf("polymarket.page_size must be between 1 and 1000")
	}

	if c.Tracker.LiquidityThreshold < 0 {
		return fmt.Errorf("tracker.liquidity_threshold must not be negative")
	}
	if c.Tracker.PriceChangeThreshold <= 0.0 || c.Tracker.PriceChangeThreshold > 1.0 {
		return fmt.Errorf("tracker.price_change_threshold must be in (0.0, 1.0]")
	}
	if c.Tracker.VolumeSpikeRatio <= 0 {
		return fmt.Errorf("tracker.volume_spike_ratio must be positive")
	}
	if c.Tracker.MinLiquidityForAlerts < 0 {
		return fmt.Errorf("tracker.min_liquidity_for_alerts must not be negative")
	}
	if c.Tracker.MinVolumeForAlerts < 0 {
		return fmt.Errorf("tracker.min_volume_for_alerts must not be negative")
	}
	if c.Tracker.MinPriorVolumeForSpike < 0 {
		return fmt.Errorf("tracker.min_prior_volume_for_spike must not be negative")
	}
	if c.Tracker.GroupCooldown < 1*time.Minute {
		return fmt.Errorf("tracker.group_cooldown must be at least 1 minute")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.MaxAlerts < 1 {
		return fmt.Errorf("storage.max_alerts must be at least 1")
	}

	if c.Health.Enabled && (c.Health.Port < 1 || c.Health.Port > 65535) {
		return fmt.Errorf("health.port must be a valid port number")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
