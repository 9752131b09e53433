package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	BackendURL        string  `mapstructure:"backend_url"`         // Base URL of the VisionGuard backend (http/https)
	RetryDelaySec     float64 `mapstructure:"retry_delay_sec"`     // Fixed delay between reconnection attempts
	ConnectTimeoutSec int     `mapstructure:"connect_timeout_sec"` // WebSocket handshake deadline; 0 = dialer default
	RequestTimeoutSec int     `mapstructure:"request_timeout_sec"` // Timeout for outbound HTTP requests
	TimelineCap       int     `mapstructure:"timeline_cap"`        // Visible timeline length; older entries evicted from the tail
	LogLevel          string  `mapstructure:"log_level"`
	MetricsAddr       string  `mapstructure:"metrics_addr"` // Listener for /metrics; empty = disabled

	// Alert archive. Driver is "sqlite" or "postgres"; empty driver disables persistence.
	ArchiveDriver string `mapstructure:"archive_driver"`
	ArchiveDSN    string `mapstructure:"archive_dsn"`

	// Out-of-band notification side channel. Empty URL = channel not granted.
	NotifyURL  string `mapstructure:"notify_url"`
	NotifyType string `mapstructure:"notify_type"` // webhook (default) or slack

	UserID            string `mapstructure:"user_id"`              // Attached to chat instruction context
	CameraCacheTTLSec int    `mapstructure:"camera_cache_ttl_sec"` // Seconds a camera directory entry stays fresh
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/visionguard/")
	viper.AddConfigPath("$HOME/.visionguard")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("backend_url", "http://localhost:8000")
	viper.SetDefault("retry_delay_sec", 5.0)
	viper.SetDefault("connect_timeout_sec", 10)
	viper.SetDefault("request_timeout_sec", 15)
	viper.SetDefault("timeline_cap", 10)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("archive_driver", "sqlite")
	viper.SetDefault("archive_dsn", "./visionguard-monitor.db")
	viper.SetDefault("notify_url", "")
	viper.SetDefault("notify_type", "webhook")
	viper.SetDefault("user_id", "operator")
	viper.SetDefault("camera_cache_ttl_sec", 60)

	// Environment variables
	viper.SetEnvPrefix("VISIONGUARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
