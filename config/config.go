package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration. It is loaded once by the
// command layer and passed down explicitly; there is no package-level
// instance.
type Config struct {
	BaseURL        string
	DashboardURL   string
	SessionFile    string
	WalletAddress  string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables and an optional
// .ramp-watch.yaml config file in $HOME or the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".ramp-watch")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("base_url", "https://api.ramp-watch.example")
	v.SetDefault("dashboard_url", "https://app.ramp-watch.example/dashboard")
	v.SetDefault("poll_interval_seconds", 10)
	v.SetDefault("request_timeout_seconds", 30)

	v.SetEnvPrefix("RAMP_WATCH")
	v.AutomaticEnv()

	// Config file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{
		BaseURL:        v.GetString("base_url"),
		DashboardURL:   v.GetString("dashboard_url"),
		SessionFile:    v.GetString("session_file"),
		WalletAddress:  v.GetString("wallet_address"),
		PollInterval:   time.Duration(v.GetInt("poll_interval_seconds")) * time.Second,
		RequestTimeout: time.Duration(v.GetInt("request_timeout_seconds")) * time.Second,
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base_url %q: %w", cfg.BaseURL, err)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval_seconds must be greater than 0")
	}

	return cfg, nil
}
