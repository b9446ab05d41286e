// Package config handles configuration loading for compval.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Screener ScreenerConfig `mapstructure:"screener" yaml:"screener"`
	Source   SourceConfig   `mapstructure:"source"   yaml:"source"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ScreenerConfig holds the peer-screening thresholds and candidate list.
type ScreenerConfig struct {
	// Tolerance is the allowed relative market-cap deviation (0.75 = ±75%).
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`

	// MinMatchPct and MaxMatchPct bound the accepted keyword-overlap band.
	MinMatchPct float64 `mapstructure:"min_match_pct" yaml:"min_match_pct"`
	MaxMatchPct float64 `mapstructure:"max_match_pct" yaml:"max_match_pct"`

	// Peers are the candidate tickers screened against the target.
	Peers []string `mapstructure:"peers" yaml:"peers"`

	// FetchConcurrency caps parallel peer fetches.
	FetchConcurrency int `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
}

// SourceConfig selects the market-data sources.
type SourceConfig struct {
	Primary  string `mapstructure:"primary"  yaml:"primary"`  // "yahoo" or "yahooweb"
	Fallback string `mapstructure:"fallback" yaml:"fallback"` // same values, or "" for none
}

// StoreConfig holds the results-store settings.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.compval/config.yaml (home directory)
//  3. /etc/compval/config.yaml (system)
//
// Environment variables override config file values.
// Format: COMPVAL_<SECTION>_<KEY>, e.g., COMPVAL_STORE_PATH
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".compval"))
	v.AddConfigPath("/etc/compval")

	v.SetEnvPrefix("COMPVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("COMPVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Screener.Tolerance < 0 {
		return fmt.Errorf("screener.tolerance must be >= 0, got %v", c.Screener.Tolerance)
	}
	if c.Screener.MinMatchPct < 0 || c.Screener.MaxMatchPct > 100 {
		return fmt.Errorf("match band must lie within [0,100], got [%v,%v]",
			c.Screener.MinMatchPct, c.Screener.MaxMatchPct)
	}
	if c.Screener.MinMatchPct > c.Screener.MaxMatchPct {
		return fmt.Errorf("screener.min_match_pct %v exceeds max_match_pct %v",
			c.Screener.MinMatchPct, c.Screener.MaxMatchPct)
	}
	if len(c.Screener.Peers) == 0 {
		return fmt.Errorf("screener.peers must not be empty")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	switch c.Source.Primary {
	case "yahoo", "yahooweb":
	default:
		return fmt.Errorf("unknown source.primary %q", c.Source.Primary)
	}
	switch c.Source.Fallback {
	case "", "yahoo", "yahooweb":
	default:
		return fmt.Errorf("unknown source.fallback %q", c.Source.Fallback)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Screener defaults: the 11–19% keyword band with ±75% market-cap
	// tolerance, against a food-and-beverages candidate list.
	v.SetDefault("screener.tolerance", 0.75)
	v.SetDefault("screener.min_match_pct", 11.0)
	v.SetDefault("screener.max_match_pct", 19.0)
	v.SetDefault("screener.peers", []string{"ADM", "BG", "INGR", "LANC", "HRL"})
	v.SetDefault("screener.fetch_concurrency", 4)

	// Source defaults
	v.SetDefault("source.primary", "yahoo")
	v.SetDefault("source.fallback", "yahooweb")

	// Store defaults
	v.SetDefault("store.path", "comparable_analysis.xlsx")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
