// Package config loads the swan configuration: defaults, then an optional
// YAML file, then an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all the settings of the application.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Currency      string        `yaml:"currency"`
	Cooldown      time.Duration `yaml:"cooldown"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`

	CoinGecko struct {
		URL           string        `yaml:"url"`
		APIKey        string        `yaml:"api_key"`
		RatePerMinute int           `yaml:"rate_per_minute"`
		BatchSize     int           `yaml:"batch_size"`
		SearchTTL     time.Duration `yaml:"search_ttl"`
	} `yaml:"coingecko"`

	Metals struct {
		URL string `yaml:"url"`
	} `yaml:"metals"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := new(Config)
	cfg.Database.Path = defaultDatabasePath()
	cfg.Currency = "USD"
	cfg.Cooldown = 60 * time.Second
	cfg.WatchInterval = 5 * time.Minute
	cfg.HTTPTimeout = 10 * time.Second
	cfg.CoinGecko.URL = "https://api.coingecko.com/api/v3"
	cfg.CoinGecko.RatePerMinute = 30
	cfg.CoinGecko.BatchSize = 100
	cfg.CoinGecko.SearchTTL = time.Hour
	cfg.Metals.URL = "https://api.gold-api.com"
	cfg.Logging.Level = "warn"
	return cfg
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "swan.db"
	}
	return filepath.Join(dir, "swan", "swan.db")
}

// Load returns the configuration from the defaults, then the YAML file at
// path, then the dotenv file and the environment. Missing files are ignored.
func Load(path, dotenv string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("no config file", "path", path)
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
			}
		}
	}

	if dotenv != "" {
		// does not override variables already set
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s file: %w", dotenv, err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	if v := os.Getenv("SWAN_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SWAN_CURRENCY"); v != "" {
		c.Currency = v
	}
	if v := os.Getenv("SWAN_COINGECKO_URL"); v != "" {
		c.CoinGecko.URL = v
	}
	if v := os.Getenv("SWAN_COINGECKO_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("SWAN_METALS_URL"); v != "" {
		c.Metals.URL = v
	}
	if v := os.Getenv("SWAN_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SWAN_COOLDOWN: %w", err)
		}
		c.Cooldown = d
	}
	if v := os.Getenv("SWAN_VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SWAN_VERBOSE: %w", err)
		}
		if verbose {
			c.Logging.Level = "debug"
		}
	}
	return nil
}

// Validate checks the configuration validity.
func (c *Config) Validate() error {
	var errs error
	if c.Database.Path == "" {
		errs = errors.Join(errs, errors.New("database path is required"))
	}
	if len(c.Currency) != 3 {
		errs = errors.Join(errs, fmt.Errorf("invalid currency %q", c.Currency))
	}
	if c.Cooldown < 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown must not be negative: %v", c.Cooldown))
	}
	if c.WatchInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("watch interval must be positive: %v", c.WatchInterval))
	}
	if c.HTTPTimeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf("http timeout must be positive: %v", c.HTTPTimeout))
	}
	for name, u := range map[string]string{"coingecko": c.CoinGecko.URL, "metals": c.Metals.URL} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			errs = errors.Join(errs, fmt.Errorf("invalid %s URL: %q", name, u))
		}
	}
	if c.CoinGecko.RatePerMinute <= 0 {
		errs = errors.Join(errs, errors.New("coingecko rate per minute must be positive"))
	}
	if c.CoinGecko.BatchSize <= 0 {
		errs = errors.Join(errs, errors.New("coingecko batch size must be positive"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid logging level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}
