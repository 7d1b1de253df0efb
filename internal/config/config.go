// Package config layers the scraper settings: built-in defaults, then an
// optional YAML file, then environment variables. Command line flags are
// applied last by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the effective configuration for one scrape session. The fetch
// fields (UserAgent, AcceptLanguage, Timeout) may stay zero, in which case
// the fetcher applies its own defaults.
type Config struct {
	SearchURL      string        `env:"ZAMEEN_SEARCH_URL"`
	MaxPages       int           `env:"ZAMEEN_MAX_PAGES"`
	MaxDetails     int           `env:"ZAMEEN_MAX_DETAILS"`
	Delay          time.Duration `env:"ZAMEEN_DELAY"`
	Jitter         time.Duration `env:"ZAMEEN_JITTER"`
	OutputPath     string        `env:"ZAMEEN_OUTPUT"`
	DBPath         string        `env:"ZAMEEN_DB"`
	UserAgent      string        `env:"ZAMEEN_USER_AGENT"`
	AcceptLanguage string        `env:"ZAMEEN_ACCEPT_LANGUAGE"`
	Timeout        time.Duration `env:"ZAMEEN_TIMEOUT"`
	Verbose        bool          `env:"ZAMEEN_VERBOSE"`
	Silent         bool          `env:"ZAMEEN_SILENT"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		MaxPages:   1,
		MaxDetails: 10,
		Delay:      1500 * time.Millisecond,
		Jitter:     500 * time.Millisecond,
		OutputPath: "zameen_listings.csv",
	}
}

// fileConfig is the YAML shape. Durations are strings ("1500ms", "2s") and
// numeric fields are pointers so an absent key is distinguishable from an
// explicit zero.
type fileConfig struct {
	SearchURL      string `yaml:"search_url"`
	MaxPages       *int   `yaml:"max_pages"`
	MaxDetails     *int   `yaml:"max_details"`
	Delay          string `yaml:"delay"`
	Jitter         string `yaml:"jitter"`
	Output         string `yaml:"output"`
	DB             string `yaml:"db"`
	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	Timeout        string `yaml:"timeout"`
	Verbose        *bool  `yaml:"verbose"`
	Silent         *bool  `yaml:"silent"`
}

func (f *fileConfig) apply(c *Config) error {
	if f.SearchURL != "" {
		c.SearchURL = f.SearchURL
	}
	if f.MaxPages != nil {
		c.MaxPages = *f.MaxPages
	}
	if f.MaxDetails != nil {
		c.MaxDetails = *f.MaxDetails
	}
	if f.Output != "" {
		c.OutputPath = f.Output
	}
	if f.DB != "" {
		c.DBPath = f.DB
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.AcceptLanguage != "" {
		c.AcceptLanguage = f.AcceptLanguage
	}
	if f.Verbose != nil {
		c.Verbose = *f.Verbose
	}
	if f.Silent != nil {
		c.Silent = *f.Silent
	}

	for _, d := range []struct {
		key  string
		raw  string
		dest *time.Duration
	}{
		{"delay", f.Delay, &c.Delay},
		{"jitter", f.Jitter, &c.Jitter},
		{"timeout", f.Timeout, &c.Timeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dest = parsed
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is non-empty), and finally the environment. A .env file in the
// working directory is read into the environment first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := fc.apply(c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return c, nil
}
