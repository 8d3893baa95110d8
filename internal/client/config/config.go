package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/logging"
)

// Config holds runtime settings for the shopkeeper CLI.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DatabasePath   string
	KeyFile        string
	LogLevel       string
	PageSize       int
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "shopkeeper.db"
	c.KeyFile = "shopkeeper.key"
	c.LogLevel = "info"
	c.PageSize = 10
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q must be an absolute http(s) url", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.DatabasePath == "" {
		return errors.New("database path is empty")
	}
	if c.KeyFile == "" {
		return errors.New("key file path is empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PageSize < 1 {
		return errors.New("page size must be at least 1")
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file, then flags from args
// (os.Args[1:] in production). Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
