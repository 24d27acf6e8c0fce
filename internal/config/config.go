package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	yaml "gopkg.in/yaml.v3"
)

// NATSEmbedded as NATS_URL starts an in-process NATS server.
const NATSEmbedded = "embedded"

// Config holds application configuration. Values come from defaults, then
// the YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	Port          string `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"`
	DatabaseURL   string `yaml:"database_url"`
	RedisURL      string `yaml:"redis_url"`
	NATSURL       string `yaml:"nats_url"`

	ChainHopCap  int           `yaml:"chain_hop_cap"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RateLimitRPS of zero disables rate limiting.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	InboxTTL time.Duration `yaml:"inbox_ttl"`
}

func defaults() *Config {
	return &Config{
		Port:           "8080",
		ChainHopCap:    100,
		FetchTimeout:   10 * time.Second,
		RateLimitBurst: 20,
		InboxTTL:       7 * 24 * time.Hour,
	}
}

// Load reads configuration with sensible defaults. All invalid values are
// reported together.
func Load() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var errs *multierror.Error

	setString(&cfg.Port, "PORT")
	setString(&cfg.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.NATSURL, "NATS_URL")

	if v := env("CHAIN_HOP_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("CHAIN_HOP_CAP: %w", err))
		} else {
			cfg.ChainHopCap = n
		}
	}
	if v := env("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("FETCH_TIMEOUT: %w", err))
		} else {
			cfg.FetchTimeout = d
		}
	}
	if v := env("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
		} else {
			cfg.RateLimitRPS = f
		}
	}
	if v := env("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
		} else {
			cfg.RateLimitBurst = n
		}
	}
	if v := env("INBOX_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("INBOX_TTL: %w", err))
		} else {
			cfg.InboxTTL = d
		}
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs *multierror.Error
	if c.Port == "" {
		errs = multierror.Append(errs, errors.New("PORT is required"))
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.PublicBaseURL))
	}
	if c.ChainHopCap < 1 {
		errs = multierror.Append(errs, errors.New("CHAIN_HOP_CAP must be positive"))
	}
	if c.FetchTimeout <= 0 {
		errs = multierror.Append(errs, errors.New("FETCH_TIMEOUT must be positive"))
	}
	if c.RateLimitRPS < 0 {
		errs = multierror.Append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = multierror.Append(errs, errors.New("RATE_LIMIT_BURST must be positive when rate limiting"))
	}
	if c.InboxTTL <= 0 {
		errs = multierror.Append(errs, errors.New("INBOX_TTL must be positive"))
	}
	return errs.ErrorOrNil()
}

// PodBase is the URL prefix of documents hosted by this server.
func (c *Config) PodBase() string { return c.PublicBaseURL + "/pod/" }

// InboxBase is the URL prefix of inboxes hosted by this server.
func (c *Config) InboxBase() string { return c.PublicBaseURL + "/inbox/" }

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func setString(dst *string, k string) {
	if v := env(k); v != "" {
		*dst = v
	}
}
