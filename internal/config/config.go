// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPredictURL is used when neither the environment nor the config file
// names a prediction endpoint.
const DefaultPredictURL = "http://localhost:8000/predict"

// Config holds all application configuration.
type Config struct {
	Port              string
	PredictURL        string
	PredictTimeout    time.Duration // 0 = transport default
	FrontendURL       string
	PageTTL           time.Duration
	PageSweepInterval time.Duration
	StrictValidation  bool
	SubmitRateLimit   int // submissions per window and client, 0 = unlimited
	SubmitRateWindow  time.Duration
}

// fileConfig mirrors Config for the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Port              string `yaml:"port"`
	PredictURL        string `yaml:"predict_url"`
	PredictTimeout    string `yaml:"predict_timeout"`
	FrontendURL       string `yaml:"frontend_url"`
	PageTTL           string `yaml:"page_ttl"`
	PageSweepInterval string `yaml:"page_sweep_interval"`
	StrictValidation  *bool  `yaml:"strict_validation"`
	SubmitRateLimit   *int   `yaml:"submit_rate_limit"`
	SubmitRateWindow  string `yaml:"submit_rate_window"`
}

// Load reads configuration from CONFIG_FILE (if set) and then from
// environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              "8080",
		PredictURL:        DefaultPredictURL,
		PageTTL:           30 * time.Minute,
		PageSweepInterval: time.Minute,
		StrictValidation:  true,
		SubmitRateLimit:   30,
		SubmitRateWindow:  time.Minute,
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.PredictURL = getEnv("PREDICT_URL", cfg.PredictURL)
	cfg.PredictTimeout = getEnvDuration("PREDICT_TIMEOUT", cfg.PredictTimeout)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.PageTTL = getEnvDuration("PAGE_TTL", cfg.PageTTL)
	cfg.PageSweepInterval = getEnvDuration("PAGE_SWEEP_INTERVAL", cfg.PageSweepInterval)
	cfg.StrictValidation = getEnvBool("STRICT_VALIDATION", cfg.StrictValidation)
	cfg.SubmitRateLimit = getEnvInt("SUBMIT_RATE_LIMIT", cfg.SubmitRateLimit)
	cfg.SubmitRateWindow = getEnvDuration("SUBMIT_RATE_WINDOW", cfg.SubmitRateWindow)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.PredictURL != "" {
		c.PredictURL = fc.PredictURL
	}
	if fc.FrontendURL != "" {
		c.FrontendURL = fc.FrontendURL
	}
	if fc.StrictValidation != nil {
		c.StrictValidation = *fc.StrictValidation
	}
	if fc.SubmitRateLimit != nil {
		c.SubmitRateLimit = *fc.SubmitRateLimit
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"predict_timeout", fc.PredictTimeout, &c.PredictTimeout},
		{"page_ttl", fc.PageTTL, &c.PageTTL},
		{"page_sweep_interval", fc.PageSweepInterval, &c.PageSweepInterval},
		{"submit_rate_window", fc.SubmitRateWindow, &c.SubmitRateWindow},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	u, err := url.Parse(c.PredictURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PREDICT_URL must be an absolute http(s) URL, got %q", c.PredictURL)
	}
	if c.PredictTimeout < 0 {
		return fmt.Errorf("PREDICT_TIMEOUT must be >= 0")
	}
	if c.PageTTL <= 0 {
		return fmt.Errorf("PAGE_TTL must be > 0")
	}
	if c.PageSweepInterval <= 0 {
		return fmt.Errorf("PAGE_SWEEP_INTERVAL must be > 0")
	}
	if c.SubmitRateLimit < 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT must be >= 0")
	}
	if c.SubmitRateLimit > 0 && c.SubmitRateWindow <= 0 {
		return fmt.Errorf("SUBMIT_RATE_WINDOW must be > 0 when rate limiting is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the JSON API.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
