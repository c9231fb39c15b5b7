// Package config loads service configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"studentperf/student"
)

// EnvPrefix prefixes every environment override, e.g. STUDENTPERF_MODEL_PATH.
const EnvPrefix = "STUDENTPERF_"

type Config struct {
	HTTP       HTTPConfig       `yaml:"http" envPrefix:"HTTP_"`
	Model      ModelConfig      `yaml:"model" envPrefix:"MODEL_"`
	Validation ValidationConfig `yaml:"validation" envPrefix:"VALIDATION_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Cache      CacheConfig      `yaml:"cache" envPrefix:"CACHE_"`
	Audit      AuditConfig      `yaml:"audit" envPrefix:"AUDIT_"`
	Watch      WatchConfig      `yaml:"watch" envPrefix:"WATCH_"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port" env:"PORT"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type ModelConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type ValidationConfig struct {
	// Report is "all" or "first".
	Report string `yaml:"report" env:"REPORT"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Encoding   string `yaml:"encoding" env:"ENCODING"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

type CacheConfig struct {
	Size int `yaml:"size" env:"SIZE"`
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

type WatchConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           8000,
			Timeout:        30 * time.Second,
			MaxBodyBytes:   64 << 10,
			AllowedOrigins: []string{"*"},
		},
		Model:      ModelConfig{Path: "logistic_model.json"},
		Validation: ValidationConfig{Report: "all"},
		Log: LogConfig{
			Level:      "info",
			Encoding:   "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Audit: AuditConfig{Path: "data/predictions.db"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if _, err := student.ParseReportMode(c.Validation.Report); err != nil {
		return err
	}
	if c.Cache.Size < 0 {
		return errors.New("cache.size must not be negative")
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit.path is required when audit is enabled")
	}
	return nil
}

// ReportMode returns the parsed validation report mode.
func (c Config) ReportMode() student.ReportMode {
	mode, _ := student.ParseReportMode(c.Validation.Report)
	return mode
}
