// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Catalog source types.
const (
	SourceStore   = "store"
	SourceDataset = "dataset"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Database  DatabaseConfig          `yaml:"database"`
	Dataset   DatasetConfig           `yaml:"dataset"`
	Catalog   CatalogConfig           `yaml:"catalog"`
	Player    PlayerConfig            `yaml:"player"`
	Authoring AuthoringConfig         `yaml:"authoring"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Messages  MessagesConfig          `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string      `yaml:"addr" default:":8080"`
	CORSOrigins []string    `yaml:"cors_origins" default:"[\"*\"]"`
	Hooks       HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// DatabaseConfig represents the relational store configuration.
// An empty DSN disables the store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver" default:"postgres" validate:"oneof=postgres sqlite"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// Enabled reports whether a store is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// DatasetConfig represents the static dataset configuration.
// An empty path uses the bundled dataset.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig represents catalog source configuration.
type CatalogConfig struct {
	Sources []string `yaml:"sources" default:"[\"store\",\"dataset\"]" validate:"min=1,dive,oneof=store dataset"`
}

// PlayerConfig represents player session configuration.
type PlayerConfig struct {
	TransitionDelayMs int `yaml:"transition_delay_ms" default:"200" validate:"gte=0,lte=10000"`
	EventBuffer       int `yaml:"event_buffer" default:"64" validate:"gte=1"`
	CommandBuffer     int `yaml:"command_buffer" default:"64" validate:"gte=1"`
	IdleTimeoutSec    int `yaml:"idle_timeout_sec" default:"1800" validate:"gte=0"`
}

// TransitionDelay returns the pause between verses.
func (p PlayerConfig) TransitionDelay() time.Duration {
	return time.Duration(p.TransitionDelayMs) * time.Millisecond
}

// IdleTimeout returns how long an unattended player stays open.
func (p PlayerConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutSec) * time.Second
}

// AuthoringConfig represents AI-assisted authoring configuration.
type AuthoringConfig struct {
	Gemini GeminiConfig `yaml:"gemini"`
	Cache  CacheConfig  `yaml:"cache"`
}

// GeminiConfig represents the text generation API configuration.
// An empty API key disables generation.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model" default:"gemini-2.5-flash"`
	BaseURL    string `yaml:"base_url" default:"https://generativelanguage.googleapis.com/v1" validate:"url"`
	TimeoutSec int    `yaml:"timeout_sec" default:"30" validate:"gte=1"`
}

// Timeout returns the request timeout.
func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// CacheConfig represents the generation result cache configuration.
type CacheConfig struct {
	Type      string `yaml:"type" default:"memory" validate:"oneof=none memory redis"`
	RedisAddr string `yaml:"redis_addr" validate:"required_if=Type redis"`
	RedisDB   int    `yaml:"redis_db"`
	TTLSec    int    `yaml:"ttl_sec" default:"86400" validate:"gte=0"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success             string `yaml:"success" default:"Sloka uploaded successfully"`
	DefaultError        string `yaml:"default_error" default:"Failed to upload sloka"`
	MissingFields       string `yaml:"missing_fields" default:"Missing required fields"`
	InvalidAudioURL     string `yaml:"invalid_audio_url" default:"Audio URL is not allowed"`
	VerseLimitExceeded  string `yaml:"verse_limit_exceeded" default:"Too many verses in one collection"`
	DuplicateCollection string `yaml:"duplicate_collection" default:"A collection with this title already exists"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Authoring.Gemini.APIKey = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Authoring.Cache.RedisAddr = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "missing_fields":
		return c.Messages.MissingFields
	case "invalid_audio_url":
		return c.Messages.InvalidAudioURL
	case "verse_limit_exceeded":
		return c.Messages.VerseLimitExceeded
	case "duplicate_collection":
		return c.Messages.DuplicateCollection
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.UsesSource(SourceStore) && !c.Database.Enabled() && !c.UsesSource(SourceDataset) {
		return errors.New("catalog uses only the store but database.dsn is empty")
	}

	return nil
}

// UsesSource reports whether the catalog is configured with source.
func (c *Config) UsesSource(source string) bool {
	for _, s := range c.Catalog.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
