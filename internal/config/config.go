// Copyright 2025 mikodusami
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents the complete promptbuilder configuration.
type Config struct {
	Log       LogConfig               `yaml:"log"`
	LLM       LLMConfig               `yaml:"llm"`
	History   HistoryConfig           `yaml:"history"`
	Analytics AnalyticsConfig         `yaml:"analytics"`
	Templates TemplatesConfig         `yaml:"templates"`
	Providers map[string]ProviderConf `yaml:"providers,omitempty"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// LLMConfig configures LLM provider settings.
type LLMConfig struct {
	// DefaultProvider is the provider used when a step does not name one.
	// Environment: PROMPTBUILDER_PROVIDER
	// Default: anthropic
	DefaultProvider string `yaml:"default_provider"`

	// FallbackProvider is an optional single provider tried when the
	// primary fails. Empty disables fallback.
	FallbackProvider string `yaml:"fallback_provider,omitempty"`

	// ProviderOrder is the preference order used when auto-selecting a
	// provider for a chain step. Providers not in this list are never
	// auto-selected.
	// Default: [anthropic, openai, google]
	ProviderOrder []string `yaml:"provider_order,omitempty"`

	// RequestTimeout is the maximum duration for a single completion request.
	// Environment: PROMPTBUILDER_REQUEST_TIMEOUT
	// Default: 120s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxTokens is the default output token limit for completion requests.
	// Default: 4096
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the default sampling temperature.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`
}

// ProviderConf holds per-provider overrides.
type ProviderConf struct {
	// Model overrides the provider's default model.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the provider's API endpoint, for proxies and
	// compatible servers.
	BaseURL string `yaml:"base_url,omitempty"`
}

// HistoryConfig configures the prompt history store.
type HistoryConfig struct {
	// Enabled controls whether built prompts are saved to history.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// Path is the SQLite database path. Empty uses DataDir()/history.db.
	Path string `yaml:"path,omitempty"`
}

// AnalyticsConfig configures usage tracking.
type AnalyticsConfig struct {
	// Enabled controls whether provider calls are recorded.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// Path is the SQLite database path. Empty uses DataDir()/analytics.db.
	Path string `yaml:"path,omitempty"`
}

// TemplatesConfig configures custom templates.
type TemplatesConfig struct {
	// Path is the templates YAML file. Empty uses ConfigDir()/templates.yaml.
	Path string `yaml:"path,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	enabled := true
	return &Config{
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			AddSource: false,
		},
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			ProviderOrder:   []string{"anthropic", "openai", "google"},
			RequestTimeout:  120 * time.Second,
			MaxTokens:       4096,
			Temperature:     0.7,
		},
		History: HistoryConfig{
			Enabled: &enabled,
		},
		Analytics: AnalyticsConfig{
			Enabled: &enabled,
		},
	}
}

// Load loads configuration from a YAML file and environment variables.
// Environment variables take precedence over file-based configuration.
// If configPath is empty, only defaults and environment variables are used.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &pberrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &pberrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults.
// This allows minimal config files to work without specifying all fields.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	if c.LLM.DefaultProvider == "" {
		c.LLM.DefaultProvider = defaults.LLM.DefaultProvider
	}
	if len(c.LLM.ProviderOrder) == 0 {
		c.LLM.ProviderOrder = defaults.LLM.ProviderOrder
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = defaults.LLM.RequestTimeout
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = defaults.LLM.MaxTokens
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = defaults.LLM.Temperature
	}

	if c.History.Enabled == nil {
		c.History.Enabled = defaults.History.Enabled
	}
	if c.Analytics.Enabled == nil {
		c.Analytics.Enabled = defaults.Analytics.Enabled
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("PROMPTBUILDER_PROVIDER"); val != "" {
		c.LLM.DefaultProvider = strings.ToLower(val)
	}
	if val := os.Getenv("PROMPTBUILDER_REQUEST_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.LLM.RequestTimeout = duration
		}
	}
	if val := os.Getenv("PROMPTBUILDER_HISTORY_PATH"); val != "" {
		c.History.Path = val
	}
	if val := os.Getenv("PROMPTBUILDER_ANALYTICS_PATH"); val != "" {
		c.Analytics.Path = val
	}
	if val := os.Getenv("PROMPTBUILDER_TEMPLATES_PATH"); val != "" {
		c.Templates.Path = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	knownProviders := map[string]bool{"anthropic": true, "openai": true, "google": true}
	if !knownProviders[c.LLM.DefaultProvider] {
		errs = append(errs, fmt.Sprintf("llm.default_provider must be one of [anthropic, openai, google], got %q", c.LLM.DefaultProvider))
	}
	if c.LLM.FallbackProvider != "" && !knownProviders[c.LLM.FallbackProvider] {
		errs = append(errs, fmt.Sprintf("llm.fallback_provider must be one of [anthropic, openai, google], got %q", c.LLM.FallbackProvider))
	}
	for _, p := range c.LLM.ProviderOrder {
		if !knownProviders[p] {
			errs = append(errs, fmt.Sprintf("llm.provider_order contains unknown provider %q", p))
		}
	}
	for name := range c.Providers {
		if !knownProviders[name] {
			errs = append(errs, fmt.Sprintf("providers contains unknown provider %q", name))
		}
	}

	if c.LLM.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("llm.request_timeout must be positive, got %v", c.LLM.RequestTimeout))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("llm.temperature must be in [0, 2], got %v", c.LLM.Temperature))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// HistoryPath returns the resolved history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// AnalyticsPath returns the resolved analytics database path.
func (c *Config) AnalyticsPath() (string, error) {
	if c.Analytics.Path != "" {
		return c.Analytics.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "analytics.db"), nil
}

// TemplatesPath returns the resolved templates YAML path.
func (c *Config) TemplatesPath() (string, error) {
	if c.Templates.Path != "" {
		return c.Templates.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "templates.yaml"), nil
}

// HistoryEnabled reports whether history recording is on.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// AnalyticsEnabled reports whether usage recording is on.
func (c *Config) AnalyticsEnabled() bool {
	return c.Analytics.Enabled == nil || *c.Analytics.Enabled
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
