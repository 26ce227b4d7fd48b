package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	APIKey   string            `yaml:"api_key,omitempty"`
	BaseURL  string            `yaml:"base_url"`
	Model    ModelConfig       `yaml:"model"`
	System   string            `yaml:"system,omitempty"`
	Timeout  int               `yaml:"timeout_seconds"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Session  SessionConfig     `yaml:"session"`
	Budget   BudgetConfig      `yaml:"budget"`
}

// ModelConfig holds model settings.
type ModelConfig struct {
	Default string `yaml:"default"`
}

// SessionConfig holds session storage settings.
type SessionConfig struct {
	Dir string `yaml:"dir"`
}

// BudgetConfig holds the advisory spend budget. The budget is only reported,
// never enforced.
type BudgetConfig struct {
	MaxUSD float64 `yaml:"max_usd,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		BaseURL: "https://openrouter.ai/api/v1",
		Model: ModelConfig{
			Default: "openai/gpt-3.5-turbo",
		},
		Timeout: 60,
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/orchat/orchat",
			"X-Title":      "orchat",
		},
		Session: SessionConfig{
			Dir: "runs",
		},
	}
}

// RequestTimeout returns the per-attempt timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Load reads the config from disk. If the file doesn't exist, returns defaults.
func Load() (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(ConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), err
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigFile(), data, 0o600)
}
